// Package ngbot verifies the configuration of the repository's GitHub robot.
package ngbot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ngdev.dev/ngdev/internal/runtime"
)

// ConfigPath is the robot configuration relative to the repository root
const ConfigPath = ".github/angular-robot.yml"

// ErrInvalidConfig is returned when the robot configuration does not parse
var ErrInvalidConfig = errors.New("invalid ngbot configuration")

// Verify parses the robot configuration and reports whether it is valid YAML
// holding a mapping at the top level.
func Verify(ctx *runtime.Context) error {
	path := filepath.Join(ctx.RepoRoot, ConfigPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ConfigPath, err)
	}
	if err := Parse(data); err != nil {
		ctx.Splog.Error("%s is not valid:", ConfigPath)
		ctx.Splog.Error("%v", err)
		return err
	}
	ctx.Splog.Success("%s is valid", ConfigPath)
	return nil
}

// Parse checks robot configuration contents
func Parse(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("%w: the file is empty", ErrInvalidConfig)
	}
	if root := doc.Content[0]; root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected a mapping at line %d", ErrInvalidConfig, root.Line)
	}
	return nil
}
