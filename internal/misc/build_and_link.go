// Package misc holds small repository utilities that do not belong to a
// larger command family.
package misc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ngdev.dev/ngdev/internal/process"
	"ngdev.dev/ngdev/internal/release"
	"ngdev.dev/ngdev/internal/runtime"
)

// DefaultLinker is the package manager used to link built packages
const DefaultLinker = "yarn"

// BuildAndLinkOptions configures BuildAndLink
type BuildAndLinkOptions struct {
	// ProjectRoot is the project that consumes the built packages
	ProjectRoot string
	// Linker overrides the yarn binary
	Linker string
}

// BuildAndLink builds the release packages, registers each one with
// `yarn link` and links all of them into the project at ProjectRoot.
func BuildAndLink(ctx *runtime.Context, opts BuildAndLinkOptions) ([]release.BuiltPackageWithInfo, error) {
	if opts.ProjectRoot == "" {
		return nil, errors.New("a project root is required")
	}
	projectRoot, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(projectRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", opts.ProjectRoot)
	}
	linker := opts.Linker
	if linker == "" {
		linker = DefaultLinker
	}

	built, err := release.BuildPackages(ctx)
	if err != nil {
		return nil, err
	}

	for _, pkg := range built {
		if _, err := process.NewRunner(linker, pkg.OutputPath).Run(ctx.Context, "link"); err != nil {
			return nil, fmt.Errorf("failed to register %s for linking: %w", pkg.Name, err)
		}
		ctx.Splog.Debug("Registered %s", pkg.Name)
	}

	project := process.NewRunner(linker, projectRoot)
	for _, pkg := range built {
		if _, err := project.Run(ctx.Context, "link", "--cwd", projectRoot, pkg.Name); err != nil {
			return nil, fmt.Errorf("failed to link %s into %s: %w", pkg.Name, projectRoot, err)
		}
		ctx.Splog.Info("Linked %s", pkg.Name)
	}

	ctx.Splog.Success("Linked %d package(s) into %s", len(built), projectRoot)
	return built, nil
}
