// Package pullapprove verifies that the PullApprove review groups cover the
// files in the repository.
package pullapprove

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the PullApprove configuration relative to the repository root
const ConfigPath = ".pullapprove.yml"

var (
	// ErrInvalidConfig is returned when the configuration cannot be parsed
	ErrInvalidConfig = errors.New("invalid pullapprove configuration")

	globsConditionPattern = regexp.MustCompile(`(?s)^contains_any_globs\(\s*files((?:\.exclude\([^)]*\))*)\s*,\s*\[(.*)\]\s*\)$`)
	excludePattern        = regexp.MustCompile(`\.exclude\(([^)]*)\)`)
	quotedPattern         = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
)

// Condition is a single group condition. Only contains_any_globs conditions
// can be checked against the file tree.
type Condition struct {
	Expression string
	Globs      []string
	Excludes   []string

	compiled []glob.Glob
	excluded []glob.Glob
}

// Verifiable reports whether the condition selects files by glob
func (c *Condition) Verifiable() bool {
	return len(c.Globs) > 0
}

// MatchedBy returns the globs of the condition that match file
func (c *Condition) MatchedBy(file string) []string {
	for _, g := range c.excluded {
		if g.Match(file) {
			return nil
		}
	}
	var out []string
	for i, g := range c.compiled {
		if g.Match(file) {
			out = append(out, c.Globs[i])
		}
	}
	return out
}

// Group is a PullApprove review group
type Group struct {
	Name       string
	Conditions []*Condition
}

type rawGroup struct {
	Conditions yaml.Node `yaml:"conditions"`
}

// Parse reads PullApprove configuration, keeping groups in file order
func Parse(data []byte) ([]*Group, error) {
	var raw struct {
		Version int       `yaml:"version"`
		Groups  yaml.Node `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if raw.Groups.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: missing groups", ErrInvalidConfig)
	}

	var groups []*Group
	for i := 0; i+1 < len(raw.Groups.Content); i += 2 {
		name := raw.Groups.Content[i].Value
		var rg rawGroup
		if err := raw.Groups.Content[i+1].Decode(&rg); err != nil {
			return nil, fmt.Errorf("%w: group %s: %v", ErrInvalidConfig, name, err)
		}
		expressions, err := conditionExpressions(&rg.Conditions)
		if err != nil {
			return nil, fmt.Errorf("%w: group %s: %v", ErrInvalidConfig, name, err)
		}
		group := &Group{Name: name}
		for _, expr := range expressions {
			cond, err := ParseCondition(expr)
			if err != nil {
				return nil, fmt.Errorf("%w: group %s: %v", ErrInvalidConfig, name, err)
			}
			group.Conditions = append(group.Conditions, cond)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// conditionExpressions accepts a single condition string or a list of them
func conditionExpressions(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("conditions must be a string or a list at line %d", node.Line)
	}
}

// ParseCondition extracts the globs of a contains_any_globs condition. Other
// expressions are returned without globs.
func ParseCondition(expression string) (*Condition, error) {
	expression = strings.TrimSpace(expression)
	cond := &Condition{Expression: expression}

	m := globsConditionPattern.FindStringSubmatch(expression)
	if m == nil {
		return cond, nil
	}
	for _, ex := range excludePattern.FindAllStringSubmatch(m[1], -1) {
		cond.Excludes = append(cond.Excludes, quoted(ex[1])...)
	}
	cond.Globs = quoted(m[2])

	for _, pattern := range cond.Globs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		cond.compiled = append(cond.compiled, g)
	}
	for _, pattern := range cond.Excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude glob %q: %w", pattern, err)
		}
		cond.excluded = append(cond.excluded, g)
	}
	return cond, nil
}

func quoted(s string) []string {
	var out []string
	for _, m := range quotedPattern.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	return out
}
