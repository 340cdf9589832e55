package format

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/process"
)

// Formatter is an external code formatter run over matching files
type Formatter struct {
	Name string
	// Binary is the executable; relative paths with a slash resolve against the repository root
	Binary string
	// Matchers are gitignore-style patterns selecting the files the formatter handles
	Matchers []string

	// check returns the files among files that are not formatted
	check func(ctx context.Context, r *process.Runner, files []string) ([]string, error)
	// format rewrites files in place
	format func(ctx context.Context, r *process.Runner, files []string) error

	matcher gitignore.Matcher
}

// Matches reports whether the formatter handles path
func (f *Formatter) Matches(path string) bool {
	if f.matcher == nil {
		patterns := make([]gitignore.Pattern, 0, len(f.Matchers))
		for _, m := range f.Matchers {
			patterns = append(patterns, gitignore.ParsePattern(m, nil))
		}
		f.matcher = gitignore.NewMatcher(patterns)
	}
	return f.matcher.Match(strings.Split(filepath.ToSlash(path), "/"), false)
}

// Filter returns the files the formatter handles
func (f *Formatter) Filter(files []string) []string {
	var out []string
	for _, file := range files {
		if f.Matches(file) {
			out = append(out, file)
		}
	}
	return out
}

func (f *Formatter) runner(root string) *process.Runner {
	binary := f.Binary
	if strings.Contains(binary, "/") && !filepath.IsAbs(binary) {
		binary = filepath.Join(root, binary)
	}
	return process.NewRunner(binary, root)
}

// exitCode returns the exit code of a failed command, or -1 for other errors
func exitCode(err error) int {
	var cmdErr *ngerrors.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// outputLines returns the non-empty lines of a failed command's stdout
func outputLines(err error) []string {
	var cmdErr *ngerrors.CommandError
	if !errors.As(err, &cmdErr) {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(cmdErr.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// perFile checks each file on its own; a non-zero exit marks the file unformatted
func perFile(args ...string) func(ctx context.Context, r *process.Runner, files []string) ([]string, error) {
	return func(ctx context.Context, r *process.Runner, files []string) ([]string, error) {
		var failed []string
		for _, file := range files {
			if _, err := r.Run(ctx, append(append([]string{}, args...), file)...); err != nil {
				if exitCode(err) <= 0 {
					return nil, err
				}
				failed = append(failed, file)
			}
		}
		return failed, nil
	}
}

// batch runs one command over every file
func batch(args ...string) func(ctx context.Context, r *process.Runner, files []string) error {
	return func(ctx context.Context, r *process.Runner, files []string) error {
		_, err := r.Run(ctx, append(append([]string{}, args...), files...)...)
		return err
	}
}

func prettier() *Formatter {
	return &Formatter{
		Name:   "prettier",
		Binary: "node_modules/.bin/prettier",
		Matchers: []string{
			"*.js", "*.cjs", "*.mjs", "*.ts", "*.cts", "*.mts",
			"*.json", "*.yml", "*.yaml", "*.md", "*.html", "*.css", "*.scss",
		},
		// --list-different prints the unformatted files and exits 1
		check: func(ctx context.Context, r *process.Runner, files []string) ([]string, error) {
			_, err := r.Run(ctx, append([]string{"--list-different"}, files...)...)
			if err == nil {
				return nil, nil
			}
			if exitCode(err) != 1 {
				return nil, err
			}
			return outputLines(err), nil
		},
		format: batch("--write"),
	}
}

func buildifier() *Formatter {
	return &Formatter{
		Name:     "buildifier",
		Binary:   "buildifier",
		Matchers: []string{"BUILD", "BUILD.bazel", "WORKSPACE", "WORKSPACE.bazel", "MODULE.bazel", "*.bzl"},
		check:    perFile("--mode=check", "--lint=warn"),
		format:   batch("--mode=fix", "--lint=fix"),
	}
}

func clangFormat() *Formatter {
	return &Formatter{
		Name:     "clang-format",
		Binary:   "node_modules/.bin/clang-format",
		Matchers: []string{"*.ts", "*.js", "*.cc", "*.h"},
		check:    perFile("--dry-run", "--Werror"),
		format:   batch("-i"),
	}
}

// defaultFormatters lists every known formatter by name
var defaultFormatters = map[string]func() *Formatter{
	"prettier":     prettier,
	"buildifier":   buildifier,
	"clang-format": clangFormat,
}

// formatterOrder is the order formatters run in
var formatterOrder = []string{"prettier", "buildifier", "clang-format"}

// FromConfig returns the formatters enabled by the format configuration section.
// Each entry is true, false, or a map with "matchers" and optionally "binary".
func FromConfig(cfg map[string]any) ([]*Formatter, error) {
	var problems []string
	for name := range cfg {
		if _, ok := defaultFormatters[strings.ToLower(name)]; !ok {
			problems = append(problems, fmt.Sprintf("format: unknown formatter %q", name))
		}
	}

	var out []*Formatter
	for _, name := range formatterOrder {
		value, ok := lookup(cfg, name)
		if !ok {
			continue
		}
		f := defaultFormatters[name]()
		switch v := value.(type) {
		case bool:
			if !v {
				continue
			}
		case map[string]any:
			if matchers, ok := v["matchers"]; ok {
				list, err := stringList(matchers)
				if err != nil {
					problems = append(problems, fmt.Sprintf("format.%s.matchers: %v", name, err))
					continue
				}
				f.Matchers = list
			}
			if binary, ok := v["binary"].(string); ok && binary != "" {
				f.Binary = binary
			}
		default:
			problems = append(problems, fmt.Sprintf("format.%s: expected true, false or an object", name))
			continue
		}
		out = append(out, f)
	}
	if len(problems) > 0 {
		return nil, ngerrors.NewConfigValidationError(problems)
	}
	return out, nil
}

// lookup finds a key case-insensitively; viper lowercases map keys
func lookup(cfg map[string]any, name string) (any, bool) {
	for k, v := range cfg {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("expected a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.New("expected a list of strings")
}
