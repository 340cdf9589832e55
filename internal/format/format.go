// Package format runs the configured code formatters over a selection of files.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

// Selection chooses which files are formatted
type Selection string

const (
	SelectAll     Selection = "all"
	SelectChanged Selection = "changed"
	SelectStaged  Selection = "staged"
	SelectFiles   Selection = "files"
)

// ErrUnformattedFiles is returned by a check run that found unformatted files
var ErrUnformattedFiles = errors.New("files are not formatted")

// Options configures Run
type Options struct {
	Selection Selection
	// Base is the ref "changed" compares against; defaults to the main branch
	Base string
	// Files are the paths for SelectFiles
	Files []string
	// Check reports unformatted files without rewriting them
	Check bool
}

// Result lists, per formatter, the files that were not formatted (check mode)
// or that were formatted
type Result struct {
	Files map[string][]string
}

// Run formats, or checks, the selected files with every enabled formatter.
// Formatters run one after another; their failures are aggregated.
func Run(ctx *runtime.Context, opts Options) (*Result, error) {
	formatters, err := FromConfig(ctx.Config.Format)
	if err != nil {
		return nil, err
	}
	if len(formatters) == 0 {
		ctx.Splog.Warn("No formatters are enabled in the format configuration")
		return &Result{Files: map[string][]string{}}, nil
	}

	files, err := SelectedFiles(ctx, opts)
	if err != nil {
		return nil, err
	}

	root := ctx.Git.RepoRoot()
	result := &Result{Files: map[string][]string{}}
	var failures []string
	for _, f := range formatters {
		matched := f.Filter(files)
		if len(matched) == 0 {
			continue
		}
		r := f.runner(root)
		if opts.Check {
			unformatted, err := f.check(ctx.Context, r, matched)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", f.Name, err))
				continue
			}
			if len(unformatted) > 0 {
				result.Files[f.Name] = unformatted
			}
			continue
		}
		ctx.Splog.Info("Formatting %d file(s) with %s", len(matched), f.Name)
		if err := f.format(ctx.Context, r, matched); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		result.Files[f.Name] = matched
	}

	if len(failures) > 0 {
		for _, failure := range failures {
			ctx.Splog.Error("%s", failure)
		}
		return result, fmt.Errorf("%d formatter(s) failed", len(failures))
	}
	if opts.Check {
		return result, reportCheck(ctx, result)
	}
	ctx.Splog.Success("Formatting complete")
	return result, nil
}

// SelectedFiles returns the files named by the selection
func SelectedFiles(ctx *runtime.Context, opts Options) ([]string, error) {
	switch opts.Selection {
	case SelectAll, "":
		return ctx.Git.ListFiles(ctx.Context)
	case SelectChanged:
		base := opts.Base
		if base == "" {
			base = ctx.Config.GitHub.MainBranchName
		}
		return ctx.Git.ChangedFiles(ctx.Context, base)
	case SelectStaged:
		return ctx.Git.StagedFiles(ctx.Context)
	case SelectFiles:
		return opts.Files, nil
	}
	return nil, fmt.Errorf("unknown file selection %q", opts.Selection)
}

func reportCheck(ctx *runtime.Context, result *Result) error {
	if len(result.Files) == 0 {
		ctx.Splog.Success("All files are correctly formatted")
		return nil
	}
	var all []string
	for _, files := range result.Files {
		all = append(all, files...)
	}
	sort.Strings(all)
	ctx.Splog.Error("The following files are not formatted:")
	for _, file := range all {
		ctx.Splog.Info("  - %s", tui.ColorYellow(file))
	}
	ctx.Splog.Tip("Run `ng-dev format files %s` to format them", strings.Join(all, " "))
	return fmt.Errorf("%w: %d file(s)", ErrUnformattedFiles, len(all))
}
