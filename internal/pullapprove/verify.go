package pullapprove

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ngdev.dev/ngdev/internal/runtime"
)

// ErrVerificationFailed is returned when globs or files are left unmatched
var ErrVerificationFailed = errors.New("pullapprove verification failed")

// GroupResult summarizes how a group's globs matched the file tree
type GroupResult struct {
	Name string
	// MatchedFiles is the number of files selected by the group's globs
	MatchedFiles int
	// UnmatchedGlobs are globs that select no file
	UnmatchedGlobs []string
	// Unverifiable are conditions that do not select files by glob
	Unverifiable []string
}

// Result is the outcome of verifying the configuration against the file tree
type Result struct {
	Groups []GroupResult
	// Ignored are groups without any glob condition
	Ignored []string
	// UnownedFiles are files selected by no group
	UnownedFiles []string
}

// Passed reports whether every glob matched and every file is owned
func (r *Result) Passed() bool {
	if len(r.UnownedFiles) > 0 {
		return false
	}
	for _, g := range r.Groups {
		if len(g.UnmatchedGlobs) > 0 {
			return false
		}
	}
	return true
}

// Evaluate matches groups against files
func Evaluate(groups []*Group, files []string) *Result {
	result := &Result{}
	owned := make(map[string]bool, len(files))

	for _, group := range groups {
		gr := GroupResult{Name: group.Name}
		verifiable := false
		for _, cond := range group.Conditions {
			if !cond.Verifiable() {
				gr.Unverifiable = append(gr.Unverifiable, cond.Expression)
				continue
			}
			verifiable = true
			hits := make(map[string]bool, len(cond.Globs))
			for _, file := range files {
				matched := cond.MatchedBy(file)
				if len(matched) == 0 {
					continue
				}
				gr.MatchedFiles++
				owned[file] = true
				for _, g := range matched {
					hits[g] = true
				}
			}
			for _, g := range cond.Globs {
				if !hits[g] {
					gr.UnmatchedGlobs = append(gr.UnmatchedGlobs, g)
				}
			}
		}
		if !verifiable {
			result.Ignored = append(result.Ignored, group.Name)
			continue
		}
		result.Groups = append(result.Groups, gr)
	}

	for _, file := range files {
		if !owned[file] {
			result.UnownedFiles = append(result.UnownedFiles, file)
		}
	}
	return result
}

// Verify checks the repository's PullApprove configuration against its tracked files
func Verify(ctx *runtime.Context) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(ctx.RepoRoot, ConfigPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigPath, err)
	}
	groups, err := Parse(data)
	if err != nil {
		return nil, err
	}
	files, err := ctx.Git.ListFiles(ctx.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to list repository files: %w", err)
	}

	result := Evaluate(groups, files)
	Print(ctx, result)
	if !result.Passed() {
		return result, ErrVerificationFailed
	}
	return result, nil
}

// Print writes the verification report
func Print(ctx *runtime.Context, result *Result) {
	ctx.Splog.Section("PullApprove groups")
	for _, g := range result.Groups {
		if len(g.UnmatchedGlobs) == 0 {
			ctx.Splog.Success("%s (%d files)", g.Name, g.MatchedFiles)
		} else {
			ctx.Splog.Error("%s (%d files)", g.Name, g.MatchedFiles)
			for _, glob := range g.UnmatchedGlobs {
				ctx.Splog.Error("  no files match %s", glob)
			}
		}
		for _, expr := range g.Unverifiable {
			ctx.Splog.Debug("  skipped condition: %s", expr)
		}
	}
	for _, name := range result.Ignored {
		ctx.Splog.Warn("%s has no glob conditions and was not verified", name)
	}

	if len(result.UnownedFiles) > 0 {
		ctx.Splog.Newline()
		ctx.Splog.Section("Files not owned by any group")
		for _, file := range result.UnownedFiles {
			ctx.Splog.Error("  %s", file)
		}
	}

	ctx.Splog.Newline()
	if result.Passed() {
		ctx.Splog.Success("PullApprove configuration covers every file")
	} else {
		ctx.Splog.Error("PullApprove configuration has unmatched globs or unowned files")
	}
}
