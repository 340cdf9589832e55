package git

import (
	"context"
	"fmt"
	"strings"
)

// HasUncommittedChanges reports whether tracked files have staged or unstaged modifications.
// Untracked files are ignored.
func (r *Repo) HasUncommittedChanges(ctx context.Context) (bool, error) {
	output, err := r.Run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, fmt.Errorf("failed to check for local changes: %w", err)
	}
	return strings.TrimSpace(output) != "", nil
}

// StagedFiles returns the paths of files staged for commit (added, copied, modified, renamed)
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	return r.RunLines(ctx, "diff", "--cached", "--name-only", "--diff-filter=ACMR")
}

// ChangedFiles returns the files modified since the merge base with base, plus
// uncommitted modifications.
func (r *Repo) ChangedFiles(ctx context.Context, base string) ([]string, error) {
	mergeBase, err := r.Run(ctx, "merge-base", base, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base with %s: %w", base, err)
	}
	committed, err := r.RunLines(ctx, "diff", "--name-only", "--diff-filter=ACMR", mergeBase)
	if err != nil {
		return nil, err
	}
	return dedupe(committed), nil
}

// ListFiles returns every file tracked by git
func (r *Repo) ListFiles(ctx context.Context) ([]string, error) {
	return r.RunLines(ctx, "ls-files")
}

// Add stages the given paths
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	_, err := r.Run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
