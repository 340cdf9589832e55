package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RebaseAutosquash rebases HEAD onto the given revision, folding fixup!/squash!
// commits into their targets without opening an editor. A conflicting rebase is
// aborted and reported as an error.
func (r *Repo) RebaseAutosquash(ctx context.Context, onto string) error {
	env := []string{"GIT_SEQUENCE_EDITOR=true", "GIT_EDITOR=true"}
	if _, err := r.RunWithEnv(ctx, env, "rebase", "--interactive", "--autosquash", onto); err != nil {
		if r.IsRebaseInProgress() {
			_ = r.AbortRebase(ctx)
		}
		return fmt.Errorf("failed to rebase onto %s: %w", onto, err)
	}
	return nil
}

// AbortRebase aborts an in-progress rebase
func (r *Repo) AbortRebase(ctx context.Context) error {
	_, err := r.Run(ctx, "rebase", "--abort")
	return err
}

// IsRebaseInProgress checks for rebase state directories
func (r *Repo) IsRebaseInProgress() bool {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(r.root, ".git", dir)); err == nil {
			return true
		}
	}
	return false
}

// CherryPick applies a single commit on top of HEAD. On conflict the cherry-pick
// is aborted and an error returned.
func (r *Repo) CherryPick(ctx context.Context, sha string) error {
	if _, err := r.Run(ctx, "cherry-pick", "--allow-empty", sha); err != nil {
		_, _ = r.Run(ctx, "cherry-pick", "--abort")
		return fmt.Errorf("failed to cherry-pick %s: %w", sha, err)
	}
	return nil
}

// SquashMerge stages the changes of ref on top of HEAD without committing
func (r *Repo) SquashMerge(ctx context.Context, ref string) error {
	if _, err := r.Run(ctx, "merge", "--squash", "--no-commit", ref); err != nil {
		_ = r.ResetHard(ctx, "HEAD")
		return fmt.Errorf("failed to squash %s: %w", ref, err)
	}
	return nil
}

// TryMerge attempts to merge ref into HEAD without committing and reports whether it
// applied cleanly. The working tree is always restored to HEAD afterwards.
func (r *Repo) TryMerge(ctx context.Context, ref string) (bool, error) {
	_, mergeErr := r.Run(ctx, "merge", "--no-commit", "--no-ff", ref)
	// merge --abort fails when the merge was a no-op; reset covers both cases
	_, _ = r.Run(ctx, "merge", "--abort")
	if err := r.ResetHard(ctx, "HEAD"); err != nil {
		return false, err
	}
	return mergeErr == nil, nil
}
