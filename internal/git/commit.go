package git

import (
	"context"
	"fmt"
)

// Commit records a commit with the given message. When paths are given only
// those paths are committed.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) error {
	args := []string{"commit", "-q", "--no-verify", "-m", message}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	if _, err := r.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// AmendMessage replaces the message of the HEAD commit
func (r *Repo) AmendMessage(ctx context.Context, message string) error {
	if _, err := r.Run(ctx, "commit", "-q", "--amend", "--no-verify", "--allow-empty", "-m", message); err != nil {
		return fmt.Errorf("failed to amend commit message: %w", err)
	}
	return nil
}

// CommitMessage returns the full message of a commit
func (r *Repo) CommitMessage(ctx context.Context, rev string) (string, error) {
	return r.Run(ctx, "log", "-1", "--format=%B", rev)
}
