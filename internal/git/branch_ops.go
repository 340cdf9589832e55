package git

import (
	"context"
	"fmt"
)

// CurrentRef returns the checked out branch, or the HEAD SHA when detached
func (r *Repo) CurrentRef(ctx context.Context) (string, error) {
	branch, err := r.Run(ctx, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to determine current branch: %w", err)
	}
	if branch != "" {
		return branch, nil
	}
	return r.RevParse(ctx, "HEAD")
}

// RevParse resolves a revision to a full SHA
func (r *Repo) RevParse(ctx context.Context, rev string) (string, error) {
	sha, err := r.Run(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return sha, nil
}

// Checkout checks out a branch or revision
func (r *Repo) Checkout(ctx context.Context, ref string) error {
	if _, err := r.Run(ctx, "checkout", "-q", ref); err != nil {
		return fmt.Errorf("failed to check out %s: %w", ref, err)
	}
	return nil
}

// CheckoutNewBranch creates (or resets) a local branch at startPoint and checks it out
func (r *Repo) CheckoutNewBranch(ctx context.Context, name, startPoint string) error {
	if _, err := r.Run(ctx, "checkout", "-q", "-B", name, startPoint); err != nil {
		return fmt.Errorf("failed to create branch %s at %s: %w", name, startPoint, err)
	}
	return nil
}

// DeleteBranch force-deletes a local branch
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	_, err := r.Run(ctx, "branch", "-D", name)
	return err
}

// ResetHard resets the index and working tree to ref
func (r *Repo) ResetHard(ctx context.Context, ref string) error {
	if _, err := r.Run(ctx, "reset", "-q", "--hard", ref); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", ref, err)
	}
	return nil
}

// CreateTag creates an annotated tag pointing at sha
func (r *Repo) CreateTag(ctx context.Context, name, sha, message string) error {
	if _, err := r.Run(ctx, "tag", "-a", name, sha, "-m", message); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}
