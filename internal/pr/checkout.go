package pr

import (
	"fmt"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
)

// CheckoutOptions configures CheckOutPullRequestLocally
type CheckoutOptions struct {
	// AllowIfMaintainerCannotModify checks out PRs that cannot be pushed back to
	AllowIfMaintainerCannotModify bool
}

// CheckedOutPullRequest is a PR checked out on a local branch
type CheckedOutPullRequest struct {
	PR *github.PullRequest
	// LocalBranch is the branch holding the PR head
	LocalBranch string
	// PreviousRef is what was checked out before
	PreviousRef string

	ctx *runtime.Context
}

// LocalBranchName returns the local branch a PR is checked out on
func LocalBranchName(number int) string {
	return fmt.Sprintf("pr-%d", number)
}

// CheckOutPullRequestLocally fetches a PR head into a local branch and checks it out.
// The working tree is checked before any network access.
func CheckOutPullRequestLocally(ctx *runtime.Context, number int, opts CheckoutOptions) (*CheckedOutPullRequest, error) {
	dirty, err := ctx.Git.HasUncommittedChanges(ctx.Context)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ngerrors.NewUnexpectedLocalChangesError("Unable to check out the pull request: the working tree has uncommitted changes")
	}

	pr, err := ctx.GitHub.GetPullRequest(ctx.Context, number)
	if err != nil {
		return nil, ngerrors.NewPullRequestNotFoundError(number, err)
	}
	if !pr.AuthorCanModify && !opts.AllowIfMaintainerCannotModify {
		return nil, ngerrors.NewMaintainerModifyAccessError(number)
	}

	previous, err := ctx.Git.CurrentRef(ctx.Context)
	if err != nil {
		return nil, err
	}

	if err := ctx.Git.Fetch(ctx.Context, ctx.UpstreamURL(), fmt.Sprintf("refs/pull/%d/head", number)); err != nil {
		return nil, ngerrors.NewPullRequestNotFoundError(number, err)
	}
	branch := LocalBranchName(number)
	if err := ctx.Git.CheckoutNewBranch(ctx.Context, branch, "FETCH_HEAD"); err != nil {
		return nil, err
	}

	return &CheckedOutPullRequest{PR: pr, LocalBranch: branch, PreviousRef: previous, ctx: ctx}, nil
}

// PushToUpstream force-pushes the local branch back to the PR head branch
func (c *CheckedOutPullRequest) PushToUpstream() error {
	url := c.ctx.RepoURL(c.PR.HeadOwner, c.PR.HeadRepo)
	refspec := fmt.Sprintf("HEAD:refs/heads/%s", c.PR.HeadRefName)
	if err := c.ctx.Git.Push(c.ctx.Context, url, true, refspec); err != nil {
		return fmt.Errorf("failed to push to the head of #%d: %w", c.PR.Number, err)
	}
	return nil
}

// ResetGitState checks out the previous ref and deletes the local PR branch
func (c *CheckedOutPullRequest) ResetGitState() error {
	if err := c.ctx.Git.Checkout(c.ctx.Context, c.PreviousRef); err != nil {
		return fmt.Errorf("failed to restore %s: %w", c.PreviousRef, err)
	}
	return c.ctx.Git.DeleteBranch(c.ctx.Context, c.LocalBranch)
}
