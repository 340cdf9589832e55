package pr

import (
	"fmt"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/runtime"
)

const (
	conflictsBaseBranch = "ng-dev-conflicts-base"
	conflictsPRBranch   = "ng-dev-conflicts-pr"
)

// DiscoverNewConflicts applies a pull request locally on top of its base and
// returns the open PRs on that base which merged cleanly before but conflict
// once it lands.
func DiscoverNewConflicts(ctx *runtime.Context, number int) ([]int, error) {
	g := ctx.Git
	dirty, err := g.HasUncommittedChanges(ctx.Context)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ngerrors.NewUnexpectedLocalChangesError("Unable to discover conflicts: the working tree has uncommitted changes")
	}

	pr, err := ctx.GitHub.GetPullRequest(ctx.Context, number)
	if err != nil {
		return nil, ngerrors.NewPullRequestNotFoundError(number, err)
	}
	open, err := ctx.GitHub.ListOpenPullRequests(ctx.Context, pr.BaseRefName)
	if err != nil {
		return nil, fmt.Errorf("failed to list open pull requests: %w", err)
	}

	previous, err := g.CurrentRef(ctx.Context)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := g.Checkout(ctx.Context, previous); err != nil {
			ctx.Splog.Warn("Could not restore %s: %v", previous, err)
			return
		}
		_ = g.DeleteBranch(ctx.Context, conflictsBaseBranch)
		_ = g.DeleteBranch(ctx.Context, conflictsPRBranch)
	}()

	upstream := ctx.UpstreamURL()
	if err := g.Fetch(ctx.Context, upstream,
		fmt.Sprintf("+refs/heads/%s:refs/heads/%s", pr.BaseRefName, conflictsBaseBranch),
		fmt.Sprintf("+refs/pull/%d/head:refs/heads/%s", number, conflictsPRBranch),
	); err != nil {
		return nil, ngerrors.NewPullRequestNotFoundError(number, err)
	}
	if err := g.Checkout(ctx.Context, conflictsBaseBranch); err != nil {
		return nil, err
	}
	if err := g.SquashMerge(ctx.Context, conflictsPRBranch); err != nil {
		return nil, ngerrors.NewPullRequestFailure("Pull request #%d itself does not merge cleanly into %s", number, pr.BaseRefName)
	}
	if err := g.Commit(ctx.Context, fmt.Sprintf("Temporary merge of #%d", number)); err != nil {
		return nil, err
	}

	var conflicting []int
	for _, other := range open {
		if other.Number == number || other.Mergeable == "CONFLICTING" {
			continue
		}
		branch := fmt.Sprintf("ng-dev-conflicts-%d", other.Number)
		if err := g.Fetch(ctx.Context, upstream, fmt.Sprintf("+refs/pull/%d/head:refs/heads/%s", other.Number, branch)); err != nil {
			ctx.Splog.Warn("Skipping #%d: %v", other.Number, err)
			continue
		}
		clean, err := g.TryMerge(ctx.Context, branch)
		_ = g.DeleteBranch(ctx.Context, branch)
		if err != nil {
			return nil, err
		}
		if !clean {
			conflicting = append(conflicting, other.Number)
		}
	}
	return conflicting, nil
}

// PrintConflicts reports the result of DiscoverNewConflicts
func PrintConflicts(ctx *runtime.Context, number int, conflicting []int) {
	if len(conflicting) == 0 {
		ctx.Splog.Success("No new conflicts: #%d merges cleanly with every other open pull request", number)
		return
	}
	ctx.Splog.Warn("%d pull request(s) conflict once #%d is merged:", len(conflicting), number)
	for _, n := range conflicting {
		ctx.Splog.Info("  - #%d", n)
	}
}
