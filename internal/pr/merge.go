package pr

import (
	"fmt"
	"slices"
	"strings"

	"ngdev.dev/ngdev/internal/commit"
	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/release"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

// MergeOptions configures Merge
type MergeOptions struct {
	Validation PullRequestValidationConfig
	// ForceIgnore continues past ignorable validation failures without asking
	ForceIgnore bool
}

// MergeResult reports where a merge landed
type MergeResult struct {
	Number    int
	Targets   []string
	Succeeded []string
	Failed    []string
}

// Merge lands a pull request on every branch its target label resolves to.
// Branches pushed before a failure stay merged. The local checkout is restored
// on every path once it has been touched.
func Merge(ctx *runtime.Context, number int, opts MergeOptions) (*MergeResult, error) {
	splog := ctx.Splog

	// 1. Fetch PR metadata
	pr, err := ctx.GitHub.GetPullRequest(ctx.Context, number)
	if err != nil {
		return nil, ngerrors.NewPullRequestNotFoundError(number, err)
	}
	commits, err := fetchCommits(ctx, number)
	if err != nil {
		return nil, err
	}

	// 2. Validate
	failures := RunValidations(ValidationInput{PR: pr, Commits: commits, Config: ctx.Config.PullRequest}, opts.Validation)
	if err := handleFailures(ctx, failures, opts.ForceIgnore); err != nil {
		return nil, err
	}

	// 3. Determine targets; commit types were checked by the validations above
	targets, err := TargetBranches(ctx, pr)
	if err != nil {
		return nil, err
	}
	splog.Info("Merging #%d into %s", number, tui.ColorCyan(strings.Join(targets, ", ")))

	strategy, err := strategyFor(ctx, pr)
	if err != nil {
		return nil, err
	}

	// 4. Check out locally
	dirty, err := ctx.Git.HasUncommittedChanges(ctx.Context)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ngerrors.NewUnexpectedLocalChangesError("Unable to merge: the working tree has uncommitted changes")
	}
	previous, err := ctx.Git.CurrentRef(ctx.Context)
	if err != nil {
		return nil, err
	}

	// The base is fetched even when it is not a target; strategies build on it.
	branches := targets
	if !slices.Contains(branches, pr.BaseRefName) {
		branches = append([]string{pr.BaseRefName}, targets...)
	}

	// 7. Restore, whatever happens from here on
	defer restoreAfterMerge(ctx, previous, branches)

	upstream := ctx.UpstreamURL()
	if err := ctx.Git.Fetch(ctx.Context, upstream, fmt.Sprintf("+refs/pull/%d/head:refs/heads/%s", number, prHeadBranch)); err != nil {
		return nil, ngerrors.NewPullRequestNotFoundError(number, err)
	}
	refspecs := make([]string, 0, len(branches))
	for _, branch := range branches {
		refspecs = append(refspecs, fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, localTargetBranch(branch)))
	}
	if err := ctx.Git.Fetch(ctx.Context, upstream, refspecs...); err != nil {
		return nil, fmt.Errorf("failed to fetch target branches: %w", err)
	}

	// 5. Apply the merge strategy
	if err := strategy.apply(ctx, pr, targets); err != nil {
		requestAssistance(ctx, pr)
		return nil, err
	}

	// 6. Push every target on its own so one rejection does not block the rest
	result := &MergeResult{Number: number, Targets: targets}
	var firstErr error
	for _, target := range targets {
		refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", localTargetBranch(target), target)
		if err := ctx.Git.Push(ctx.Context, upstream, false, refspec); err != nil {
			splog.Error("Failed to push to %s", target)
			splog.Debug("%v", err)
			result.Failed = append(result.Failed, target)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		splog.Success("Pushed to %s", target)
		result.Succeeded = append(result.Succeeded, target)
	}
	if len(result.Failed) > 0 {
		requestAssistance(ctx, pr)
		return result, ngerrors.NewMergeConflictsError(result.Succeeded, result.Failed, firstErr)
	}

	if err := closeMergedPullRequest(ctx, pr, targets); err != nil {
		splog.Warn("Merged #%d but could not close it: %v", number, err)
	}
	return result, nil
}

func fetchCommits(ctx *runtime.Context, number int) ([]*commit.Commit, error) {
	raw, err := ctx.GitHub.ListPullRequestCommits(ctx.Context, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits of #%d: %w", number, err)
	}
	commits := make([]*commit.Commit, 0, len(raw))
	for _, c := range raw {
		parsed := commit.Parse(c.Message)
		parsed.SHA = c.SHA
		commits = append(commits, parsed)
	}
	return commits, nil
}

// handleFailures aborts on the first non-ignorable failure. Ignorable failures
// are reported and then either force-ignored or confirmed by the operator.
func handleFailures(ctx *runtime.Context, failures []*ValidationFailure, forceIgnore bool) error {
	if len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		if !f.Ignorable {
			return f
		}
	}

	ctx.Splog.Warn("Pull request did not pass validation:")
	for _, f := range failures {
		ctx.Splog.Warn("  - %s", f.Message)
	}
	if forceIgnore {
		ctx.Splog.Warn("Ignoring validation failures as requested")
		return nil
	}
	ok, err := ctx.Prompter.Confirm("Do you want to forcibly ignore these failures?", false)
	if err != nil || !ok {
		return failures[0]
	}
	return nil
}

// TargetBranches resolves the branches a PR lands on from its target label. It
// does not look at commit types; Merge leaves that to the
// changes-allow-for-target-label validation.
func TargetBranches(ctx *runtime.Context, pr *github.PullRequest) ([]string, error) {
	label, err := GetTargetLabel(pr.Labels)
	if err != nil {
		return nil, err
	}
	trains, err := release.FetchActiveReleaseTrains(ctx.Context, ctx.GitHub, ctx.Config.GitHub.MainBranchName)
	if err != nil {
		return nil, err
	}
	tc := TargetingContext{Trains: trains, GitHubTargetBranch: pr.BaseRefName}

	if label == TargetLTS {
		pkg := ctx.Config.Release.RepresentativePackage()
		if pkg != "" && ctx.Npm != nil {
			lts, err := release.LtsBranches(ctx.Context, ctx.GitHub, ctx.Npm, pkg)
			if err != nil {
				return nil, err
			}
			for _, b := range lts {
				if b.Version.LessThan(trains.Latest.Version) {
					tc.LtsBranches = append(tc.LtsBranches, b.Name)
				}
			}
			if ctx.Config.PullRequest.AssertLtsActive {
				tc.LtsCheck = func(branch string) error {
					return release.AssertActiveLtsBranch(ctx.Context, ctx.Npm, pkg, branch, ctx.Now())
				}
			}
		}
	}
	return ResolveTargetBranches(label, tc, ctx.Prompter)
}

// restoreAfterMerge drops anything a failed strategy left staged, returns to
// previous and deletes the temporary branches. Every step runs even when an
// earlier one fails.
func restoreAfterMerge(ctx *runtime.Context, previous string, branches []string) {
	if err := ctx.Git.ResetHard(ctx.Context, "HEAD"); err != nil {
		ctx.Splog.Warn("Could not discard merge changes: %v", err)
	}
	if err := ctx.Git.Checkout(ctx.Context, previous); err != nil {
		ctx.Splog.Warn("Could not restore %s: %v", previous, err)
	}
	local := []string{prHeadBranch}
	for _, b := range branches {
		local = append(local, localTargetBranch(b))
	}
	for _, b := range local {
		if err := ctx.Git.DeleteBranch(ctx.Context, b); err != nil {
			ctx.Splog.Debug("Could not delete %s: %v", b, err)
		}
	}
}

// requestAssistance swaps the merge ready label for the caretaker note label so
// the PR is not picked up again until a caretaker has looked at it.
func requestAssistance(ctx *runtime.Context, pr *github.PullRequest) {
	cfg := ctx.Config.PullRequest
	if cfg.CaretakerNoteLabel != "" && !pr.HasLabel(cfg.CaretakerNoteLabel) {
		if err := ctx.GitHub.AddLabels(ctx.Context, pr.Number, cfg.CaretakerNoteLabel); err != nil {
			ctx.Splog.Warn("Could not add %q to #%d: %v", cfg.CaretakerNoteLabel, pr.Number, err)
		}
	}
	if cfg.MergeReadyLabel != "" && pr.HasLabel(cfg.MergeReadyLabel) {
		if err := ctx.GitHub.RemoveLabel(ctx.Context, pr.Number, cfg.MergeReadyLabel); err != nil {
			ctx.Splog.Warn("Could not remove %q from #%d: %v", cfg.MergeReadyLabel, pr.Number, err)
		}
	}
}

func closeMergedPullRequest(ctx *runtime.Context, pr *github.PullRequest, targets []string) error {
	body := fmt.Sprintf("%s The changes were merged into the following branches: %s", github.MergedCommentPrefix, strings.Join(targets, ", "))
	if err := ctx.GitHub.CreateComment(ctx.Context, pr.Number, body); err != nil {
		return err
	}
	return ctx.GitHub.ClosePullRequest(ctx.Context, pr.Number)
}
