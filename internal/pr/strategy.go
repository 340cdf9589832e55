package pr

import (
	"fmt"
	"strings"

	"ngdev.dev/ngdev/internal/commit"
	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
)

const (
	prHeadBranch       = "ng-dev-merge-pr-head"
	targetBranchPrefix = "ng-dev-merge-target-"
)

// localTargetBranch is the temporary branch a target's result is built on
func localTargetBranch(target string) string {
	return targetBranchPrefix + target
}

// withCloseTrailer appends the "PR Close #n" trailer unless the message has it
func withCloseTrailer(message string, number int) string {
	message = strings.TrimRight(message, "\n")
	if github.HasCloseTrailer(message, number) {
		return message
	}
	return message + "\n\n" + github.CloseTrailer(number)
}

// mergeStrategy builds one result commit chain per target on localTargetBranch(target).
// The PR head is available on prHeadBranch and every target on its local branch.
type mergeStrategy interface {
	apply(ctx *runtime.Context, pr *github.PullRequest, targets []string) error
}

// strategyFor picks the strategy for a PR. A PR carrying the commit message
// fixup label needs its message rewritten, which only squashing can do.
func strategyFor(ctx *runtime.Context, pr *github.PullRequest) (mergeStrategy, error) {
	fixupLabel := ctx.Config.PullRequest.CommitMessageFixupLabel
	fixup := fixupLabel != "" && pr.HasLabel(fixupLabel)

	switch name := ctx.Config.PullRequest.MergeStrategy; name {
	case "", "rebase":
		if fixup {
			return nil, ngerrors.NewPullRequestFailure(
				"Pull request #%d has the %q label but the rebase strategy keeps commit messages as they are. "+
					"Fix up the commit messages on the pull request and remove the label.", pr.Number, fixupLabel)
		}
		return rebaseStrategy{}, nil
	case "squash":
		return squashStrategy{editMessage: fixup}, nil
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", name)
	}
}

// rebaseStrategy rebases the PR onto its base with autosquash, then replays the
// rebased commits onto every target, each with a close trailer.
type rebaseStrategy struct{}

func (rebaseStrategy) apply(ctx *runtime.Context, pr *github.PullRequest, targets []string) error {
	g := ctx.Git
	base := localTargetBranch(pr.BaseRefName)

	if err := g.Checkout(ctx.Context, prHeadBranch); err != nil {
		return err
	}
	if err := g.RebaseAutosquash(ctx.Context, base); err != nil {
		return fmt.Errorf("pull request #%d does not rebase cleanly onto %s: %w", pr.Number, pr.BaseRefName, err)
	}
	commits, err := g.CommitsInRange(ctx.Context, base, prHeadBranch)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		return fmt.Errorf("pull request #%d has no commits to merge", pr.Number)
	}

	for _, target := range targets {
		if err := g.Checkout(ctx.Context, localTargetBranch(target)); err != nil {
			return err
		}
		for _, c := range commits {
			if err := g.CherryPick(ctx.Context, c.SHA); err != nil {
				return fmt.Errorf("pull request #%d does not apply cleanly to %s: %w", pr.Number, target, err)
			}
			if err := g.AmendMessage(ctx.Context, withCloseTrailer(c.Message, pr.Number)); err != nil {
				return err
			}
		}
	}
	return nil
}

// squashStrategy squashes the PR into one commit on its base and cherry-picks
// that commit onto the other targets.
type squashStrategy struct {
	// editMessage lets the caretaker rewrite the squash commit message
	editMessage bool
}

func (s squashStrategy) apply(ctx *runtime.Context, pr *github.PullRequest, targets []string) error {
	g := ctx.Git
	message := squashMessage(pr)
	if s.editMessage {
		edited, err := ctx.Prompter.Input(fmt.Sprintf("Fix up the commit message for #%d:", pr.Number), message)
		if err != nil {
			return err
		}
		message = withCloseTrailer(edited, pr.Number)
	}

	if err := g.Checkout(ctx.Context, localTargetBranch(pr.BaseRefName)); err != nil {
		return err
	}
	if err := g.SquashMerge(ctx.Context, prHeadBranch); err != nil {
		return fmt.Errorf("pull request #%d does not apply cleanly to %s: %w", pr.Number, pr.BaseRefName, err)
	}
	if err := g.Commit(ctx.Context, message); err != nil {
		return err
	}
	sha, err := g.RevParse(ctx.Context, "HEAD")
	if err != nil {
		return err
	}

	for _, target := range targets {
		if target == pr.BaseRefName {
			continue
		}
		if err := g.Checkout(ctx.Context, localTargetBranch(target)); err != nil {
			return err
		}
		if err := g.CherryPick(ctx.Context, sha); err != nil {
			return fmt.Errorf("pull request #%d does not apply cleanly to %s: %w", pr.Number, target, err)
		}
	}
	return nil
}

// squashMessage builds "<title> (#n)" followed by the PR body and the close trailer
func squashMessage(pr *github.PullRequest) string {
	header := pr.Title
	if parsed := commit.Parse(pr.Title); parsed.FormattedHeader() != "" {
		header = parsed.FormattedHeader()
	}
	message := fmt.Sprintf("%s (#%d)", header, pr.Number)
	if body := strings.TrimSpace(pr.Body); body != "" {
		message += "\n\n" + body
	}
	return withCloseTrailer(message, pr.Number)
}
