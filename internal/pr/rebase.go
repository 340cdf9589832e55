package pr

import (
	"fmt"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/runtime"
)

// RebasePR rebases a pull request onto the latest upstream state of its base
// branch, folding fixup commits, and force-pushes the result to the PR head.
func RebasePR(ctx *runtime.Context, number int) error {
	checkedOut, err := CheckOutPullRequestLocally(ctx, number, CheckoutOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := checkedOut.ResetGitState(); err != nil {
			ctx.Splog.Warn("%v", err)
		}
	}()

	base := checkedOut.PR.BaseRefName
	ctx.Splog.Info("Rebasing #%d onto %s", number, base)
	if err := ctx.Git.Fetch(ctx.Context, ctx.UpstreamURL(), "refs/heads/"+base); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", base, err)
	}
	if err := ctx.Git.RebaseAutosquash(ctx.Context, "FETCH_HEAD"); err != nil {
		ctx.Splog.Debug("%v", err)
		return ngerrors.NewPullRequestFailure("Pull request #%d cannot be rebased onto %s automatically; the rebase has conflicts that must be resolved locally.", number, base)
	}
	if err := checkedOut.PushToUpstream(); err != nil {
		return err
	}
	ctx.Splog.Success("Rebased #%d onto %s", number, base)
	return nil
}
