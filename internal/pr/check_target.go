package pr

import (
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
)

// TargetReport is what check-target-branches prints
type TargetReport struct {
	PR       *github.PullRequest
	Label    TargetLabel
	Branches []string
}

// CheckTargetBranches resolves the target label and branches of a PR without
// touching the local repository.
func CheckTargetBranches(ctx *runtime.Context, number int) (*TargetReport, error) {
	pr, err := ctx.GitHub.GetPullRequest(ctx.Context, number)
	if err != nil {
		return nil, err
	}
	label, err := GetTargetLabel(pr.Labels)
	if err != nil {
		return nil, err
	}
	commits, err := fetchCommits(ctx, number)
	if err != nil {
		return nil, err
	}
	// Always enforced here. Merge runs the same check as a validation so it can
	// be disabled or force-ignored.
	if err := AssertChangesAllowForTargetLabel(commits, label, ctx.Config.PullRequest.TargetLabelExemptScopes); err != nil {
		return nil, err
	}
	branches, err := TargetBranches(ctx, pr)
	if err != nil {
		return nil, err
	}
	return &TargetReport{PR: pr, Label: label, Branches: branches}, nil
}
