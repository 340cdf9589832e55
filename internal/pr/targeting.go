package pr

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"ngdev.dev/ngdev/internal/commit"
	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/release"
	"ngdev.dev/ngdev/internal/tui"
)

// TargetLabel is a PR label naming which branches the change lands on
type TargetLabel string

const (
	TargetMajor      TargetLabel = "target: major"
	TargetMinor      TargetLabel = "target: minor"
	TargetPatch      TargetLabel = "target: patch"
	TargetRC         TargetLabel = "target: rc"
	TargetLTS        TargetLabel = "target: lts"
	TargetFeature    TargetLabel = "target: feature"
	TargetAutomation TargetLabel = "target: automation"
)

// TargetLabels lists every known target label
var TargetLabels = []TargetLabel{
	TargetMajor, TargetMinor, TargetPatch, TargetRC, TargetLTS, TargetFeature, TargetAutomation,
}

// Short returns the label without its "target: " prefix
func (l TargetLabel) Short() string {
	return strings.TrimPrefix(string(l), "target: ")
}

// MatchesPattern reports whether value matches pattern, which is either a
// string compared for equality or a *regexp.Regexp.
func MatchesPattern(value string, pattern any) bool {
	switch p := pattern.(type) {
	case string:
		return value == p
	case *regexp.Regexp:
		return p.MatchString(value)
	default:
		return false
	}
}

// GetTargetLabel returns the single target label among labels
func GetTargetLabel(labels []string) (TargetLabel, error) {
	var matches []TargetLabel
	for _, label := range labels {
		for _, target := range TargetLabels {
			if MatchesPattern(label, string(target)) {
				matches = append(matches, target)
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", ngerrors.NewPullRequestFailure("Unable to determine target for the pull request: no target label is applied")
	case 1:
		return matches[0], nil
	default:
		return "", ngerrors.NewPullRequestFailure("Unable to determine target for the pull request: multiple target labels are applied (%v)", matches)
	}
}

// TargetingContext holds what branch resolution needs to know about the repository
type TargetingContext struct {
	Trains *release.ActiveReleaseTrains
	// GitHubTargetBranch is the PR's base branch on GitHub
	GitHubTargetBranch string
	// LtsBranches are the version branches still in long-term support, newest first
	LtsBranches []string
	// LtsCheck verifies a branch is within its LTS window; nil skips the check
	LtsCheck func(branch string) error
}

// AmbiguousTargetError is returned when more than one branch could be meant
type AmbiguousTargetError struct {
	Label      TargetLabel
	Candidates []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("%q matches more than one branch: %s", e.Label, strings.Join(e.Candidates, ", "))
}

// GetBranchesForLabel returns the branches a PR with label should land on
func GetBranchesForLabel(label TargetLabel, tc TargetingContext) ([]string, error) {
	trains := tc.Trains
	base := tc.GitHubTargetBranch
	next := trains.Next.BranchName
	latest := trains.Latest.BranchName

	switch label {
	case TargetMajor:
		if !trains.Next.IsMajor {
			return nil, ngerrors.NewPullRequestFailure("Unable to merge pull request. The %q branch will be released as a minor version.", next)
		}
		return []string{next}, nil

	case TargetMinor:
		return []string{next}, nil

	case TargetPatch:
		if base == latest {
			return []string{latest}, nil
		}
		branches := []string{next, latest}
		if trains.ReleaseCandidate != nil {
			branches = append(branches, trains.ReleaseCandidate.BranchName)
		}
		return branches, nil

	case TargetRC:
		if trains.ReleaseCandidate == nil {
			return nil, ngerrors.NewPullRequestFailure("No active feature-freeze/release-candidate branch. Unable to merge pull request using %q label.", label)
		}
		rc := trains.ReleaseCandidate.BranchName
		if base == rc {
			return []string{rc}, nil
		}
		return []string{next, rc}, nil

	case TargetLTS:
		target := base
		if !release.IsVersionBranch(base) {
			switch len(tc.LtsBranches) {
			case 0:
				return nil, ngerrors.NewPullRequestFailure("PR cannot be merged using %q as no long-term support branch is active.", label)
			case 1:
				target = tc.LtsBranches[0]
			default:
				return nil, &AmbiguousTargetError{Label: label, Candidates: tc.LtsBranches}
			}
		}
		if target == latest || (trains.ReleaseCandidate != nil && target == trains.ReleaseCandidate.BranchName) {
			return nil, ngerrors.NewPullRequestFailure("PR cannot be merged using %q as %s is an active release train.", label, target)
		}
		if v, err := release.GetVersionForVersionBranch(target); err == nil && !v.LessThan(trains.Latest.Version) {
			return nil, ngerrors.NewPullRequestFailure("PR cannot be merged using %q as %s is not older than the latest release train.", label, target)
		}
		if tc.LtsCheck != nil {
			if err := tc.LtsCheck(target); err != nil {
				return nil, ngerrors.NewPullRequestFailure("PR cannot be merged into %s: %v", target, err)
			}
		}
		return []string{target}, nil

	case TargetFeature:
		if base == next || release.IsVersionBranch(base) {
			return nil, ngerrors.NewPullRequestFailure("%q PRs must target a feature branch, not %s.", label, base)
		}
		return []string{base}, nil

	case TargetAutomation:
		return []string{base}, nil
	}
	return nil, ngerrors.NewPullRequestFailure("unknown target label %q", label)
}

// ResolveTargetBranches resolves branches for label, asking the operator to pick
// when the label is ambiguous. Without a terminal the ambiguity is a failure.
func ResolveTargetBranches(label TargetLabel, tc TargetingContext, prompter tui.Prompter) ([]string, error) {
	branches, err := GetBranchesForLabel(label, tc)
	var ambiguous *AmbiguousTargetError
	if !errors.As(err, &ambiguous) {
		return branches, err
	}
	choice, perr := prompter.Select(fmt.Sprintf("Which branch should the %q pull request land on?", label), ambiguous.Candidates)
	if perr != nil {
		return nil, ngerrors.NewPullRequestFailure("%v; pass the branch as the PR base to disambiguate", ambiguous)
	}
	tc.GitHubTargetBranch = choice
	return GetBranchesForLabel(label, tc)
}

// AssertChangesAllowForTargetLabel checks that the commits of a PR are allowed
// on the branches its label targets. Commits in exempt scopes are not checked.
func AssertChangesAllowForTargetLabel(commits []*commit.Commit, label TargetLabel, exemptScopes []string) error {
	for _, c := range commits {
		if slices.Contains(exemptScopes, c.FullScope()) {
			continue
		}
		switch label {
		case TargetMajor, TargetFeature, TargetAutomation:
			continue
		case TargetMinor:
			if c.IsBreaking() {
				return ngerrors.NewPullRequestFailure("breaking change not allowed in %s target", label.Short())
			}
		case TargetPatch, TargetRC, TargetLTS:
			if c.IsBreaking() {
				return ngerrors.NewPullRequestFailure("breaking change not allowed in %s target", label.Short())
			}
			if c.Type == "feat" {
				return ngerrors.NewPullRequestFailure("feature commit not allowed in %s target", label.Short())
			}
			if len(c.Deprecations) > 0 {
				return ngerrors.NewPullRequestFailure("deprecation not allowed in %s target", label.Short())
			}
		}
	}
	return nil
}
