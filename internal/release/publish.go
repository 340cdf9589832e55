package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Masterminds/semver/v3"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

// Publish polling defaults, overridden by release.publishPollInterval and
// release.publishMaxPollAttempts
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultMaxPollAttempts = 360
)

// ErrPollTimeout is returned when a staged release PR is not merged in time
var ErrPollTimeout = errors.New("timed out waiting for the release pull request to be merged")

// ErrStagingPullRequestClosed is returned when a staged release PR is closed without landing
var ErrStagingPullRequestClosed = errors.New("the release pull request was closed without being merged")

// releasePlan is what an action decided to release
type releasePlan struct {
	// Branch is where the release is staged and published from
	Branch string
	// Previous is the version currently on Branch; release notes start at its tag
	Previous *semver.Version
	Version  *semver.Version
	DistTag  string
	// LtsTag, when set, points LtsVersion at the previous major's LTS dist-tag
	LtsTag     string
	LtsVersion *semver.Version
}

// ReleaseAction is one kind of release the operator can cut
type ReleaseAction struct {
	Name string
	// Description is shown in the action prompt
	Description func(trains *ActiveReleaseTrains) string
	IsActive    func(trains *ActiveReleaseTrains) bool
	plan        func(ctx *runtime.Context, trains *ActiveReleaseTrains) (*releasePlan, error)
}

// ReleaseActions lists every release action in prompt order
var ReleaseActions = []ReleaseAction{
	{
		Name: "cut-new-patch",
		Description: func(t *ActiveReleaseTrains) string {
			v, _ := SemverInc(t.Latest.Version, Patch, "")
			return fmt.Sprintf("Cut a new patch release for the %q branch (v%s).", t.Latest.BranchName, v)
		},
		IsActive: func(*ActiveReleaseTrains) bool { return true },
		plan: func(_ *runtime.Context, t *ActiveReleaseTrains) (*releasePlan, error) {
			v, err := SemverInc(t.Latest.Version, Patch, "")
			if err != nil {
				return nil, err
			}
			return &releasePlan{Branch: t.Latest.BranchName, Previous: t.Latest.Version, Version: v, DistTag: "latest"}, nil
		},
	},
	{
		Name: "cut-next-prerelease",
		Description: func(t *ActiveReleaseTrains) string {
			return fmt.Sprintf("Cut a new next pre-release for the %q branch.", nextPrereleaseTrain(t).BranchName)
		},
		IsActive: func(*ActiveReleaseTrains) bool { return true },
		plan: func(ctx *runtime.Context, t *ActiveReleaseTrains) (*releasePlan, error) {
			train := nextPrereleaseTrain(t)
			v, err := nextPrereleaseVersion(ctx, train.Version)
			if err != nil {
				return nil, err
			}
			return &releasePlan{Branch: train.BranchName, Previous: train.Version, Version: v, DistTag: "next"}, nil
		},
	},
	{
		Name: "cut-release-candidate",
		Description: func(t *ActiveReleaseTrains) string {
			return fmt.Sprintf("Cut a first release-candidate for the feature-freeze branch %q.", t.ReleaseCandidate.BranchName)
		},
		IsActive: func(t *ActiveReleaseTrains) bool {
			return t.ReleaseCandidate != nil && IsFeatureFreeze(t.ReleaseCandidate.Version)
		},
		plan: func(_ *runtime.Context, t *ActiveReleaseTrains) (*releasePlan, error) {
			rc := t.ReleaseCandidate
			v, err := SemverInc(rc.Version, Prerelease, "rc")
			if err != nil {
				return nil, err
			}
			return &releasePlan{Branch: rc.BranchName, Previous: rc.Version, Version: v, DistTag: "next"}, nil
		},
	},
	{
		Name: "cut-stable",
		Description: func(t *ActiveReleaseTrains) string {
			v, _ := SemverInc(t.ReleaseCandidate.Version, Patch, "")
			return fmt.Sprintf("Cut a stable release for the release-candidate branch %q (v%s).", t.ReleaseCandidate.BranchName, v)
		},
		IsActive: func(t *ActiveReleaseTrains) bool {
			return t.ReleaseCandidate != nil && IsReleaseCandidate(t.ReleaseCandidate.Version)
		},
		plan: func(_ *runtime.Context, t *ActiveReleaseTrains) (*releasePlan, error) {
			rc := t.ReleaseCandidate
			v, err := SemverInc(rc.Version, Patch, "")
			if err != nil {
				return nil, err
			}
			plan := &releasePlan{Branch: rc.BranchName, Previous: rc.Version, Version: v, DistTag: "latest"}
			if v.Major() > t.Latest.Version.Major() {
				plan.LtsTag = LtsDistTag(t.Latest.Version.Major())
				plan.LtsVersion = t.Latest.Version
			}
			return plan, nil
		},
	},
}

// nextPrereleaseTrain is the feature-freeze train if there is one, otherwise next
func nextPrereleaseTrain(t *ActiveReleaseTrains) *ReleaseTrain {
	if t.ReleaseCandidate != nil && IsFeatureFreeze(t.ReleaseCandidate.Version) {
		return t.ReleaseCandidate
	}
	return t.Next
}

// nextPrereleaseVersion releases the branch version as is when it has never been
// published, otherwise bumps its prerelease number.
func nextPrereleaseVersion(ctx *runtime.Context, current *semver.Version) (*semver.Version, error) {
	if current.Prerelease() == "" {
		return SemverInc(current, PreMinor, "next")
	}
	pkg := ctx.Config.Release.RepresentativePackage()
	if pkg != "" {
		info, err := ctx.Npm.PackageInfo(ctx.Context, pkg)
		if err != nil {
			return nil, err
		}
		if !info.HasVersion(current.String()) {
			return current, nil
		}
	}
	return SemverInc(current, Prerelease, "next")
}

// ActiveActions returns the actions available for trains
func ActiveActions(trains *ActiveReleaseTrains) []ReleaseAction {
	var out []ReleaseAction
	for _, a := range ReleaseActions {
		if a.IsActive(trains) {
			out = append(out, a)
		}
	}
	return out
}

// PublishOptions configures Publish
type PublishOptions struct {
	// Action selects a release action by name instead of prompting
	Action string
}

// PublishResult reports a finished release
type PublishResult struct {
	Action     string
	Version    string
	Branch     string
	PR         int
	ReleaseURL string
	Packages   []BuiltPackageWithInfo
}

// Publish runs a release: pick an action, stage the version bump as a pull
// request, wait for it to be merged, then build, publish, tag and announce.
func Publish(ctx *runtime.Context, opts PublishOptions) (*PublishResult, error) {
	splog := ctx.Splog

	dirty, err := ctx.Git.HasUncommittedChanges(ctx.Context)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ngerrors.NewUnexpectedLocalChangesError("Unable to release: the working tree has uncommitted changes")
	}
	loggedIn, err := ctx.Npm.CheckIsLoggedIn(ctx.Context)
	if err != nil {
		return nil, err
	}
	if !loggedIn {
		return nil, fmt.Errorf("not logged in to %s; run `npm login` first", ctx.Config.Release.NpmRegistry)
	}

	trains, err := FetchActiveReleaseTrains(ctx.Context, ctx.GitHub, ctx.Config.GitHub.MainBranchName)
	if err != nil {
		return nil, err
	}
	action, err := selectAction(ctx, trains, opts.Action)
	if err != nil {
		return nil, err
	}
	plan, err := action.plan(ctx, trains)
	if err != nil {
		return nil, err
	}

	ok, err := ctx.Prompter.Confirm(fmt.Sprintf("Release v%s from %s with the %q dist-tag?", plan.Version, plan.Branch, plan.DistTag), true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ngerrors.ErrUserAborted
	}

	previous, err := ctx.Git.CurrentRef(ctx.Context)
	if err != nil {
		return nil, err
	}
	defer restoreAfterPublish(ctx, previous, StagingBranch(plan.Version), PublishBranch(plan.Version))

	notes, pr, err := stageRelease(ctx, plan)
	if err != nil {
		return nil, err
	}
	if err := WaitForPullRequestMerged(ctx, pr); err != nil {
		return nil, err
	}

	sha, err := checkoutPublishBranch(ctx, plan)
	if err != nil {
		return nil, err
	}
	built, err := BuildPackages(ctx)
	if err != nil {
		return nil, err
	}
	if err := publishPackages(ctx, plan, built); err != nil {
		return nil, err
	}

	tag := plan.Version.String()
	if err := ctx.Git.CreateTag(ctx.Context, tag, sha, "v"+tag); err != nil {
		return nil, err
	}
	if err := ctx.Git.Push(ctx.Context, ctx.UpstreamURL(), false, fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)); err != nil {
		return nil, fmt.Errorf("failed to push tag %s: %w", tag, err)
	}
	releaseURL, err := ctx.GitHub.CreateRelease(ctx.Context, github.ReleaseOptions{
		TagName:    tag,
		TargetSHA:  sha,
		Name:       "v" + tag,
		Body:       notes,
		Prerelease: plan.Version.Prerelease() != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create the GitHub release: %w", err)
	}

	if plan.LtsTag != "" {
		if err := SetDistTag(ctx, SetDistTagOptions{Tag: plan.LtsTag, Version: plan.LtsVersion.String(), SkipExperimental: true}); err != nil {
			return nil, err
		}
	}

	splog.Success("Released v%s", plan.Version)
	return &PublishResult{
		Action:     action.Name,
		Version:    tag,
		Branch:     plan.Branch,
		PR:         pr,
		ReleaseURL: releaseURL,
		Packages:   built,
	}, nil
}

func selectAction(ctx *runtime.Context, trains *ActiveReleaseTrains, name string) (ReleaseAction, error) {
	active := ActiveActions(trains)
	if name != "" {
		for _, a := range active {
			if a.Name == name {
				return a, nil
			}
		}
		return ReleaseAction{}, fmt.Errorf("release action %q is not available for the current release trains", name)
	}

	descriptions := make([]string, len(active))
	for i, a := range active {
		descriptions[i] = a.Description(trains)
	}
	choice, err := ctx.Prompter.Select("Please select the type of release you want to perform.", descriptions)
	if err != nil {
		return ReleaseAction{}, err
	}
	for i, d := range descriptions {
		if d == choice {
			return active[i], nil
		}
	}
	return ReleaseAction{}, fmt.Errorf("unknown release action %q", choice)
}

// StagingBranch is the fork branch a release bump is pushed to
func StagingBranch(version *semver.Version) string {
	return "release-stage-" + version.String()
}

// PublishBranch is the local branch the merged release is built and tagged from
func PublishBranch(version *semver.Version) string {
	return "release-publish-" + version.String()
}

// restoreAfterPublish returns to previous and deletes the local release branches
func restoreAfterPublish(ctx *runtime.Context, previous string, branches ...string) {
	if err := ctx.Git.ResetHard(ctx.Context, "HEAD"); err != nil {
		ctx.Splog.Warn("Could not discard release changes: %v", err)
	}
	if err := ctx.Git.Checkout(ctx.Context, previous); err != nil {
		ctx.Splog.Warn("Could not restore %s: %v", previous, err)
	}
	for _, b := range branches {
		if err := ctx.Git.DeleteBranch(ctx.Context, b); err != nil {
			ctx.Splog.Debug("Could not delete %s: %v", b, err)
		}
	}
}

// stageRelease commits the version bump and changelog on top of the release
// branch, pushes it to the operator's fork and opens a pull request. It returns
// the rendered release notes and the PR number.
func stageRelease(ctx *runtime.Context, plan *releasePlan) (string, int, error) {
	g := ctx.Git
	upstream := ctx.UpstreamURL()

	if err := g.Fetch(ctx.Context, upstream, "refs/heads/"+plan.Branch); err != nil {
		return "", 0, fmt.Errorf("failed to fetch %s: %w", plan.Branch, err)
	}
	branch := StagingBranch(plan.Version)
	if err := g.CheckoutNewBranch(ctx.Context, branch, "FETCH_HEAD"); err != nil {
		return "", 0, err
	}

	root := repoRoot(ctx)
	if err := UpdatePackageJSONVersion(filepath.Join(root, "package.json"), plan.Version); err != nil {
		return "", 0, err
	}

	releaseNotes, err := BuildReleaseNotes(ctx, plan.Version, plan.Previous.String(), "HEAD")
	if err != nil {
		return "", 0, err
	}
	notes, err := releaseNotes.Markdown()
	if err != nil {
		return "", 0, err
	}
	changelog := ctx.Config.Release.ChangelogPath
	if err := PrependToChangelog(filepath.Join(root, changelog), notes); err != nil {
		return "", 0, err
	}

	title := fmt.Sprintf("release: cut the v%s release", plan.Version)
	if err := g.Commit(ctx.Context, title, "package.json", changelog); err != nil {
		return "", 0, err
	}

	fork, err := ctx.GitHub.FindUserFork(ctx.Context)
	if err != nil {
		return "", 0, err
	}
	if err := g.Push(ctx.Context, ctx.RepoURL(fork.Owner, fork.Name), true, "HEAD:refs/heads/"+branch); err != nil {
		return "", 0, fmt.Errorf("failed to push the staging branch to %s/%s: %w", fork.Owner, fork.Name, err)
	}
	pr, err := ctx.GitHub.CreatePullRequest(ctx.Context, github.CreatePROptions{
		Title: title,
		Body:  fmt.Sprintf("Bumps the version to v%s and updates the changelog.\n\n%s", plan.Version, notes),
		Head:  fork.Owner + ":" + branch,
		Base:  plan.Branch,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to create the staging pull request: %w", err)
	}
	ctx.Splog.Success("Staged the release in #%d", pr.Number)
	ctx.Splog.Info("Please ask a team member to review: %s", pr.URL)
	return notes, pr.Number, nil
}

// WaitForPullRequestMerged polls until the PR has landed, either merged on
// GitHub or pushed and closed by ng-dev. A PR closed without landing fails at
// once with ErrStagingPullRequestClosed. Polling is bounded by the configured
// attempt count and fails with ErrPollTimeout.
func WaitForPullRequestMerged(ctx *runtime.Context, number int) error {
	interval := ctx.Config.Release.PublishPollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := ctx.Config.Release.PublishMaxPollAttempts
	if attempts <= 0 {
		attempts = DefaultMaxPollAttempts
	}

	spinner := tui.StartSpinner(ctx.Splog.Writer(), fmt.Sprintf("Waiting for #%d to be merged...", number))
	defer spinner.Stop()

	for attempt := 1; attempt <= attempts; attempt++ {
		state, err := ctx.GitHub.GetMergeState(ctx.Context, number)
		if err != nil {
			return err
		}
		switch state {
		case github.MergeStateMerged:
			return nil
		case github.MergeStateClosed:
			return fmt.Errorf("%w: #%d", ErrStagingPullRequestClosed, number)
		}
		if err := ctx.Context.Err(); err != nil {
			return err
		}
		if attempt < attempts {
			spinner.Update(fmt.Sprintf("Waiting for #%d to be merged... (check %d of %d)", number, attempt, attempts))
			ctx.Sleep(interval)
		}
	}
	return fmt.Errorf("%w: #%d after %d checks", ErrPollTimeout, number, attempts)
}

// checkoutPublishBranch checks out the merged release branch and returns its head
func checkoutPublishBranch(ctx *runtime.Context, plan *releasePlan) (string, error) {
	g := ctx.Git
	if err := g.Fetch(ctx.Context, ctx.UpstreamURL(), "refs/heads/"+plan.Branch); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", plan.Branch, err)
	}
	branch := PublishBranch(plan.Version)
	if err := g.CheckoutNewBranch(ctx.Context, branch, "FETCH_HEAD"); err != nil {
		return "", err
	}
	return g.RevParse(ctx.Context, "HEAD")
}

func publishPackages(ctx *runtime.Context, plan *releasePlan, built []BuiltPackageWithInfo) error {
	for _, pkg := range built {
		if err := VerifyBuiltPackage(pkg); err != nil {
			return err
		}
		if err := ctx.Npm.Publish(ctx.Context, pkg.OutputPath, plan.DistTag); err != nil {
			return fmt.Errorf("failed to publish %s: %w", pkg.Name, err)
		}
		ctx.Splog.Success("Published %s@%s", pkg.Name, plan.Version)
	}
	return nil
}

var versionField = regexp.MustCompile(`("version"\s*:\s*")[^"]*(")`)

// UpdatePackageJSONVersion rewrites the first "version" field of a package.json,
// leaving the rest of the file untouched.
func UpdatePackageJSONVersion(path string, version *semver.Version) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	loc := versionField.FindSubmatchIndex(data)
	if loc == nil {
		return fmt.Errorf("no version field in %s", path)
	}
	updated := make([]byte, 0, len(data)+len(version.String()))
	updated = append(updated, data[:loc[3]]...)
	updated = append(updated, version.String()...)
	updated = append(updated, data[loc[4]:]...)
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
