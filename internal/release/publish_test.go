package release

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/git"
	"ngdev.dev/ngdev/internal/github"
)

func findAction(t *testing.T, name string) ReleaseAction {
	t.Helper()
	for _, a := range ReleaseActions {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("no release action %q", name)
	return ReleaseAction{}
}

func actionNames(actions []ReleaseAction) []string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name)
	}
	return names
}

func TestReleaseActions(t *testing.T) {
	t.Parallel()

	t.Run("offers a release candidate during feature freeze", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		trains := &ActiveReleaseTrains{
			Next:             NewReleaseTrain("main", MustParse("18.1.0-next.0")),
			ReleaseCandidate: NewReleaseTrain("18.0.x", MustParse("18.0.0-next.4")),
			Latest:           NewReleaseTrain("17.3.x", MustParse("17.3.5")),
		}
		require.Equal(t, []string{"cut-new-patch", "cut-next-prerelease", "cut-release-candidate"}, actionNames(ActiveActions(trains)))

		plan, err := findAction(t, "cut-release-candidate").plan(env.ctx, trains)
		require.NoError(t, err)
		require.Equal(t, "18.0.x", plan.Branch)
		require.Equal(t, "18.0.0-rc.0", plan.Version.String())
		require.Equal(t, "next", plan.DistTag)
	})

	t.Run("a stable major moves the previous major to lts", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		trains := &ActiveReleaseTrains{
			Next:             NewReleaseTrain("main", MustParse("18.1.0-next.0")),
			ReleaseCandidate: NewReleaseTrain("18.0.x", MustParse("18.0.0-rc.1")),
			Latest:           NewReleaseTrain("17.3.x", MustParse("17.3.5")),
		}
		require.Equal(t, []string{"cut-new-patch", "cut-next-prerelease", "cut-stable"}, actionNames(ActiveActions(trains)))

		plan, err := findAction(t, "cut-stable").plan(env.ctx, trains)
		require.NoError(t, err)
		require.Equal(t, "18.0.0", plan.Version.String())
		require.Equal(t, "latest", plan.DistTag)
		require.Equal(t, "v17-lts", plan.LtsTag)
		require.Equal(t, "17.3.5", plan.LtsVersion.String())
	})

	t.Run("next prereleases bump only published versions", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		info := env.npm.AddPackage("@angular/core", "17.1.2")
		trains := &ActiveReleaseTrains{
			Next:   NewReleaseTrain("main", MustParse("17.2.0-next.1")),
			Latest: NewReleaseTrain("17.1.x", MustParse("17.1.2")),
		}
		action := findAction(t, "cut-next-prerelease")

		plan, err := action.plan(env.ctx, trains)
		require.NoError(t, err)
		require.Equal(t, "main", plan.Branch)
		require.Equal(t, "17.2.0-next.1", plan.Version.String())

		info.Versions = map[string]json.RawMessage{"17.2.0-next.1": json.RawMessage(`{}`)}
		plan, err = action.plan(env.ctx, trains)
		require.NoError(t, err)
		require.Equal(t, "17.2.0-next.2", plan.Version.String())
	})
}

func TestPublish(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *releaseEnv {
		env := newReleaseEnv(t)
		env.gh.AddReleaseBranch("main", "17.2.0-next.1")
		env.gh.AddReleaseBranch("17.1.x", "17.1.2")
		env.git.Ranges["17.1.2..HEAD"] = []git.RawCommit{{SHA: "abc1234567", Message: "fix(core): patch thing\n\nFixes the thing."}}
		env.prompter.Confirms = []bool{true}
		return env
	}

	t.Run("stages, waits for the merge and publishes", func(t *testing.T) {
		t.Parallel()
		env := setup(t)
		env.ctx.Sleep = func(d time.Duration) {
			env.sleeps = append(env.sleeps, d)
			env.gh.SetMerged(1001)
		}

		result, err := Publish(env.ctx, PublishOptions{Action: "cut-new-patch"})
		require.NoError(t, err)
		require.Equal(t, "17.1.3", result.Version)
		require.Equal(t, 1001, result.PR)

		require.Contains(t, readFile(t, filepath.Join(env.root, "package.json")), `"version": "17.1.3"`)
		require.True(t, strings.HasPrefix(readFile(t, filepath.Join(env.root, "CHANGELOG.md")), `<a name="17.1.3"></a>`))
		require.Equal(t, []string{"release: cut the v17.1.3 release"}, env.git.Commits)

		require.Len(t, env.gh.CreatedPRs, 1)
		require.Equal(t, "17.1.x", env.gh.CreatedPRs[0].Base)
		require.Equal(t, "me:release-stage-17.1.3", env.gh.CreatedPRs[0].Head)
		require.Equal(t, []time.Duration{10 * time.Second}, env.sleeps)

		require.Equal(t, []string{
			filepath.Join(env.root, "dist/releases/@angular/core") + "@latest",
			filepath.Join(env.root, "dist/releases/@angular/labs") + "@latest",
		}, env.npm.Published)
		require.Equal(t, []string{"17.1.3"}, env.git.Tags)
		require.Len(t, env.gh.Releases, 1)
		require.Equal(t, "sha-HEAD", env.gh.Releases[0].TargetSHA)
		require.False(t, env.gh.Releases[0].Prerelease)
		require.Contains(t, env.gh.Releases[0].Body, "patch thing")
		require.Equal(t, "my-work", env.git.Ref)
		require.Contains(t, env.git.Calls, "branch -D release-stage-17.1.3")
		require.Contains(t, env.git.Calls, "branch -D release-publish-17.1.3")
	})

	t.Run("publishes once the pull request is landed and closed by ng-dev", func(t *testing.T) {
		t.Parallel()
		env := setup(t)
		env.ctx.Sleep = func(d time.Duration) {
			env.sleeps = append(env.sleeps, d)
			require.NoError(t, env.gh.CreateComment(context.Background(), 1001, github.MergedCommentPrefix+" The changes were merged into the following branches: 17.1.x"))
			require.NoError(t, env.gh.ClosePullRequest(context.Background(), 1001))
		}

		result, err := Publish(env.ctx, PublishOptions{Action: "cut-new-patch"})
		require.NoError(t, err)
		require.Equal(t, "17.1.3", result.Version)
		require.Len(t, env.sleeps, 1)
		require.Len(t, env.npm.Published, 2)
	})

	t.Run("fails at once when the pull request is closed without landing", func(t *testing.T) {
		t.Parallel()
		env := setup(t)
		env.ctx.Sleep = func(d time.Duration) {
			env.sleeps = append(env.sleeps, d)
			require.NoError(t, env.gh.ClosePullRequest(context.Background(), 1001))
		}

		_, err := Publish(env.ctx, PublishOptions{Action: "cut-new-patch"})
		require.ErrorIs(t, err, ErrStagingPullRequestClosed)
		require.Contains(t, err.Error(), "#1001")
		require.Len(t, env.sleeps, 1)
		require.Empty(t, env.npm.Published)
		require.Equal(t, "my-work", env.git.Ref)
		require.Contains(t, env.git.Calls, "branch -D release-stage-17.1.3")
	})

	t.Run("gives up after the configured number of checks", func(t *testing.T) {
		t.Parallel()
		env := setup(t)
		env.ctx.Config.Release.PublishMaxPollAttempts = 3

		_, err := Publish(env.ctx, PublishOptions{Action: "cut-new-patch"})
		require.ErrorIs(t, err, ErrPollTimeout)
		require.Len(t, env.sleeps, 2)
		require.Empty(t, env.npm.Published)
		require.Equal(t, "my-work", env.git.Ref)
	})

	t.Run("requires an npm login before touching git", func(t *testing.T) {
		t.Parallel()
		env := setup(t)
		env.npm.LoggedIn = false

		_, err := Publish(env.ctx, PublishOptions{Action: "cut-new-patch"})
		require.ErrorContains(t, err, "npm login")
		require.Equal(t, []string{"status"}, env.git.Calls)
	})

	t.Run("stops when the operator declines", func(t *testing.T) {
		t.Parallel()
		env := setup(t)
		env.prompter.Confirms = []bool{false}

		_, err := Publish(env.ctx, PublishOptions{Action: "cut-new-patch"})
		require.ErrorIs(t, err, ngerrors.ErrUserAborted)
		require.Empty(t, env.gh.CreatedPRs)
	})

	t.Run("rejects inactive actions", func(t *testing.T) {
		t.Parallel()
		env := setup(t)

		_, err := Publish(env.ctx, PublishOptions{Action: "cut-stable"})
		require.ErrorContains(t, err, "not available")
	})
}

func TestWaitForPullRequestMerged(t *testing.T) {
	t.Parallel()

	closedPR := func(env *releaseEnv, number int) {
		env.gh.PRs[number] = &github.PullRequest{Number: number, State: "CLOSED", BaseRefName: "17.1.x"}
	}

	t.Run("accepts a closed pull request whose commit landed on the base branch", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		closedPR(env, 7)
		env.gh.BranchCommits["17.1.x"] = []github.Commit{
			{SHA: "a", Message: "fix(core): other change\n\nPR Close #70"},
			{SHA: "b", Message: "release: cut the v17.1.3 release\n\nPR Close #7"},
		}

		require.NoError(t, WaitForPullRequestMerged(env.ctx, 7))
		require.Empty(t, env.sleeps)
	})

	t.Run("does not mistake another pull request's trailer", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		closedPR(env, 7)
		env.gh.BranchCommits["17.1.x"] = []github.Commit{{SHA: "a", Message: "fix(core): other change\n\nPR Close #70"}}

		err := WaitForPullRequestMerged(env.ctx, 7)
		require.ErrorIs(t, err, ErrStagingPullRequestClosed)
		require.Empty(t, env.sleeps)
	})

	t.Run("keeps polling open pull requests", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		env.gh.PRs[7] = &github.PullRequest{Number: 7, State: "OPEN", BaseRefName: "17.1.x"}
		env.ctx.Config.Release.PublishMaxPollAttempts = 2

		err := WaitForPullRequestMerged(env.ctx, 7)
		require.ErrorIs(t, err, ErrPollTimeout)
		require.Len(t, env.sleeps, 1)
	})
}

func TestUpdatePackageJSONVersion(t *testing.T) {
	t.Parallel()

	t.Run("only rewrites the version field", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		path := filepath.Join(env.root, "package.json")
		require.NoError(t, UpdatePackageJSONVersion(path, MustParse("18.0.0-next.0")))
		require.Equal(t, "{\n  \"name\": \"angular-srcs\",\n  \"version\": \"18.0.0-next.0\",\n  \"private\": true\n}\n", readFile(t, path))
	})
}
