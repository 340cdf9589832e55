package pr

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/commit"
	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/release"
	"ngdev.dev/ngdev/testhelpers"
)

func trains(withRC bool, nextMajor bool) *release.ActiveReleaseTrains {
	next := "17.2.0-next.0"
	if nextMajor {
		next = "18.0.0-next.0"
	}
	out := &release.ActiveReleaseTrains{
		Next:   release.NewReleaseTrain("main", release.MustParse(next)),
		Latest: release.NewReleaseTrain("17.1.x", release.MustParse("17.1.2")),
	}
	if withRC {
		out.ReleaseCandidate = release.NewReleaseTrain("17.2.x", release.MustParse("17.2.0-rc.0"))
	}
	return out
}

func TestMatchesPattern(t *testing.T) {
	t.Parallel()

	t.Run("matches regular expressions", func(t *testing.T) {
		t.Parallel()
		require.True(t, MatchesPattern("release-note: fix", regexp.MustCompile(`^release-note:`)))
	})

	t.Run("compares strings for equality", func(t *testing.T) {
		t.Parallel()
		require.True(t, MatchesPattern("foo", "foo"))
		require.False(t, MatchesPattern("foo", "bar"))
	})

	t.Run("rejects other pattern kinds", func(t *testing.T) {
		t.Parallel()
		require.False(t, MatchesPattern("foo", 42))
	})
}

func TestGetTargetLabel(t *testing.T) {
	t.Parallel()

	t.Run("returns the single target label", func(t *testing.T) {
		t.Parallel()
		label, err := GetTargetLabel([]string{"area: core", "target: patch"})
		require.NoError(t, err)
		require.Equal(t, TargetPatch, label)
	})

	t.Run("fails without a target label", func(t *testing.T) {
		t.Parallel()
		_, err := GetTargetLabel([]string{"area: core"})
		require.ErrorIs(t, err, ngerrors.ErrPullRequestFailure)
	})

	t.Run("fails with several target labels", func(t *testing.T) {
		t.Parallel()
		_, err := GetTargetLabel([]string{"target: patch", "target: minor"})
		require.ErrorIs(t, err, ngerrors.ErrPullRequestFailure)
	})
}

func TestGetBranchesForLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		label    TargetLabel
		base     string
		withRC   bool
		major    bool
		expected []string
		fails    bool
	}{
		{name: "major needs a major next train", label: TargetMajor, base: "main", fails: true},
		{name: "major lands on next", label: TargetMajor, base: "main", major: true, expected: []string{"main"}},
		{name: "minor lands on next", label: TargetMinor, base: "main", expected: []string{"main"}},
		{name: "patch lands on next and latest", label: TargetPatch, base: "main", expected: []string{"main", "17.1.x"}},
		{name: "patch includes the release candidate", label: TargetPatch, base: "main", withRC: true, expected: []string{"main", "17.1.x", "17.2.x"}},
		{name: "patch against latest stays there", label: TargetPatch, base: "17.1.x", expected: []string{"17.1.x"}},
		{name: "rc needs a release candidate", label: TargetRC, base: "main", fails: true},
		{name: "rc lands on next and rc", label: TargetRC, base: "main", withRC: true, expected: []string{"main", "17.2.x"}},
		{name: "rc against the rc branch stays there", label: TargetRC, base: "17.2.x", withRC: true, expected: []string{"17.2.x"}},
		{name: "lts lands on its base", label: TargetLTS, base: "16.2.x", expected: []string{"16.2.x"}},
		{name: "lts rejects the latest branch", label: TargetLTS, base: "17.1.x", fails: true},
		{name: "feature lands on its base", label: TargetFeature, base: "signals", expected: []string{"signals"}},
		{name: "feature rejects release branches", label: TargetFeature, base: "main", fails: true},
		{name: "automation lands on its base", label: TargetAutomation, base: "main", expected: []string{"main"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			branches, err := GetBranchesForLabel(tc.label, TargetingContext{
				Trains:             trains(tc.withRC, tc.major),
				GitHubTargetBranch: tc.base,
			})
			if tc.fails {
				require.ErrorIs(t, err, ngerrors.ErrPullRequestFailure)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, branches)
		})
	}

	t.Run("lts applies the support window check", func(t *testing.T) {
		t.Parallel()
		_, err := GetBranchesForLabel(TargetLTS, TargetingContext{
			Trains:             trains(false, false),
			GitHubTargetBranch: "14.3.x",
			LtsCheck:           func(string) error { return release.ErrLtsEnded },
		})
		require.ErrorIs(t, err, ngerrors.ErrPullRequestFailure)
	})
}

func TestResolveTargetBranches(t *testing.T) {
	t.Parallel()

	tc := func() TargetingContext {
		return TargetingContext{
			Trains:             trains(false, false),
			GitHubTargetBranch: "main",
			LtsBranches:        []string{"16.2.x", "15.2.x"},
		}
	}

	t.Run("asks the operator when several branches match", func(t *testing.T) {
		t.Parallel()
		prompter := &testhelpers.FakePrompter{Selections: []string{"15.2.x"}}
		branches, err := ResolveTargetBranches(TargetLTS, tc(), prompter)
		require.NoError(t, err)
		require.Equal(t, []string{"15.2.x"}, branches)
		require.Len(t, prompter.Asked, 1)
	})

	t.Run("fails without a terminal", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveTargetBranches(TargetLTS, tc(), &testhelpers.FakePrompter{})
		require.ErrorIs(t, err, ngerrors.ErrPullRequestFailure)
	})

	t.Run("uses the only lts branch", func(t *testing.T) {
		t.Parallel()
		single := tc()
		single.LtsBranches = []string{"16.2.x"}
		branches, err := ResolveTargetBranches(TargetLTS, single, &testhelpers.FakePrompter{})
		require.NoError(t, err)
		require.Equal(t, []string{"16.2.x"}, branches)
	})
}

func TestAssertChangesAllowForTargetLabel(t *testing.T) {
	t.Parallel()

	feat := commit.Parse("feat(core): add signal inputs\n\nAdds the new input API to components.")
	fix := commit.Parse("fix(core): handle null\n\nHandles null values in the parser.")
	breaking := commit.Parse("fix(core): drop api\n\nRemoves the API.\n\nBREAKING CHANGE: the API is gone.")
	deprecation := commit.Parse("fix(core): deprecate api\n\nDeprecates the API.\n\nDEPRECATED: use the new API.")
	devInfra := commit.Parse("feat(dev-infra): new tool\n\nAdds a new internal tool.")

	t.Run("rejects features in patch targets", func(t *testing.T) {
		t.Parallel()
		err := AssertChangesAllowForTargetLabel([]*commit.Commit{fix, feat}, TargetPatch, nil)
		require.ErrorIs(t, err, ngerrors.ErrPullRequestFailure)
		require.Contains(t, err.Error(), "feature commit not allowed in patch target")
	})

	t.Run("rejects breaking changes outside major targets", func(t *testing.T) {
		t.Parallel()
		err := AssertChangesAllowForTargetLabel([]*commit.Commit{breaking}, TargetMinor, nil)
		require.Contains(t, err.Error(), "breaking change not allowed in minor target")
		require.NoError(t, AssertChangesAllowForTargetLabel([]*commit.Commit{breaking}, TargetMajor, nil))
	})

	t.Run("rejects deprecations in patch targets", func(t *testing.T) {
		t.Parallel()
		err := AssertChangesAllowForTargetLabel([]*commit.Commit{deprecation}, TargetRC, nil)
		require.Contains(t, err.Error(), "deprecation not allowed in rc target")
		require.NoError(t, AssertChangesAllowForTargetLabel([]*commit.Commit{deprecation}, TargetMinor, nil))
	})

	t.Run("skips exempt scopes", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, AssertChangesAllowForTargetLabel([]*commit.Commit{devInfra}, TargetPatch, []string{"dev-infra"}))
	})

	t.Run("accepts fixes everywhere", func(t *testing.T) {
		t.Parallel()
		for _, label := range TargetLabels {
			require.NoError(t, AssertChangesAllowForTargetLabel([]*commit.Commit{fix}, label, nil), label)
		}
	})
}
