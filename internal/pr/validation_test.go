package pr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/commit"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/github"
)

func validationInput(pr *github.PullRequest, messages ...string) ValidationInput {
	commits := make([]*commit.Commit, 0, len(messages))
	for _, m := range messages {
		commits = append(commits, commit.Parse(m))
	}
	return ValidationInput{PR: pr, Commits: commits, Config: config.Defaults().PullRequest}
}

func kinds(failures []*ValidationFailure) []ValidationKind {
	out := make([]ValidationKind, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Kind)
	}
	return out
}

func TestRunValidations(t *testing.T) {
	t.Parallel()

	const fix = "fix(core): handle null\n\nHandles null values in the parser."

	t.Run("a ready pull request passes", func(t *testing.T) {
		t.Parallel()
		failures := RunValidations(validationInput(mergeablePR(1, "target: patch"), fix), DefaultValidationConfig())
		require.Empty(t, failures)
	})

	t.Run("closed pull requests fail the non-ignorable pending check", func(t *testing.T) {
		t.Parallel()
		pr := mergeablePR(1, "target: patch")
		pr.State = "CLOSED"
		failures := RunValidations(validationInput(pr, fix), DefaultValidationConfig())
		require.Equal(t, []ValidationKind{ValidationPending}, kinds(failures))
		require.False(t, failures[0].Ignorable)
	})

	t.Run("drafts are pending", func(t *testing.T) {
		t.Parallel()
		pr := mergeablePR(1, "target: patch")
		pr.IsDraft = true
		require.Equal(t, []ValidationKind{ValidationPending}, kinds(RunValidations(validationInput(pr, fix), DefaultValidationConfig())))
	})

	t.Run("reports every failing validation in order", func(t *testing.T) {
		t.Parallel()
		pr := mergeablePR(1, "target: patch", "action: merge-assistance")
		pr.Statuses = nil
		pr.StatusCheckRollup = github.CheckFailure
		failures := RunValidations(validationInput(pr, "feat(core): add api\n\nAdds a brand new public API."), DefaultValidationConfig())
		require.Equal(t, []ValidationKind{
			ValidationMergeReady,
			ValidationSignedCla,
			ValidationChangesAllowForTargetLabel,
			ValidationPassingCi,
		}, kinds(failures))
		for _, f := range failures {
			require.True(t, f.Ignorable)
		}
		require.Contains(t, failures[2].Message, "feature commit not allowed in patch target")
	})

	t.Run("skips disabled validations", func(t *testing.T) {
		t.Parallel()
		pr := mergeablePR(1, "target: patch")
		pr.StatusCheckRollup = github.CheckPending
		pr.Labels = []string{"target: patch"}

		cfg := DefaultValidationConfig()
		cfg.AssertPassingCi = false
		cfg.AssertMergeReady = false
		require.Empty(t, RunValidations(validationInput(pr, fix), cfg))
	})

	t.Run("requires the breaking change label to match the commits", func(t *testing.T) {
		t.Parallel()
		breaking := "fix(core): drop api\n\nRemoves the API.\n\nBREAKING CHANGE: the API is gone."
		failures := RunValidations(validationInput(mergeablePR(1, "target: major"), breaking), DefaultValidationConfig())
		require.Equal(t, []ValidationKind{ValidationBreakingChangeLabel}, kinds(failures))

		failures = RunValidations(validationInput(mergeablePR(1, "target: major", "flag: breaking change"), fix), DefaultValidationConfig())
		require.Equal(t, []ValidationKind{ValidationBreakingChangeLabel}, kinds(failures))

		require.Empty(t, RunValidations(validationInput(mergeablePR(1, "target: major", "flag: breaking change"), breaking), DefaultValidationConfig()))
	})
}

func TestIsIgnorable(t *testing.T) {
	t.Parallel()

	for _, kind := range validationOrder {
		require.Equal(t, kind != ValidationPending, IsIgnorable(kind), kind)
	}
}
