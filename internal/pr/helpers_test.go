package pr

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
	"ngdev.dev/ngdev/testhelpers"
)

type testEnv struct {
	ctx      *runtime.Context
	git      *testhelpers.FakeGit
	gh       *testhelpers.FakeGitHub
	npm      *testhelpers.FakeNpm
	prompter *testhelpers.FakePrompter
	output   *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	cfg.GitHub.Owner = "angular"
	cfg.GitHub.Name = "angular"
	cfg.GitHub.RemoteURL = "/tmp/upstream.git"

	output := &bytes.Buffer{}
	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{Writer: output})
	require.NoError(t, err)

	env := &testEnv{
		git:      testhelpers.NewFakeGit(),
		gh:       testhelpers.NewFakeGitHub(),
		npm:      testhelpers.NewFakeNpm(),
		prompter: &testhelpers.FakePrompter{},
		output:   output,
	}
	env.git.Ref = "my-work"
	env.gh.AddReleaseBranch("main", "17.2.0-next.0")
	env.gh.AddReleaseBranch("17.1.x", "17.1.2")
	env.ctx = runtime.NewContext(context.Background(), runtime.Options{
		Config:   cfg,
		Git:      env.git,
		GitHub:   env.gh,
		Npm:      env.npm,
		Splog:    splog,
		Prompter: env.prompter,
	})
	return env
}

// mergeablePR returns an open PR that passes every validation
func mergeablePR(number int, labels ...string) *github.PullRequest {
	return &github.PullRequest{
		Number:            number,
		Title:             "fix(core): patch thing",
		State:             "OPEN",
		Labels:            append([]string{"action: merge"}, labels...),
		Mergeable:         "MERGEABLE",
		BaseRefName:       "main",
		HeadRefName:       "fix-thing",
		HeadSHA:           "head-sha",
		HeadOwner:         "contributor",
		HeadRepo:          "angular",
		AuthorCanModify:   true,
		StatusCheckRollup: github.CheckSuccess,
		Statuses:          map[string]github.CheckState{"cla/google": github.CheckSuccess},
	}
}

// indexOf returns the position of the last call equal to call, or -1
func indexOf(calls []string, call string) int {
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i] == call {
			return i
		}
	}
	return -1
}
