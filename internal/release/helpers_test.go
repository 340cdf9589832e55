package release

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
	"ngdev.dev/ngdev/testhelpers"
)

const buildScript = "mkdir -p dist/releases/@angular/core dist/releases/@angular/labs && " +
	"echo '{\"name\":\"@angular/core\"}' > dist/releases/@angular/core/package.json && " +
	"echo '{\"name\":\"@angular/labs\"}' > dist/releases/@angular/labs/package.json"

type releaseEnv struct {
	ctx      *runtime.Context
	root     string
	git      *testhelpers.FakeGit
	gh       *testhelpers.FakeGitHub
	npm      *testhelpers.FakeNpm
	prompter *testhelpers.FakePrompter
	sleeps   []time.Duration
}

func newReleaseEnv(t *testing.T) *releaseEnv {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{\n  \"name\": \"angular-srcs\",\n  \"version\": \"17.1.2\",\n  \"private\": true\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "CHANGELOG.md"), []byte("<a name=\"17.1.2\"></a>\n# 17.1.2\n"), 0o644))

	cfg := config.Defaults()
	cfg.GitHub.Owner = "angular"
	cfg.GitHub.Name = "angular"
	cfg.GitHub.RemoteURL = "/tmp/upstream.git"
	cfg.Release.BuildCommand = buildScript
	cfg.Release.NpmPackages = []config.NpmPackage{
		{Name: "@angular/core"},
		{Name: "@angular/labs", Experimental: true},
	}

	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	env := &releaseEnv{
		root:     root,
		git:      testhelpers.NewFakeGit(),
		gh:       testhelpers.NewFakeGitHub(),
		npm:      testhelpers.NewFakeNpm(),
		prompter: &testhelpers.FakePrompter{},
	}
	env.git.Ref = "my-work"
	env.gh.Fork = &github.Fork{Owner: "me", Name: "angular"}
	env.ctx = runtime.NewContext(context.Background(), runtime.Options{
		Config:   cfg,
		Git:      env.git,
		GitHub:   env.gh,
		Npm:      env.npm,
		Splog:    splog,
		Prompter: env.prompter,
		RepoRoot: root,
		Now:      func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
		Sleep:    func(d time.Duration) { env.sleeps = append(env.sleeps, d) },
	})
	return env
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
