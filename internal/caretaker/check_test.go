package caretaker

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
	"ngdev.dev/ngdev/testhelpers"
)

func newContext(t *testing.T, gh *testhelpers.FakeGitHub, cfg *config.Config) (*runtime.Context, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{Writer: out})
	require.NoError(t, err)
	return runtime.NewContext(context.Background(), runtime.Options{Config: cfg, GitHub: gh, Splog: splog}), out
}

func statusServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(`{"page":{"updated_at":"2026-10-19T10:00:00Z"},"status":{"indicator":"none","description":"All Systems Operational"}}`))
		case "/degraded.json":
			_, _ = w.Write([]byte(`{"page":{"updated_at":"2026-10-19T10:00:00Z"},"status":{"indicator":"minor","description":"Partial Outage"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck(t *testing.T) {
	t.Parallel()

	t.Run("reports ci, queries and services", func(t *testing.T) {
		t.Parallel()
		srv := statusServer(t)
		gh := testhelpers.NewFakeGitHub()
		gh.AddReleaseBranch("main", "17.3.0-next.0")
		gh.AddReleaseBranch("17.2.x", "17.2.0-rc.0")
		gh.AddReleaseBranch("17.1.x", "17.1.2")
		gh.Rollups["main"] = github.CheckSuccess
		gh.Rollups["17.1.x"] = github.CheckFailure
		gh.SearchCounts[`is:open label:"action: merge"`] = 4

		cfg := config.Defaults()
		cfg.GitHub.Owner, cfg.GitHub.Name = "angular", "angular"
		cfg.Caretaker.GitHubQueries = []config.GitHubQuery{{Name: "Merge Queue", Query: `is:open label:"action: merge"`}}
		cfg.Caretaker.Services = []config.ServiceConfig{
			{Name: "GitHub", URL: srv.URL + "/ok.json"},
			{Name: "CircleCI", URL: srv.URL + "/degraded.json"},
		}
		ctx, out := newContext(t, gh, cfg)

		report, err := Check(ctx, CheckOptions{HTTPClient: srv.Client()})
		require.NoError(t, err)
		require.Equal(t, []CIStatus{
			{Train: "releaseCandidate", Branch: "17.2.x", State: github.CheckPending},
			{Train: "latest", Branch: "17.1.x", State: github.CheckFailure},
			{Train: "next", Branch: "main", State: github.CheckSuccess},
		}, report.CI)

		require.Len(t, report.Queries, 1)
		require.Equal(t, 4, report.Queries[0].Count)
		require.Equal(t, "https://github.com/angular/angular/issues?q=is%3Aopen+label%3A%22action%3A+merge%22", report.Queries[0].URL)

		require.Len(t, report.Services, 2)
		require.True(t, report.Services[0].Passing)
		require.False(t, report.Services[1].Passing)
		require.Equal(t, "Partial Outage", report.Services[1].Description)
		require.Contains(t, out.String(), "Merge Queue")
	})

	t.Run("keeps going when a module fails", func(t *testing.T) {
		t.Parallel()
		srv := statusServer(t)
		gh := testhelpers.NewFakeGitHub()
		cfg := config.Defaults()
		cfg.Caretaker.Services = []config.ServiceConfig{{Name: "Missing", URL: srv.URL + "/missing.json"}}
		ctx, _ := newContext(t, gh, cfg)

		report, err := Check(ctx, CheckOptions{HTTPClient: srv.Client()})
		require.Error(t, err)
		require.Empty(t, report.CI)
		require.Len(t, report.Services, 1)
		require.False(t, report.Services[0].Passing)
		require.Contains(t, report.Services[0].Description, "404")
	})
}
