package npm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/@angular/core":
			_, _ = w.Write([]byte(`{
				"name": "@angular/core",
				"dist-tags": {"latest": "17.1.2", "next": "17.2.0-next.1"},
				"versions": {"17.1.2": {}, "17.2.0-next.1": {}},
				"time": {"17.0.0": "2023-11-08T18:00:00.000Z"}
			}`))
		case "/no-latest":
			_, _ = w.Write([]byte(`{"name": "no-latest", "dist-tags": {}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// stubNpm writes an npm stand-in that appends its arguments to a log file
// and exits with the given status.
func stubNpm(t *testing.T, exitCode int) (binary string, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	binary = filepath.Join(dir, "npm")
	script := "#!/bin/sh\necho \"$@\" >> " + logPath + "\nexit " + strconv.Itoa(exitCode) + "\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, logPath
}

func readCalls(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestPackageInfo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reads dist-tags of scoped packages", func(t *testing.T) {
		t.Parallel()
		client := NewClient(t.TempDir(), newRegistry(t).URL)

		info, err := client.PackageInfo(ctx, "@angular/core")
		require.NoError(t, err)
		require.Equal(t, "17.1.2", info.DistTags["latest"])
		require.True(t, info.HasVersion("17.2.0-next.1"))
		require.False(t, info.HasVersion("16.0.0"))
	})

	t.Run("returns the latest version", func(t *testing.T) {
		t.Parallel()
		client := NewClient(t.TempDir(), newRegistry(t).URL)

		latest, err := client.LatestVersion(ctx, "@angular/core")
		require.NoError(t, err)
		require.Equal(t, "17.1.2", latest)
	})

	t.Run("fails when there is no latest tag", func(t *testing.T) {
		t.Parallel()
		client := NewClient(t.TempDir(), newRegistry(t).URL)

		_, err := client.LatestVersion(ctx, "no-latest")
		require.Error(t, err)
	})

	t.Run("reports unknown packages", func(t *testing.T) {
		t.Parallel()
		client := NewClient(t.TempDir(), newRegistry(t).URL)

		_, err := client.PackageInfo(ctx, "missing")
		require.ErrorIs(t, err, ErrPackageNotFound)
	})
}

func TestCLIClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("publishes with the dist-tag and registry", func(t *testing.T) {
		t.Parallel()
		binary, logPath := stubNpm(t, 0)
		client := NewClient(t.TempDir(), "https://registry.example.com/")
		client.Binary = binary

		require.NoError(t, client.Publish(ctx, t.TempDir(), "next"))
		require.Equal(t, []string{"publish --access public --tag next --registry https://registry.example.com"}, readCalls(t, logPath))
	})

	t.Run("adds and removes dist-tags", func(t *testing.T) {
		t.Parallel()
		binary, logPath := stubNpm(t, 0)
		client := NewClient(t.TempDir(), "")
		client.Binary = binary

		require.NoError(t, client.SetDistTag(ctx, "@angular/core", "17.1.2", "v17-lts"))
		require.NoError(t, client.DeleteDistTag(ctx, "@angular/core", "v16-lts"))
		require.Equal(t, []string{
			"dist-tag add @angular/core@17.1.2 v17-lts --registry " + DefaultRegistry,
			"dist-tag rm @angular/core v16-lts --registry " + DefaultRegistry,
		}, readCalls(t, logPath))
	})

	t.Run("reports a missing login", func(t *testing.T) {
		t.Parallel()
		binary, _ := stubNpm(t, 1)
		client := NewClient(t.TempDir(), "")
		client.Binary = binary

		loggedIn, err := client.CheckIsLoggedIn(ctx)
		require.NoError(t, err)
		require.False(t, loggedIn)
	})

	t.Run("reports an active login", func(t *testing.T) {
		t.Parallel()
		binary, _ := stubNpm(t, 0)
		client := NewClient(t.TempDir(), "")
		client.Binary = binary

		loggedIn, err := client.CheckIsLoggedIn(ctx)
		require.NoError(t, err)
		require.True(t, loggedIn)
	})
}
