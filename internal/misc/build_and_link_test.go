package misc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
	"ngdev.dev/ngdev/testhelpers"
)

// stubLinker writes a yarn stand-in that logs its working directory and arguments
func stubLinker(t *testing.T, dir string, exitCode int) (string, string) {
	t.Helper()
	logFile := filepath.Join(dir, "yarn.log")
	script := "#!/bin/sh\necho \"$(pwd) $*\" >> " + logFile + "\nexit " + strconv.Itoa(exitCode) + "\n"
	path := filepath.Join(dir, "yarn")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path, logFile
}

func newContext(t *testing.T, root string) *runtime.Context {
	t.Helper()
	cfg := config.Defaults()
	cfg.Release.BuildCommand = "mkdir -p dist/releases/@angular/core dist/releases/@angular/common"
	cfg.Release.NpmPackages = []config.NpmPackage{{Name: "@angular/core"}, {Name: "@angular/common"}}

	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	return runtime.NewContext(context.Background(), runtime.Options{
		Config:   cfg,
		Git:      testhelpers.NewFakeGit(),
		Splog:    splog,
		RepoRoot: root,
	})
}

func TestBuildAndLink(t *testing.T) {
	t.Parallel()

	t.Run("registers every package then links them into the project", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		project := t.TempDir()
		linker, logFile := stubLinker(t, t.TempDir(), 0)

		built, err := BuildAndLink(newContext(t, root), BuildAndLinkOptions{ProjectRoot: project, Linker: linker})
		require.NoError(t, err)
		require.Len(t, built, 2)

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 4)
		require.True(t, strings.HasSuffix(lines[0], "dist/releases/@angular/core link"))
		require.True(t, strings.HasSuffix(lines[1], "dist/releases/@angular/common link"))
		require.True(t, strings.HasSuffix(lines[2], "link --cwd "+project+" @angular/core"))
		require.True(t, strings.HasSuffix(lines[3], "link --cwd "+project+" @angular/common"))
	})

	t.Run("requires an existing project root", func(t *testing.T) {
		t.Parallel()
		_, err := BuildAndLink(newContext(t, t.TempDir()), BuildAndLinkOptions{ProjectRoot: filepath.Join(t.TempDir(), "missing")})
		require.Error(t, err)

		_, err = BuildAndLink(newContext(t, t.TempDir()), BuildAndLinkOptions{})
		require.Error(t, err)
	})

	t.Run("surfaces linker failures", func(t *testing.T) {
		t.Parallel()
		linker, _ := stubLinker(t, t.TempDir(), 1)
		_, err := BuildAndLink(newContext(t, t.TempDir()), BuildAndLinkOptions{ProjectRoot: t.TempDir(), Linker: linker})
		require.ErrorContains(t, err, "failed to register @angular/core")
	})
}
