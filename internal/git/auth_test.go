package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenResolver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	noEnv := func(string) string { return "" }

	t.Run("flag wins over every other source", func(t *testing.T) {
		t.Parallel()
		r := &TokenResolver{FlagValue: "flag", Getenv: func(string) string { return "env" }}
		token, err := r.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, "flag", token)
	})

	t.Run("reads environment variables in order", func(t *testing.T) {
		t.Parallel()
		env := map[string]string{"GH_TOKEN": "gh", "TOKEN": "plain"}
		r := &TokenResolver{Getenv: func(k string) string { return env[k] }}
		token, err := r.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, "gh", token)
	})

	t.Run("falls back to the on-disk cache", func(t *testing.T) {
		t.Parallel()
		cache := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(cache, []byte("cached\n"), 0600))
		r := &TokenResolver{Getenv: noEnv, CachePath: cache}
		token, err := r.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, "cached", token)
	})

	t.Run("writes a gh token to the cache with private permissions", func(t *testing.T) {
		t.Parallel()
		cache := filepath.Join(t.TempDir(), "nested", "token")
		calls := 0
		r := &TokenResolver{
			Getenv:    noEnv,
			CachePath: cache,
			GHToken: func(context.Context) (string, error) {
				calls++
				return "from-gh\n", nil
			},
		}
		token, err := r.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, "from-gh", token)

		info, err := os.Stat(cache)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())

		token, err = r.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, "from-gh", token)
		require.Equal(t, 1, calls)
	})

	t.Run("returns ErrNoGitHubToken when nothing is available", func(t *testing.T) {
		t.Parallel()
		r := &TokenResolver{
			Getenv: noEnv,
			GHToken: func(context.Context) (string, error) {
				return "", errors.New("not logged in")
			},
		}
		_, err := r.Resolve(ctx)
		require.ErrorIs(t, err, ErrNoGitHubToken)
	})
}
