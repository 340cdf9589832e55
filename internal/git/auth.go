package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ngdev.dev/ngdev/internal/process"
)

// tokenEnvVars lists the environment variables consulted for a GitHub token, in order
var tokenEnvVars = []string{"GITHUB_TOKEN", "GH_TOKEN", "TOKEN"}

// ErrNoGitHubToken is returned when no token source yields a value
var ErrNoGitHubToken = errors.New("no GitHub token found: pass --github-token, set GITHUB_TOKEN, or run `gh auth login`")

// TokenResolver finds a GitHub token. The on-disk cache is read at most once.
type TokenResolver struct {
	// FlagValue is the --github-token flag, used before any other source
	FlagValue string
	// CachePath is the on-disk token cache; empty disables the cache
	CachePath string
	// Getenv looks up environment variables; defaults to os.Getenv
	Getenv func(string) string
	// GHToken runs `gh auth token`; nil disables the gh fallback
	GHToken func(ctx context.Context) (string, error)

	cacheRead bool
	cached    string
}

// DefaultTokenCachePath returns ~/.ng-dev/github-token
func DefaultTokenCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ng-dev", "github-token")
}

// NewTokenResolver creates a resolver using the process environment and the gh CLI
func NewTokenResolver(flagValue string) *TokenResolver {
	return &TokenResolver{
		FlagValue: flagValue,
		CachePath: DefaultTokenCachePath(),
		Getenv:    os.Getenv,
		GHToken: func(ctx context.Context) (string, error) {
			return process.NewRunner("gh", "").Run(ctx, "auth", "token")
		},
	}
}

// Resolve returns the first non-empty token from flag, environment, cache, then gh.
// A token obtained from gh is written back to the cache.
func (t *TokenResolver) Resolve(ctx context.Context) (string, error) {
	if token := strings.TrimSpace(t.FlagValue); token != "" {
		return token, nil
	}

	getenv := t.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range tokenEnvVars {
		if token := strings.TrimSpace(getenv(key)); token != "" {
			return token, nil
		}
	}

	if token := t.readCache(); token != "" {
		return token, nil
	}

	if t.GHToken == nil {
		return "", ErrNoGitHubToken
	}
	token, err := t.GHToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoGitHubToken, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoGitHubToken
	}
	if err := t.writeCache(token); err != nil {
		return "", err
	}
	return token, nil
}

func (t *TokenResolver) readCache() string {
	if t.cacheRead {
		return t.cached
	}
	t.cacheRead = true
	if t.CachePath == "" {
		return ""
	}
	data, err := os.ReadFile(t.CachePath)
	if err != nil {
		return ""
	}
	t.cached = strings.TrimSpace(string(data))
	return t.cached
}

func (t *TokenResolver) writeCache(token string) error {
	t.cached = token
	t.cacheRead = true
	if t.CachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.CachePath), 0700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}
	if err := os.WriteFile(t.CachePath, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}
