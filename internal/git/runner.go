// Package git provides a wrapper around git commands and go-git for repository operations.
package git

import (
	"context"
	"errors"
	"strings"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/process"
)

// Repo runs git commands inside a single repository.
type Repo struct {
	root    string
	runner  *process.Runner
	secrets []string
}

// NewRepo creates a Repo rooted at dir
func NewRepo(dir string) *Repo {
	return &Repo{
		root:   dir,
		runner: process.NewRunner("git", dir),
	}
}

// RepoRoot returns the repository root directory
func (r *Repo) RepoRoot() string {
	return r.root
}

// AddSecret registers a value that must never appear in error output (e.g. a token
// embedded in a remote URL).
func (r *Repo) AddSecret(secret string) {
	if secret != "" {
		r.secrets = append(r.secrets, secret)
	}
}

// Run executes a git command and returns trimmed output
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	out, err := r.runner.Run(ctx, args...)
	return out, r.redact(err)
}

// RunWithEnv executes a git command with extra environment variables
func (r *Repo) RunWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	out, err := r.runner.WithEnv(env...).Run(ctx, args...)
	return out, r.redact(err)
}

// RunRaw executes a git command and returns untrimmed output
func (r *Repo) RunRaw(ctx context.Context, args ...string) (string, error) {
	out, err := r.runner.RunRaw(ctx, args...)
	return out, r.redact(err)
}

// RunLines executes a git command and returns output as lines
func (r *Repo) RunLines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.runner.RunLines(ctx, args...)
	return out, r.redact(err)
}

func (r *Repo) redact(err error) error {
	if err == nil || len(r.secrets) == 0 {
		return err
	}
	var cmdErr *ngerrors.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	args := make([]string, len(cmdErr.Args))
	for i, a := range cmdErr.Args {
		args[i] = r.scrub(a)
	}
	return ngerrors.NewCommandError(cmdErr.Command, args, r.scrub(cmdErr.Stdout), r.scrub(cmdErr.Stderr), cmdErr.ExitCode, cmdErr.Err)
}

func (r *Repo) scrub(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, "<TOKEN>")
	}
	return s
}
