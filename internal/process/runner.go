// Package process runs child processes (git, npm, yarn, formatters) and
// converts non-zero exits into typed errors.
package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	ngerrors "ngdev.dev/ngdev/internal/errors"
)

// DefaultCommandTimeout is the default timeout for child processes
const DefaultCommandTimeout = 5 * time.Minute

// Runner executes a single binary in a working directory
type Runner struct {
	Binary string
	Dir    string
	Env    []string
}

// NewRunner creates a new Runner
func NewRunner(binary, dir string) *Runner {
	return &Runner{Binary: binary, Dir: dir}
}

// WithEnv returns a copy of the runner with extra environment variables
func (r *Runner) WithEnv(env ...string) *Runner {
	cp := *r
	cp.Env = append(append([]string{}, r.Env...), env...)
	return &cp
}

// Run executes the command and returns trimmed stdout
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, "", true, args...)
}

// RunRaw executes the command and returns stdout untouched
func (r *Runner) RunRaw(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, "", false, args...)
}

// RunWithInput executes the command with the given stdin
func (r *Runner) RunWithInput(ctx context.Context, input string, args ...string) (string, error) {
	return r.runInternal(ctx, input, true, args...)
}

// RunLines executes the command and splits stdout into lines
func (r *Runner) RunLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

func (r *Runner) runInternal(ctx context.Context, input string, trim bool, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = ctx.Err()
		}
		return "", ngerrors.NewCommandError(r.Binary, args, stdout.String(), stderr.String(), exitCode(err), err)
	}
	if trim {
		return strings.TrimSpace(stdout.String()), nil
	}
	return stdout.String(), nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
