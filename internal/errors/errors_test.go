package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrors(t *testing.T) {
	t.Parallel()

	t.Run("typed errors match their sentinel through wrapping", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			err      error
			sentinel error
		}{
			{NewUnexpectedLocalChangesError(""), ErrUnexpectedLocalChanges},
			{NewPullRequestNotFoundError(12, nil), ErrPullRequestNotFound},
			{NewMaintainerModifyAccessError(12), ErrMaintainerModifyAccess},
			{NewConfigValidationError([]string{"missing github.owner"}), ErrConfigInvalid},
			{NewPullRequestFailure("bad %s", "label"), ErrPullRequestFailure},
			{NewMergeConflictsError([]string{"main"}, []string{"17.1.x"}, nil), ErrMergeConflicts},
			{NewCommandError("git", []string{"push"}, "", "denied", 1, nil), ErrCommandFailed},
		}
		for _, c := range cases {
			wrapped := fmt.Errorf("outer: %w", c.err)
			require.True(t, errors.Is(wrapped, c.sentinel), c.err.Error())
		}
	})

	t.Run("config validation error lists every problem", func(t *testing.T) {
		t.Parallel()
		err := NewConfigValidationError([]string{"missing github.owner", "missing github.name"})
		require.Contains(t, err.Error(), "missing github.owner")
		require.Contains(t, err.Error(), "missing github.name")
	})

	t.Run("merge conflicts error names both branch sets", func(t *testing.T) {
		t.Parallel()
		err := NewMergeConflictsError([]string{"main"}, []string{"17.1.x"}, nil)
		require.Contains(t, err.Error(), "17.1.x")
		require.Contains(t, err.Error(), "main")
	})

	t.Run("command error keeps exit code and stderr", func(t *testing.T) {
		t.Parallel()
		err := NewCommandError("npm", []string{"publish"}, "", "E403", 1, nil)
		require.Contains(t, err.Error(), "exit code 1")
		require.Contains(t, err.Error(), "E403")
	})
}
