// Package errors provides sentinel errors and custom error types for ng-dev.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrUnexpectedLocalChanges indicates that the working tree has uncommitted changes
	ErrUnexpectedLocalChanges = errors.New("unexpected local changes")

	// ErrPullRequestNotFound indicates that a pull request or its head ref could not be fetched
	ErrPullRequestNotFound = errors.New("pull request not found")

	// ErrMaintainerModifyAccess indicates that the PR author did not grant maintainers push access
	ErrMaintainerModifyAccess = errors.New("maintainer cannot modify pull request")

	// ErrConfigInvalid indicates that the loaded configuration failed validation
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrPullRequestFailure indicates that a pull request cannot be merged as requested
	ErrPullRequestFailure = errors.New("pull request failure")

	// ErrMergeConflicts indicates that a merge could not be applied to one or more branches
	ErrMergeConflicts = errors.New("merge conflicts")

	// ErrCommandFailed indicates that a child process exited unsuccessfully
	ErrCommandFailed = errors.New("command failed")

	// ErrUserAborted indicates that the operator declined a confirmation prompt
	ErrUserAborted = errors.New("aborted by user")
)

// CommandError represents an error from a child process execution
type CommandError struct {
	Command  string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrCommandFailed
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, stdout, stderr string, exitCode int, err error) *CommandError {
	return &CommandError{
		Command:  command,
		Args:     args,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Err:      err,
	}
}

// UnexpectedLocalChangesError is returned when an operation requires a clean working tree
type UnexpectedLocalChangesError struct {
	Message string
}

func (e *UnexpectedLocalChangesError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "there are uncommitted changes in the working tree; commit or stash them first"
}

// Is returns true if the target error is ErrUnexpectedLocalChanges
func (e *UnexpectedLocalChangesError) Is(target error) bool {
	return target == ErrUnexpectedLocalChanges
}

// NewUnexpectedLocalChangesError creates a new UnexpectedLocalChangesError
func NewUnexpectedLocalChangesError(message string) *UnexpectedLocalChangesError {
	return &UnexpectedLocalChangesError{Message: message}
}

// PullRequestNotFoundError is returned when a PR or its head cannot be fetched
type PullRequestNotFoundError struct {
	Number int
	Err    error
}

func (e *PullRequestNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pull request #%d could not be found: %v", e.Number, e.Err)
	}
	return fmt.Sprintf("pull request #%d could not be found", e.Number)
}

func (e *PullRequestNotFoundError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrPullRequestNotFound
func (e *PullRequestNotFoundError) Is(target error) bool {
	return target == ErrPullRequestNotFound
}

// NewPullRequestNotFoundError creates a new PullRequestNotFoundError
func NewPullRequestNotFoundError(number int, err error) *PullRequestNotFoundError {
	return &PullRequestNotFoundError{Number: number, Err: err}
}

// MaintainerModifyAccessError is returned when pushing back to a PR requires access the author withheld
type MaintainerModifyAccessError struct {
	Number int
}

func (e *MaintainerModifyAccessError) Error() string {
	return fmt.Sprintf("pull request #%d does not allow maintainers to modify it", e.Number)
}

// Is returns true if the target error is ErrMaintainerModifyAccess
func (e *MaintainerModifyAccessError) Is(target error) bool {
	return target == ErrMaintainerModifyAccess
}

// NewMaintainerModifyAccessError creates a new MaintainerModifyAccessError
func NewMaintainerModifyAccessError(number int) *MaintainerModifyAccessError {
	return &MaintainerModifyAccessError{Number: number}
}

// ConfigValidationError aggregates every problem found while validating configuration
type ConfigValidationError struct {
	Problems []string
}

func (e *ConfigValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ng-dev configuration:")
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// Is returns true if the target error is ErrConfigInvalid
func (e *ConfigValidationError) Is(target error) bool {
	return target == ErrConfigInvalid
}

// NewConfigValidationError creates a new ConfigValidationError
func NewConfigValidationError(problems []string) *ConfigValidationError {
	return &ConfigValidationError{Problems: problems}
}

// PullRequestFailure describes why a pull request cannot be merged
type PullRequestFailure struct {
	Message string
}

func (e *PullRequestFailure) Error() string {
	return e.Message
}

// Is returns true if the target error is ErrPullRequestFailure
func (e *PullRequestFailure) Is(target error) bool {
	return target == ErrPullRequestFailure
}

// NewPullRequestFailure creates a new PullRequestFailure
func NewPullRequestFailure(format string, args ...any) *PullRequestFailure {
	return &PullRequestFailure{Message: fmt.Sprintf(format, args...)}
}

// MergeConflictsError reports which target branches a merge landed on and which it did not
type MergeConflictsError struct {
	Succeeded []string
	Failed    []string
	Err       error
}

func (e *MergeConflictsError) Error() string {
	msg := fmt.Sprintf("could not merge into: %s", strings.Join(e.Failed, ", "))
	if len(e.Succeeded) > 0 {
		msg += fmt.Sprintf(" (already merged into: %s)", strings.Join(e.Succeeded, ", "))
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *MergeConflictsError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrMergeConflicts
func (e *MergeConflictsError) Is(target error) bool {
	return target == ErrMergeConflicts
}

// NewMergeConflictsError creates a new MergeConflictsError
func NewMergeConflictsError(succeeded, failed []string, err error) *MergeConflictsError {
	return &MergeConflictsError{Succeeded: succeeded, Failed: failed, Err: err}
}
