// Package testhelpers provides throwaway git repositories, a mock GitHub server,
// and in-memory fakes for tests.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const textFileName = "test.txt"

// GitRepo represents a Git repository for testing purposes.
type GitRepo struct {
	Dir string
	// RemoteDir is the bare repository registered as "origin", if any
	RemoteDir string
}

// NewGitRepo initializes a new Git repository in the specified directory using 'git init'.
func NewGitRepo(dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = gitEnv()
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w: %s", err, out)
	}

	repo := &GitRepo{Dir: dir}
	// Configure Git user (required for commits)
	if err := repo.RunGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.RunGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	if err := repo.RunGitCommand("config", "commit.gpgsign", "false"); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewTestRepo creates a repository with one initial commit in a temp dir and fails
// the test on error.
func NewTestRepo(t *testing.T) *GitRepo {
	t.Helper()
	repo, err := NewGitRepo(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	if err := repo.CreateChangeAndCommit("initial", ""); err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}
	return repo
}

// NewTestRepoWithRemote creates a repository with an initial commit pushed to a bare
// "origin" remote.
func NewTestRepoWithRemote(t *testing.T) *GitRepo {
	t.Helper()
	repo := NewTestRepo(t)

	remoteDir := filepath.Join(t.TempDir(), "origin.git")
	cmd := exec.Command("git", "init", "--bare", "-b", "main", remoteDir)
	cmd.Env = gitEnv()
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to init bare remote: %v: %s", err, out)
	}
	repo.RemoteDir = remoteDir
	if err := repo.RunGitCommand("remote", "add", "origin", remoteDir); err != nil {
		t.Fatalf("failed to add remote: %v", err)
	}
	if err := repo.RunGitCommand("push", "-q", "origin", "main"); err != nil {
		t.Fatalf("failed to push main: %v", err)
	}
	return repo
}

func gitEnv() []string {
	// Avoid reading global git config for faster, reproducible operations
	return append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1")
}

// RunGitCommand executes a git command in the repository directory.
func (r *GitRepo) RunGitCommand(args ...string) error {
	_, err := r.RunGitCommandAndGetOutput(args...)
	return err
}

// RunGitCommandAndGetOutput executes a git command and returns its trimmed output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = gitEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

// RunInRemote executes a git command inside the bare remote.
func (r *GitRepo) RunInRemote(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.RemoteDir
	cmd.Env = gitEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed in remote: %w: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

// WriteFile writes content to a path relative to the repository root.
func (r *GitRepo) WriteFile(relPath, content string) error {
	filePath := filepath.Join(r.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(filePath, []byte(content), 0600)
}

// CreateChange creates a file change in the repository.
func (r *GitRepo) CreateChange(textValue string, prefix string, unstaged bool) error {
	fileName := textFileName
	if prefix != "" {
		fileName = prefix + "_" + fileName
	}
	if err := r.WriteFile(fileName, textValue); err != nil {
		return err
	}
	if !unstaged {
		return r.RunGitCommand("add", fileName)
	}
	return nil
}

// CreateChangeAndCommit creates a file change and commits it with textValue as the message.
func (r *GitRepo) CreateChangeAndCommit(textValue string, prefix string) error {
	if err := r.CreateChange(textValue, prefix, false); err != nil {
		return err
	}
	return r.RunGitCommand("commit", "-q", "-m", textValue)
}

// CommitFile writes a file and commits it with the given message.
func (r *GitRepo) CommitFile(relPath, content, message string) error {
	if err := r.WriteFile(relPath, content); err != nil {
		return err
	}
	if err := r.RunGitCommand("add", relPath); err != nil {
		return err
	}
	return r.RunGitCommand("commit", "-q", "-m", message)
}

// CreateBranch creates a new branch without checking it out.
func (r *GitRepo) CreateBranch(name string) error {
	return r.RunGitCommand("branch", name)
}

// CreateAndCheckoutBranch creates and checks out a new branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.RunGitCommand("checkout", "-q", "-b", name)
}

// CheckoutBranch checks out a branch.
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.RunGitCommand("checkout", "-q", name)
}

// CurrentBranchName returns the name of the current branch.
func (r *GitRepo) CurrentBranchName() (string, error) {
	return r.RunGitCommandAndGetOutput("branch", "--show-current")
}

// GetRef returns the SHA of a revision.
func (r *GitRepo) GetRef(refName string) (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", refName)
}

// InstallRemoteHook installs an executable hook (e.g. pre-receive) into the bare remote.
func (r *GitRepo) InstallRemoteHook(name, script string) error {
	hookPath := filepath.Join(r.RemoteDir, "hooks", name)
	if err := os.MkdirAll(filepath.Dir(hookPath), 0700); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}
	// nolint:gosec // Hook must be executable
	return os.WriteFile(hookPath, []byte(script), 0700)
}
