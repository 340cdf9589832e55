package git

import (
	"fmt"
	"os"

	gogit "github.com/go-git/go-git/v5"
)

// FindRepoRoot returns the root directory of the Git repository containing dir.
// An empty dir means the current working directory.
func FindRepoRoot(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	return worktree.Filesystem.Root(), nil
}

// OpenRepo resolves the repository root for dir and returns a Repo for it
func OpenRepo(dir string) (*Repo, error) {
	root, err := FindRepoRoot(dir)
	if err != nil {
		return nil, err
	}
	return NewRepo(root), nil
}

// HeadRef reads HEAD through go-git and returns the branch name, or the commit SHA
// when HEAD is detached.
func (r *Repo) HeadRef() (string, error) {
	repo, err := gogit.PlainOpen(r.root)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}
