package git

import "context"

// Client defines the git operations used by the pull request and release tooling.
// *Repo implements it; tests substitute in-memory fakes.
type Client interface {
	RepoRoot() string
	HasUncommittedChanges(ctx context.Context) (bool, error)
	CurrentRef(ctx context.Context) (string, error)
	RevParse(ctx context.Context, rev string) (string, error)
	Checkout(ctx context.Context, ref string) error
	CheckoutNewBranch(ctx context.Context, name, startPoint string) error
	DeleteBranch(ctx context.Context, name string) error
	ResetHard(ctx context.Context, ref string) error
	Fetch(ctx context.Context, remote string, refspecs ...string) error
	Push(ctx context.Context, remote string, force bool, refspecs ...string) error
	CommitsInRange(ctx context.Context, from, to string) ([]RawCommit, error)
	RebaseAutosquash(ctx context.Context, onto string) error
	CherryPick(ctx context.Context, sha string) error
	SquashMerge(ctx context.Context, ref string) error
	TryMerge(ctx context.Context, ref string) (bool, error)
	Commit(ctx context.Context, message string, paths ...string) error
	AmendMessage(ctx context.Context, message string) error
	Add(ctx context.Context, paths ...string) error
	CreateTag(ctx context.Context, name, sha, message string) error
	ListFiles(ctx context.Context) ([]string, error)
	ChangedFiles(ctx context.Context, base string) ([]string, error)
	StagedFiles(ctx context.Context) ([]string, error)
}

var _ Client = (*Repo)(nil)
