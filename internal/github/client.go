// Package github provides a client for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"strings"
)

// CheckState is the rolled-up state of a set of CI statuses
type CheckState string

const (
	CheckSuccess CheckState = "SUCCESS"
	CheckPending CheckState = "PENDING"
	CheckFailure CheckState = "FAILURE"
)

// MergeState is where a pull request stands with respect to landing
type MergeState string

const (
	MergeStateOpen   MergeState = "OPEN"
	MergeStateMerged MergeState = "MERGED"
	// MergeStateClosed is a PR closed without landing
	MergeStateClosed MergeState = "CLOSED"
)

// MergedCommentPrefix starts the comment left on a PR landed by pushing its
// commits. Such PRs are closed, not merged, on GitHub.
const MergedCommentPrefix = "This PR was merged into the repository."

// CloseTrailer is the trailer line marking a commit as landing PR #number
func CloseTrailer(number int) string {
	return fmt.Sprintf("PR Close #%d", number)
}

// HasCloseTrailer reports whether message carries the close trailer for number
func HasCloseTrailer(message string, number int) bool {
	trailer := CloseTrailer(number)
	for _, line := range strings.Split(message, "\n") {
		if strings.TrimSpace(line) == trailer {
			return true
		}
	}
	return false
}

// PullRequest is the pull request as consumed by the merge and release tooling.
// It is fetched fresh for every command invocation.
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	URL       string
	Author    string
	State     string // OPEN, CLOSED or MERGED
	Labels    []string
	IsDraft   bool
	Merged    bool
	Mergeable string // MERGEABLE, CONFLICTING or UNKNOWN

	BaseRefName string
	HeadRefName string
	HeadSHA     string
	HeadOwner   string
	HeadRepo    string

	AuthorCanModify bool

	// StatusCheckRollup combines commit statuses and check runs on the head commit
	StatusCheckRollup CheckState
	// Statuses maps each status context or check run name to its state
	Statuses map[string]CheckState
}

// HasLabel reports whether the PR carries the given label
func (p *PullRequest) HasLabel(name string) bool {
	for _, l := range p.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// Commit is a commit on a pull request
type Commit struct {
	SHA     string
	Message string
}

// Branch is a repository branch
type Branch struct {
	Name string
	SHA  string
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	// Head is "owner:branch" for forks or just "branch"
	Head string
	Base string
}

// ReleaseOptions describes a GitHub release
type ReleaseOptions struct {
	TagName    string
	TargetSHA  string
	Name       string
	Body       string
	Prerelease bool
}

// Fork identifies a repository fork
type Fork struct {
	Owner string
	Name  string
}

// Client is the subset of the GitHub API used by ng-dev
type Client interface {
	// Owner returns the upstream repository owner
	Owner() string
	// Name returns the upstream repository name
	Name() string

	GetPullRequest(ctx context.Context, number int) (*PullRequest, error)
	ListPullRequestCommits(ctx context.Context, number int) ([]Commit, error)
	ListOpenPullRequests(ctx context.Context, base string) ([]*PullRequest, error)
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequest, error)
	ClosePullRequest(ctx context.Context, number int) error
	// GetMergeState reports whether a PR is open, landed or closed without landing.
	// A closed PR counts as landed when it carries the merged comment or its base
	// branch has a commit with its close trailer.
	GetMergeState(ctx context.Context, number int) (MergeState, error)

	CreateComment(ctx context.Context, number int, body string) error
	AddLabels(ctx context.Context, number int, labels ...string) error
	RemoveLabel(ctx context.Context, number int, label string) error

	GetStatusRollup(ctx context.Context, ref string) (CheckState, map[string]CheckState, error)
	GetFileContents(ctx context.Context, path, ref string) ([]byte, error)
	ListBranches(ctx context.Context) ([]Branch, error)
	CreateRelease(ctx context.Context, opts ReleaseOptions) (string, error)
	SearchIssuesCount(ctx context.Context, query string) (int, error)

	// FindUserFork returns the authenticated user's fork of the upstream repository
	FindUserFork(ctx context.Context) (*Fork, error)
}
