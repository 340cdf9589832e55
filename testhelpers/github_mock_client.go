package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	githubpkg "ngdev.dev/ngdev/internal/github"
)

// FakeGitHub is an in-memory githubpkg.Client. Every method call is appended to
// Calls so tests can assert that no API traffic happened.
type FakeGitHub struct {
	mu sync.Mutex

	OwnerName string
	RepoName  string

	PRs       map[int]*githubpkg.PullRequest
	PRCommits map[int][]githubpkg.Commit
	// MergedPRs marks PRs merged through GitHub
	MergedPRs map[int]bool
	// BranchCommits lists commits landed on each branch
	BranchCommits map[string][]githubpkg.Commit
	// Rollups maps refs to their combined CI state; missing refs are pending
	Rollups map[string]githubpkg.CheckState
	// Files maps "ref:path" to contents
	Files        map[string]string
	Branches     []githubpkg.Branch
	SearchCounts map[string]int
	Fork         *githubpkg.Fork
	// Errors makes the named method fail
	Errors map[string]error

	Calls         []string
	Comments      map[int][]string
	AddedLabels   map[int][]string
	RemovedLabels map[int][]string
	ClosedPRs     []int
	CreatedPRs    []githubpkg.CreatePROptions
	Releases      []githubpkg.ReleaseOptions
}

var _ githubpkg.Client = (*FakeGitHub)(nil)

// NewFakeGitHub creates an empty fake for owner/repo
func NewFakeGitHub() *FakeGitHub {
	return &FakeGitHub{
		OwnerName:     "angular",
		RepoName:      "angular",
		PRs:           make(map[int]*githubpkg.PullRequest),
		PRCommits:     make(map[int][]githubpkg.Commit),
		MergedPRs:     make(map[int]bool),
		BranchCommits: make(map[string][]githubpkg.Commit),
		Rollups:       make(map[string]githubpkg.CheckState),
		Files:         make(map[string]string),
		SearchCounts:  make(map[string]int),
		Errors:        make(map[string]error),
		Comments:      make(map[int][]string),
		AddedLabels:   make(map[int][]string),
		RemovedLabels: make(map[int][]string),
	}
}

func (f *FakeGitHub) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, method)
	return f.Errors[method]
}

// AddReleaseBranch registers a version branch whose package.json carries version
func (f *FakeGitHub) AddReleaseBranch(name, version string) {
	f.Branches = append(f.Branches, githubpkg.Branch{Name: name, SHA: "sha-" + name})
	f.Files[name+":package.json"] = `{"name": "angular-srcs", "version": "` + version + `"}`
}

func (f *FakeGitHub) Owner() string { return f.OwnerName }
func (f *FakeGitHub) Name() string  { return f.RepoName }

func (f *FakeGitHub) GetPullRequest(_ context.Context, number int) (*githubpkg.PullRequest, error) {
	if err := f.record("GetPullRequest"); err != nil {
		return nil, err
	}
	pr, ok := f.PRs[number]
	if !ok {
		return nil, fmt.Errorf("pull request #%d not found", number)
	}
	cp := *pr
	return &cp, nil
}

func (f *FakeGitHub) ListPullRequestCommits(_ context.Context, number int) ([]githubpkg.Commit, error) {
	if err := f.record("ListPullRequestCommits"); err != nil {
		return nil, err
	}
	return f.PRCommits[number], nil
}

func (f *FakeGitHub) ListOpenPullRequests(_ context.Context, base string) ([]*githubpkg.PullRequest, error) {
	if err := f.record("ListOpenPullRequests"); err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(f.PRs))
	for n := range f.PRs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	var prs []*githubpkg.PullRequest
	for _, n := range numbers {
		pr := f.PRs[n]
		if pr.State == "OPEN" && (base == "" || pr.BaseRefName == base) {
			prs = append(prs, pr)
		}
	}
	return prs, nil
}

func (f *FakeGitHub) CreatePullRequest(_ context.Context, opts githubpkg.CreatePROptions) (*githubpkg.PullRequest, error) {
	if err := f.record("CreatePullRequest"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedPRs = append(f.CreatedPRs, opts)
	number := 1000 + len(f.CreatedPRs)
	pr := &githubpkg.PullRequest{
		Number:      number,
		Title:       opts.Title,
		Body:        opts.Body,
		State:       "OPEN",
		URL:         "https://github.com/" + f.OwnerName + "/" + f.RepoName + "/pull/" + strconv.Itoa(number),
		BaseRefName: opts.Base,
		HeadRefName: opts.Head,
	}
	f.PRs[number] = pr
	return pr, nil
}

func (f *FakeGitHub) ClosePullRequest(_ context.Context, number int) error {
	if err := f.record("ClosePullRequest"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClosedPRs = append(f.ClosedPRs, number)
	if pr, ok := f.PRs[number]; ok {
		pr.State = "CLOSED"
	}
	return nil
}

func (f *FakeGitHub) GetMergeState(_ context.Context, number int) (githubpkg.MergeState, error) {
	if err := f.record("GetMergeState"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MergedPRs[number] {
		return githubpkg.MergeStateMerged, nil
	}
	pr, ok := f.PRs[number]
	if !ok {
		return "", fmt.Errorf("pull request #%d not found", number)
	}
	if pr.State != "CLOSED" {
		return githubpkg.MergeStateOpen, nil
	}
	for _, body := range f.Comments[number] {
		if strings.HasPrefix(body, githubpkg.MergedCommentPrefix) {
			return githubpkg.MergeStateMerged, nil
		}
	}
	for _, c := range f.BranchCommits[pr.BaseRefName] {
		if githubpkg.HasCloseTrailer(c.Message, number) {
			return githubpkg.MergeStateMerged, nil
		}
	}
	return githubpkg.MergeStateClosed, nil
}

// SetMerged marks a PR as merged through GitHub
func (f *FakeGitHub) SetMerged(number int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MergedPRs[number] = true
}

func (f *FakeGitHub) CreateComment(_ context.Context, number int, body string) error {
	if err := f.record("CreateComment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Comments[number] = append(f.Comments[number], body)
	return nil
}

func (f *FakeGitHub) AddLabels(_ context.Context, number int, labels ...string) error {
	if err := f.record("AddLabels"); err != nil {
		return err
	}
	f.AddedLabels[number] = append(f.AddedLabels[number], labels...)
	return nil
}

func (f *FakeGitHub) RemoveLabel(_ context.Context, number int, label string) error {
	if err := f.record("RemoveLabel"); err != nil {
		return err
	}
	f.RemovedLabels[number] = append(f.RemovedLabels[number], label)
	return nil
}

func (f *FakeGitHub) GetStatusRollup(_ context.Context, ref string) (githubpkg.CheckState, map[string]githubpkg.CheckState, error) {
	if err := f.record("GetStatusRollup"); err != nil {
		return "", nil, err
	}
	state, ok := f.Rollups[ref]
	if !ok {
		state = githubpkg.CheckPending
	}
	return state, map[string]githubpkg.CheckState{"ci": state}, nil
}

func (f *FakeGitHub) GetFileContents(_ context.Context, path, ref string) ([]byte, error) {
	if err := f.record("GetFileContents"); err != nil {
		return nil, err
	}
	content, ok := f.Files[ref+":"+path]
	if !ok {
		return nil, fmt.Errorf("%s not found at %s", path, ref)
	}
	return []byte(content), nil
}

func (f *FakeGitHub) ListBranches(_ context.Context) ([]githubpkg.Branch, error) {
	if err := f.record("ListBranches"); err != nil {
		return nil, err
	}
	return f.Branches, nil
}

func (f *FakeGitHub) CreateRelease(_ context.Context, opts githubpkg.ReleaseOptions) (string, error) {
	if err := f.record("CreateRelease"); err != nil {
		return "", err
	}
	f.Releases = append(f.Releases, opts)
	return "https://github.com/" + f.OwnerName + "/" + f.RepoName + "/releases/tag/" + opts.TagName, nil
}

func (f *FakeGitHub) SearchIssuesCount(_ context.Context, query string) (int, error) {
	if err := f.record("SearchIssuesCount"); err != nil {
		return 0, err
	}
	return f.SearchCounts[query], nil
}

func (f *FakeGitHub) FindUserFork(_ context.Context) (*githubpkg.Fork, error) {
	if err := f.record("FindUserFork"); err != nil {
		return nil, err
	}
	if f.Fork == nil {
		return nil, fmt.Errorf("no fork of %s/%s", f.OwnerName, f.RepoName)
	}
	return f.Fork, nil
}
