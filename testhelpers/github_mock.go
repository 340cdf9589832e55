package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-github/v62/github"

	githubpkg "ngdev.dev/ngdev/internal/github"
)

// MockGitHubServerConfig configures the behavior of a mock GitHub server and
// records the writes made against it.
type MockGitHubServerConfig struct {
	Owner string
	Repo  string

	// PRs maps PR numbers to PR data
	PRs map[int]*github.PullRequest
	// PRCommits maps PR numbers to their commits
	PRCommits map[int][]*github.RepositoryCommit
	// MergedPRs marks PRs merged through GitHub
	MergedPRs map[int]bool
	// BranchCommits maps branch names to the commits listed for them
	BranchCommits map[string][]*github.RepositoryCommit
	// Statuses maps refs to commit statuses
	Statuses map[string][]*github.RepoStatus
	// CheckRuns maps refs to check runs
	CheckRuns map[string][]*github.CheckRun
	// Files maps "ref:path" to file contents
	Files map[string]string
	// Branches lists repository branches
	Branches []*github.Branch
	// SearchTotals maps full search queries to result counts
	SearchTotals map[string]int
	// ForkOwner and ForkName describe the viewer's fork; empty means no fork
	ForkOwner string
	ForkName  string
	// FailStatusRefs makes status lookups for these refs fail
	FailStatusRefs map[string]bool

	mu            sync.Mutex
	Comments      map[int][]string
	AddedLabels   map[int][]string
	RemovedLabels map[int][]string
	ClosedPRs     []int
	CreatedPRs    []*github.NewPullRequest
	Releases      []*github.RepositoryRelease
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		Owner:          "owner",
		Repo:           "repo",
		PRs:            make(map[int]*github.PullRequest),
		PRCommits:      make(map[int][]*github.RepositoryCommit),
		MergedPRs:      make(map[int]bool),
		BranchCommits:  make(map[string][]*github.RepositoryCommit),
		Statuses:       make(map[string][]*github.RepoStatus),
		CheckRuns:      make(map[string][]*github.CheckRun),
		Files:          make(map[string]string),
		SearchTotals:   make(map[string]int),
		FailStatusRefs: make(map[string]bool),
		Comments:       make(map[int][]string),
		AddedLabels:    make(map[int][]string),
		RemovedLabels:  make(map[int][]string),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func prNumber(r *http.Request) int {
	n, _ := strconv.Atoi(r.PathValue("number"))
	return n
}

// NewMockGitHubServer creates an httptest server that mocks the GitHub endpoints ng-dev uses
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}
	base := "/repos/" + config.Owner + "/" + config.Repo
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+base+"/pulls/{number}", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		n := prNumber(r)
		pr, ok := config.PRs[n]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		if config.MergedPRs[n] {
			merged := *pr
			merged.Merged = github.Bool(true)
			merged.State = github.String("closed")
			pr = &merged
		}
		writeJSON(w, http.StatusOK, pr)
	})

	mux.HandleFunc("GET "+base+"/pulls/{number}/commits", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		commits := config.PRCommits[prNumber(r)]
		if commits == nil {
			commits = []*github.RepositoryCommit{}
		}
		writeJSON(w, http.StatusOK, commits)
	})

	mux.HandleFunc("GET "+base+"/pulls", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		baseRef := r.URL.Query().Get("base")
		var prs []*github.PullRequest
		for _, pr := range config.PRs {
			if pr.GetState() != "open" {
				continue
			}
			if baseRef != "" && pr.GetBase().GetRef() != baseRef {
				continue
			}
			prs = append(prs, pr)
		}
		if prs == nil {
			prs = []*github.PullRequest{}
		}
		writeJSON(w, http.StatusOK, prs)
	})

	mux.HandleFunc("POST "+base+"/pulls", func(w http.ResponseWriter, r *http.Request) {
		var req github.NewPullRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		config.mu.Lock()
		defer config.mu.Unlock()
		config.CreatedPRs = append(config.CreatedPRs, &req)
		number := 1000 + len(config.CreatedPRs)
		pr := &github.PullRequest{
			Number:  github.Int(number),
			Title:   req.Title,
			Body:    req.Body,
			State:   github.String("open"),
			HTMLURL: github.String("https://github.com/" + config.Owner + "/" + config.Repo + "/pull/" + strconv.Itoa(number)),
			Base:    &github.PullRequestBranch{Ref: req.Base},
			Head:    &github.PullRequestBranch{Ref: req.Head},
		}
		config.PRs[number] = pr
		writeJSON(w, http.StatusCreated, pr)
	})

	mux.HandleFunc("PATCH "+base+"/pulls/{number}", func(w http.ResponseWriter, r *http.Request) {
		var update struct {
			State *string `json:"state,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		config.mu.Lock()
		defer config.mu.Unlock()
		n := prNumber(r)
		pr, ok := config.PRs[n]
		if !ok {
			pr = &github.PullRequest{Number: github.Int(n)}
			config.PRs[n] = pr
		}
		if update.State != nil {
			pr.State = update.State
			if *update.State == "closed" {
				config.ClosedPRs = append(config.ClosedPRs, n)
			}
		}
		writeJSON(w, http.StatusOK, pr)
	})

	mux.HandleFunc("POST "+base+"/issues/{number}/comments", func(w http.ResponseWriter, r *http.Request) {
		var comment github.IssueComment
		if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		config.mu.Lock()
		defer config.mu.Unlock()
		n := prNumber(r)
		config.Comments[n] = append(config.Comments[n], comment.GetBody())
		writeJSON(w, http.StatusCreated, comment)
	})

	mux.HandleFunc("GET "+base+"/issues/{number}/comments", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		comments := []*github.IssueComment{}
		for _, body := range config.Comments[prNumber(r)] {
			comments = append(comments, &github.IssueComment{Body: github.String(body)})
		}
		writeJSON(w, http.StatusOK, comments)
	})

	mux.HandleFunc("GET "+base+"/commits", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		commits := config.BranchCommits[r.URL.Query().Get("sha")]
		if commits == nil {
			commits = []*github.RepositoryCommit{}
		}
		writeJSON(w, http.StatusOK, commits)
	})

	mux.HandleFunc("POST "+base+"/issues/{number}/labels", func(w http.ResponseWriter, r *http.Request) {
		var labels []string
		if err := json.NewDecoder(r.Body).Decode(&labels); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		config.mu.Lock()
		defer config.mu.Unlock()
		n := prNumber(r)
		config.AddedLabels[n] = append(config.AddedLabels[n], labels...)
		result := make([]*github.Label, 0, len(labels))
		for _, l := range labels {
			result = append(result, &github.Label{Name: github.String(l)})
		}
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("DELETE "+base+"/issues/{number}/labels/{label}", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		n := prNumber(r)
		label, _ := url.PathUnescape(r.PathValue("label"))
		config.RemovedLabels[n] = append(config.RemovedLabels[n], label)
		writeJSON(w, http.StatusOK, []*github.Label{})
	})

	mux.HandleFunc("GET "+base+"/commits/{ref}/status", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		ref := r.PathValue("ref")
		if config.FailStatusRefs[ref] {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		statuses := config.Statuses[ref]
		if statuses == nil {
			statuses = []*github.RepoStatus{}
		}
		writeJSON(w, http.StatusOK, &github.CombinedStatus{SHA: github.String(ref), Statuses: statuses, TotalCount: github.Int(len(statuses))})
	})

	mux.HandleFunc("GET "+base+"/commits/{ref}/check-runs", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		runs := config.CheckRuns[r.PathValue("ref")]
		if runs == nil {
			runs = []*github.CheckRun{}
		}
		writeJSON(w, http.StatusOK, &github.ListCheckRunsResults{Total: github.Int(len(runs)), CheckRuns: runs})
	})

	mux.HandleFunc("GET "+base+"/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		path := r.PathValue("path")
		content, ok := config.Files[r.URL.Query().Get("ref")+":"+path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     path,
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	mux.HandleFunc("GET "+base+"/branches", func(w http.ResponseWriter, _ *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		branches := config.Branches
		if branches == nil {
			branches = []*github.Branch{}
		}
		writeJSON(w, http.StatusOK, branches)
	})

	mux.HandleFunc("POST "+base+"/releases", func(w http.ResponseWriter, r *http.Request) {
		var release github.RepositoryRelease
		if err := json.NewDecoder(r.Body).Decode(&release); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		config.mu.Lock()
		defer config.mu.Unlock()
		release.HTMLURL = github.String("https://github.com/" + config.Owner + "/" + config.Repo + "/releases/tag/" + release.GetTagName())
		config.Releases = append(config.Releases, &release)
		writeJSON(w, http.StatusCreated, release)
	})

	mux.HandleFunc("GET /search/issues", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		total := config.SearchTotals[r.URL.Query().Get("q")]
		writeJSON(w, http.StatusOK, &github.IssuesSearchResult{Total: github.Int(total), Issues: []*github.Issue{}})
	})

	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, _ *http.Request) {
		config.mu.Lock()
		defer config.mu.Unlock()
		nodes := []map[string]any{}
		if config.ForkOwner != "" {
			nodes = append(nodes, map[string]any{"name": config.ForkName, "owner": map[string]string{"login": config.ForkOwner}})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"repository": map[string]any{"forks": map[string]any{"nodes": nodes}}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// NewMockGitHubClient starts a mock server and returns a client pointed at it
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) *githubpkg.RESTClient {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}
	server := NewMockGitHubServer(t, config)

	client := github.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("failed to parse mock server URL: %v", err)
	}
	client.BaseURL = baseURL
	client.UploadURL = baseURL
	return githubpkg.NewRESTClientFromGitHub(client, config.Owner, config.Repo)
}

// CommentsOn returns the comments recorded for a PR
func (c *MockGitHubServerConfig) CommentsOn(number int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Comments[number]...)
}

// LabelsAddedTo returns the labels added to a PR
func (c *MockGitHubServerConfig) LabelsAddedTo(number int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.AddedLabels[number]...)
}

// LabelsRemovedFrom returns the labels removed from a PR
func (c *MockGitHubServerConfig) LabelsRemovedFrom(number int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.RemovedLabels[number]...)
}

// Closed returns the numbers of PRs closed through the API
func (c *MockGitHubServerConfig) Closed() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.ClosedPRs...)
}

// CreatedReleases returns the releases created through the API
func (c *MockGitHubServerConfig) CreatedReleases() []*github.RepositoryRelease {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*github.RepositoryRelease(nil), c.Releases...)
}
