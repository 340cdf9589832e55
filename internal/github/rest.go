package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// RESTClient implements Client on top of go-github, with GraphQL calls sent
// through the same authenticated HTTP client.
type RESTClient struct {
	client     *github.Client
	owner      string
	name       string
	graphqlURL string
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient creates a client for owner/name on hostname authenticated with token.
// Supports both github.com and GitHub Enterprise instances.
func NewRESTClient(ctx context.Context, hostname, token, owner, name string) (*RESTClient, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if hostname != "" && hostname != "github.com" {
		// GitHub Enterprise API endpoints
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
		}
		client.BaseURL = baseURL
		client.UploadURL = uploadURL
	}

	return NewRESTClientFromGitHub(client, owner, name), nil
}

// NewRESTClientFromGitHub wraps an existing go-github client. The GraphQL endpoint is
// derived from the client's BaseURL.
func NewRESTClientFromGitHub(client *github.Client, owner, name string) *RESTClient {
	return &RESTClient{
		client:     client,
		owner:      owner,
		name:       name,
		graphqlURL: graphqlEndpoint(client.BaseURL),
	}
}

func graphqlEndpoint(base *url.URL) string {
	u := *base
	p := strings.TrimSuffix(u.Path, "/")
	p = strings.TrimSuffix(p, "/v3")
	u.Path = p + "/graphql"
	return u.String()
}

// Owner returns the upstream repository owner
func (c *RESTClient) Owner() string { return c.owner }

// Name returns the upstream repository name
func (c *RESTClient) Name() string { return c.name }

// GetPullRequest fetches a pull request together with its CI status rollup
func (c *RESTClient) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request #%d: %w", number, err)
	}
	result := toPullRequest(pr)
	rollup, statuses, err := c.GetStatusRollup(ctx, result.HeadSHA)
	if err != nil {
		return nil, err
	}
	result.StatusCheckRollup = rollup
	result.Statuses = statuses
	return result, nil
}

func toPullRequest(pr *github.PullRequest) *PullRequest {
	result := &PullRequest{
		Number:          pr.GetNumber(),
		Title:           pr.GetTitle(),
		Body:            pr.GetBody(),
		URL:             pr.GetHTMLURL(),
		Author:          pr.GetUser().GetLogin(),
		IsDraft:         pr.GetDraft(),
		Merged:          pr.GetMerged(),
		BaseRefName:     pr.GetBase().GetRef(),
		HeadRefName:     pr.GetHead().GetRef(),
		HeadSHA:         pr.GetHead().GetSHA(),
		HeadOwner:       pr.GetHead().GetRepo().GetOwner().GetLogin(),
		HeadRepo:        pr.GetHead().GetRepo().GetName(),
		AuthorCanModify: pr.GetMaintainerCanModify(),
	}
	for _, l := range pr.Labels {
		result.Labels = append(result.Labels, l.GetName())
	}

	switch {
	case result.Merged:
		result.State = "MERGED"
	case strings.EqualFold(pr.GetState(), "closed"):
		result.State = "CLOSED"
	default:
		result.State = "OPEN"
	}

	switch {
	case pr.Mergeable == nil:
		result.Mergeable = "UNKNOWN"
	case pr.GetMergeable():
		result.Mergeable = "MERGEABLE"
	default:
		result.Mergeable = "CONFLICTING"
	}
	return result
}

// ListPullRequestCommits lists the commits of a pull request, oldest first
func (c *RESTClient) ListPullRequestCommits(ctx context.Context, number int) ([]Commit, error) {
	var commits []Commit
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.client.PullRequests.ListCommits(ctx, c.owner, c.name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits of #%d: %w", number, err)
		}
		for _, rc := range page {
			commits = append(commits, Commit{SHA: rc.GetSHA(), Message: rc.GetCommit().GetMessage()})
		}
		if resp == nil || resp.NextPage == 0 {
			return commits, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListOpenPullRequests lists open pull requests targeting base. Status rollups are not populated.
func (c *RESTClient) ListOpenPullRequests(ctx context.Context, base string) ([]*PullRequest, error) {
	var prs []*PullRequest
	opts := &github.PullRequestListOptions{State: "open", Base: base, ListOptions: github.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.client.PullRequests.List(ctx, c.owner, c.name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list open pull requests: %w", err)
		}
		for _, pr := range page {
			prs = append(prs, toPullRequest(pr))
		}
		if resp == nil || resp.NextPage == 0 {
			return prs, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreatePullRequest opens a pull request against the upstream repository
func (c *RESTClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequest, error) {
	pr := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(opts.Head),
		Base:  github.String(opts.Base),
	}
	if opts.Body != "" {
		pr.Body = github.String(opts.Body)
	}
	created, _, err := c.client.PullRequests.Create(ctx, c.owner, c.name, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return toPullRequest(created), nil
}

// ClosePullRequest closes a pull request without merging it
func (c *RESTClient) ClosePullRequest(ctx context.Context, number int) error {
	_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.name, number, &github.PullRequest{State: github.String("closed")})
	if err != nil {
		return fmt.Errorf("failed to close pull request #%d: %w", number, err)
	}
	return nil
}

// GetMergeState reports whether a pull request is open, landed or closed without landing
func (c *RESTClient) GetMergeState(ctx context.Context, number int) (MergeState, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.name, number)
	if err != nil {
		return "", fmt.Errorf("failed to check merge state of #%d: %w", number, err)
	}
	if pr.GetMerged() {
		return MergeStateMerged, nil
	}
	if pr.GetState() != "closed" {
		return MergeStateOpen, nil
	}

	comments, _, err := c.client.Issues.ListComments(ctx, c.owner, c.name, number, &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list comments of #%d: %w", number, err)
	}
	for _, comment := range comments {
		if strings.HasPrefix(comment.GetBody(), MergedCommentPrefix) {
			return MergeStateMerged, nil
		}
	}

	commits, _, err := c.client.Repositories.ListCommits(ctx, c.owner, c.name, &github.CommitsListOptions{
		SHA:         pr.GetBase().GetRef(),
		Since:       pr.GetCreatedAt().Time,
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list commits of %s: %w", pr.GetBase().GetRef(), err)
	}
	for _, commit := range commits {
		if HasCloseTrailer(commit.GetCommit().GetMessage(), number) {
			return MergeStateMerged, nil
		}
	}
	return MergeStateClosed, nil
}

// CreateComment comments on a pull request or issue
func (c *RESTClient) CreateComment(ctx context.Context, number int, body string) error {
	_, _, err := c.client.Issues.CreateComment(ctx, c.owner, c.name, number, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return fmt.Errorf("failed to comment on #%d: %w", number, err)
	}
	return nil
}

// AddLabels adds labels to a pull request or issue
func (c *RESTClient) AddLabels(ctx context.Context, number int, labels ...string) error {
	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, c.owner, c.name, number, labels)
	if err != nil {
		return fmt.Errorf("failed to label #%d: %w", number, err)
	}
	return nil
}

// RemoveLabel removes a label from a pull request or issue
func (c *RESTClient) RemoveLabel(ctx context.Context, number int, label string) error {
	_, err := c.client.Issues.RemoveLabelForIssue(ctx, c.owner, c.name, number, label)
	if err != nil {
		return fmt.Errorf("failed to remove label %q from #%d: %w", label, number, err)
	}
	return nil
}

// GetStatusRollup combines commit statuses and check runs for ref
func (c *RESTClient) GetStatusRollup(ctx context.Context, ref string) (CheckState, map[string]CheckState, error) {
	statuses := make(map[string]CheckState)

	combined, _, err := c.client.Repositories.GetCombinedStatus(ctx, c.owner, c.name, ref, &github.ListOptions{PerPage: 100})
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch statuses for %s: %w", ref, err)
	}
	for _, s := range combined.Statuses {
		statuses[s.GetContext()] = statusState(s.GetState())
	}

	runs, _, err := c.client.Checks.ListCheckRunsForRef(ctx, c.owner, c.name, ref, &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: 100}})
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch check runs for %s: %w", ref, err)
	}
	for _, run := range runs.CheckRuns {
		statuses[run.GetName()] = checkRunState(run.GetStatus(), run.GetConclusion())
	}

	return Rollup(statuses), statuses, nil
}

// Rollup reduces individual states: any failure fails, then any pending is pending.
// No statuses at all counts as pending.
func Rollup(statuses map[string]CheckState) CheckState {
	if len(statuses) == 0 {
		return CheckPending
	}
	result := CheckSuccess
	for _, s := range statuses {
		switch s {
		case CheckFailure:
			return CheckFailure
		case CheckPending:
			result = CheckPending
		}
	}
	return result
}

func statusState(state string) CheckState {
	switch state {
	case "success":
		return CheckSuccess
	case "pending":
		return CheckPending
	default:
		return CheckFailure
	}
}

func checkRunState(status, conclusion string) CheckState {
	if status != "completed" {
		return CheckPending
	}
	switch conclusion {
	case "success", "neutral", "skipped":
		return CheckSuccess
	default:
		return CheckFailure
	}
}

// GetFileContents returns the decoded contents of a file at ref
func (c *RESTClient) GetFileContents(ctx context.Context, path, ref string) ([]byte, error) {
	file, _, _, err := c.client.Repositories.GetContents(ctx, c.owner, c.name, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s at %s: %w", path, ref, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s at %s is a directory", path, ref)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// ListBranches lists every branch in the upstream repository
func (c *RESTClient) ListBranches(ctx context.Context) ([]Branch, error) {
	var branches []Branch
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.client.Repositories.ListBranches(ctx, c.owner, c.name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list branches: %w", err)
		}
		for _, b := range page {
			branches = append(branches, Branch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()})
		}
		if resp == nil || resp.NextPage == 0 {
			return branches, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateRelease creates a GitHub release (and its tag) and returns its URL
func (c *RESTClient) CreateRelease(ctx context.Context, opts ReleaseOptions) (string, error) {
	release, _, err := c.client.Repositories.CreateRelease(ctx, c.owner, c.name, &github.RepositoryRelease{
		TagName:         github.String(opts.TagName),
		TargetCommitish: github.String(opts.TargetSHA),
		Name:            github.String(opts.Name),
		Body:            github.String(opts.Body),
		Prerelease:      github.Bool(opts.Prerelease),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create release %s: %w", opts.TagName, err)
	}
	return release.GetHTMLURL(), nil
}

// SearchIssuesCount returns the number of issues and PRs in the upstream repository matching query
func (c *RESTClient) SearchIssuesCount(ctx context.Context, query string) (int, error) {
	full := fmt.Sprintf("repo:%s/%s %s", c.owner, c.name, query)
	result, _, err := c.client.Search.Issues(ctx, full, &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 1}})
	if err != nil {
		return 0, fmt.Errorf("failed to search %q: %w", query, err)
	}
	return result.GetTotal(), nil
}
