// Package caretaker implements the caretaker health check: CI status of the
// release trains, configured GitHub queries and external service status.
package caretaker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/release"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

// CheckOptions configures Check
type CheckOptions struct {
	// HTTPClient fetches service status pages; defaults to a client with a 10s timeout
	HTTPClient *http.Client
}

// CIStatus is the combined CI state of one release train branch
type CIStatus struct {
	Train  string
	Branch string
	State  github.CheckState
}

// QueryResult is the result of one configured GitHub search
type QueryResult struct {
	Name  string
	Query string
	Count int
	URL   string
}

// ServiceStatus is the state reported by a service's status page
type ServiceStatus struct {
	Name        string
	Passing     bool
	Description string
	LastUpdated time.Time
	URL         string
}

// Report is everything caretaker check gathered
type Report struct {
	CI       []CIStatus
	Queries  []QueryResult
	Services []ServiceStatus
}

// Check runs every caretaker module in order and prints its section. A failing
// module is reported and the remaining modules still run.
func Check(ctx *runtime.Context, opts CheckOptions) (*Report, error) {
	splog := ctx.Splog
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	report := &Report{}
	var failures []string

	splog.Section("CI")
	ci, err := RetrieveCIStatus(ctx)
	if err != nil {
		failures = append(failures, fmt.Sprintf("CI status: %v", err))
		splog.Warn("Unable to retrieve CI status: %v", err)
	} else {
		report.CI = ci
		PrintCIStatus(ctx, ci)
	}
	splog.Newline()

	splog.Section("GitHub")
	queries, err := RunGitHubQueries(ctx, ctx.Config.Caretaker.GitHubQueries)
	if err != nil {
		failures = append(failures, fmt.Sprintf("GitHub queries: %v", err))
		splog.Warn("Unable to run GitHub queries: %v", err)
	} else {
		report.Queries = queries
		PrintQueries(ctx, queries)
	}
	splog.Newline()

	splog.Section("Services")
	services, err := RetrieveServiceStatuses(ctx, client, ctx.Config.Caretaker.Services)
	if err != nil {
		failures = append(failures, fmt.Sprintf("services: %v", err))
		splog.Warn("Unable to retrieve service status: %v", err)
	}
	report.Services = services
	PrintServices(ctx, services)

	if len(failures) > 0 {
		return report, fmt.Errorf("caretaker check failed for %d module(s)", len(failures))
	}
	return report, nil
}

// RetrieveCIStatus returns the CI state of every active release train
func RetrieveCIStatus(ctx *runtime.Context) ([]CIStatus, error) {
	trains, err := release.FetchActiveReleaseTrains(ctx.Context, ctx.GitHub, ctx.Config.GitHub.MainBranchName)
	if err != nil {
		return nil, err
	}
	named := []struct {
		name  string
		train *release.ReleaseTrain
	}{
		{"releaseCandidate", trains.ReleaseCandidate},
		{"latest", trains.Latest},
		{"next", trains.Next},
	}

	var out []CIStatus
	for _, n := range named {
		if n.train == nil {
			continue
		}
		state, _, err := ctx.GitHub.GetStatusRollup(ctx.Context, n.train.BranchName)
		if err != nil {
			return nil, err
		}
		out = append(out, CIStatus{Train: n.name, Branch: n.train.BranchName, State: state})
	}
	return out, nil
}

// PrintCIStatus prints one line per train
func PrintCIStatus(ctx *runtime.Context, statuses []CIStatus) {
	for _, s := range statuses {
		label := fmt.Sprintf("%s (%s)", s.Train, s.Branch)
		switch s.State {
		case github.CheckSuccess:
			ctx.Splog.Info("%-28s %s", label, tui.ColorGreen("✔ passing"))
		case github.CheckFailure:
			ctx.Splog.Info("%-28s %s", label, tui.ColorRed("✘ failing"))
		default:
			ctx.Splog.Info("%-28s %s", label, tui.ColorYellow("● pending"))
		}
	}
}

// RunGitHubQueries runs each configured search against the upstream repository
func RunGitHubQueries(ctx *runtime.Context, queries []config.GitHubQuery) ([]QueryResult, error) {
	gh := ctx.Config.GitHub
	out := make([]QueryResult, 0, len(queries))
	for _, q := range queries {
		count, err := ctx.GitHub.SearchIssuesCount(ctx.Context, q.Query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Name, err)
		}
		link := fmt.Sprintf("https://%s/%s/%s/issues?q=%s", gh.Hostname, gh.Owner, gh.Name, url.QueryEscape(q.Query))
		out = append(out, QueryResult{Name: q.Name, Query: q.Query, Count: count, URL: link})
	}
	return out, nil
}

// PrintQueries prints the count of each query
func PrintQueries(ctx *runtime.Context, results []QueryResult) {
	if len(results) == 0 {
		ctx.Splog.Info("No GitHub queries configured")
		return
	}
	for _, r := range results {
		ctx.Splog.Info("%-28s %d", r.Name, r.Count)
		ctx.Splog.Debug("  %s", r.URL)
	}
}

type statusPage struct {
	Page struct {
		UpdatedAt time.Time `json:"updated_at"`
	} `json:"page"`
	Status struct {
		Indicator   string `json:"indicator"`
		Description string `json:"description"`
	} `json:"status"`
}

// RetrieveServiceStatuses reads each service's statuspage JSON. Services that
// cannot be reached are reported as failing and the first error is returned.
func RetrieveServiceStatuses(ctx *runtime.Context, client *http.Client, services []config.ServiceConfig) ([]ServiceStatus, error) {
	var firstErr error
	out := make([]ServiceStatus, 0, len(services))
	for _, svc := range services {
		status, err := fetchServiceStatus(ctx, client, svc)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", svc.Name, err)
			}
			status = ServiceStatus{Name: svc.Name, Description: err.Error(), URL: svc.PrettyURL}
		}
		out = append(out, status)
	}
	return out, firstErr
}

func fetchServiceStatus(ctx *runtime.Context, client *http.Client, svc config.ServiceConfig) (ServiceStatus, error) {
	req, err := http.NewRequestWithContext(ctx.Context, http.MethodGet, svc.URL, nil)
	if err != nil {
		return ServiceStatus{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return ServiceStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return ServiceStatus{}, fmt.Errorf("status page returned %d", resp.StatusCode)
	}

	var page statusPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return ServiceStatus{}, fmt.Errorf("invalid status page response: %w", err)
	}
	return ServiceStatus{
		Name:        svc.Name,
		Passing:     page.Status.Indicator == "none",
		Description: page.Status.Description,
		LastUpdated: page.Page.UpdatedAt,
		URL:         svc.PrettyURL,
	}, nil
}

// PrintServices prints one line per service
func PrintServices(ctx *runtime.Context, services []ServiceStatus) {
	if len(services) == 0 {
		ctx.Splog.Info("No services configured")
		return
	}
	for _, s := range services {
		mark := tui.ColorGreen("✔")
		if !s.Passing {
			mark = tui.ColorRed("✘")
		}
		ctx.Splog.Info("%s %-20s %s", mark, s.Name, s.Description)
		if !s.LastUpdated.IsZero() {
			ctx.Splog.Debug("  last updated %s", s.LastUpdated.Format(time.RFC1123))
		}
	}
}
