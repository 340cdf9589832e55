package git

import (
	"context"
	"fmt"
	"strings"
)

// RepoInfo contains parsed information from a git remote URL
type RepoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseGitHubRemoteURL parses a git remote URL and extracts hostname, owner, and repo
// Supports both github.com and GitHub Enterprise URLs
// Examples:
//   - https://github.com/owner/repo.git
//   - git@github.com:owner/repo.git
//   - https://github.company.com/owner/repo.git
//   - git@github.company.com:owner/repo.git
func ParseGitHubRemoteURL(remoteURL string) (*RepoInfo, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	var hostname, path string

	switch {
	case strings.HasPrefix(remoteURL, "https://"), strings.HasPrefix(remoteURL, "http://"), strings.HasPrefix(remoteURL, "ssh://"):
		rest := remoteURL[strings.Index(remoteURL, "://")+3:]
		// Drop credentials (x-access-token:abc@host or git@host)
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid remote URL %q: must be protocol://hostname/owner/repo", remoteURL)
		}
		hostname = strings.Split(parts[0], ":")[0]
		path = parts[1]
	case strings.Contains(remoteURL, "@"):
		// SSH format: git@hostname:owner/repo
		hostAndPath := strings.SplitN(remoteURL, "@", 2)[1]
		sep := strings.IndexAny(hostAndPath, ":/")
		if sep < 0 {
			return nil, fmt.Errorf("invalid SSH remote URL %q: missing path", remoteURL)
		}
		hostname = hostAndPath[:sep]
		path = hostAndPath[sep+1:]
	default:
		return nil, fmt.Errorf("unsupported remote URL %q", remoteURL)
	}

	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(pathParts) < 2 {
		return nil, fmt.Errorf("invalid remote URL %q: path must be owner/repo", remoteURL)
	}
	owner := pathParts[len(pathParts)-2]
	repo := pathParts[len(pathParts)-1]

	if hostname == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("failed to parse hostname, owner, or repo from remote URL")
	}

	return &RepoInfo{
		Hostname: hostname,
		Owner:    owner,
		Repo:     repo,
	}, nil
}

// AuthenticatedURL builds an https clone URL carrying the token as credentials
func AuthenticatedURL(hostname, owner, repo, token string) string {
	if hostname == "" {
		hostname = "github.com"
	}
	if token == "" {
		return fmt.Sprintf("https://%s/%s/%s.git", hostname, owner, repo)
	}
	return fmt.Sprintf("https://x-access-token:%s@%s/%s/%s.git", token, hostname, owner, repo)
}

// RemoteURL returns the URL configured for the given remote
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	return r.Run(ctx, "config", "--get", fmt.Sprintf("remote.%s.url", remote))
}

// Fetch fetches the given refspecs from a remote name or URL
func (r *Repo) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"fetch", "-q", "--no-tags", remote}, refspecs...)
	if _, err := r.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", strings.Join(refspecs, " "), err)
	}
	return nil
}

// Push pushes refspecs to a remote name or URL
func (r *Repo) Push(ctx context.Context, remote string, force bool, refspecs ...string) error {
	args := []string{"push", "-q", "--atomic"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote)
	args = append(args, refspecs...)
	if _, err := r.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to push %s: %w", strings.Join(refspecs, " "), err)
	}
	return nil
}
