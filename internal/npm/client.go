// Package npm wraps the npm CLI for publishing and dist-tag management and reads
// package metadata from the npm registry.
package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/process"
)

// DefaultRegistry is the public npm registry
const DefaultRegistry = "https://registry.npmjs.org"

// ErrPackageNotFound is returned when the registry has no record of a package
var ErrPackageNotFound = errors.New("package not found in registry")

// PackageInfo is the subset of the registry document ng-dev reads
type PackageInfo struct {
	Name     string                     `json:"name"`
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
	// Time maps versions (plus "created" and "modified") to RFC 3339 timestamps
	Time map[string]string `json:"time"`
}

// HasVersion reports whether the version was ever published
func (p *PackageInfo) HasVersion(version string) bool {
	_, ok := p.Versions[version]
	return ok
}

// Client is the subset of npm used by the release tooling
type Client interface {
	Publish(ctx context.Context, dir, distTag string) error
	SetDistTag(ctx context.Context, pkg, version, tag string) error
	DeleteDistTag(ctx context.Context, pkg, tag string) error
	CheckIsLoggedIn(ctx context.Context) (bool, error)
	PackageInfo(ctx context.Context, name string) (*PackageInfo, error)
	// LatestVersion returns the version behind the "latest" dist-tag
	LatestVersion(ctx context.Context, name string) (string, error)
}

// CLIClient shells out to npm and reads the registry over HTTP
type CLIClient struct {
	// Binary is the npm executable; tests point it at a stub script
	Binary     string
	Dir        string
	Registry   string
	HTTPClient *http.Client
}

var _ Client = (*CLIClient)(nil)

// NewClient creates a client that runs npm in dir against registry
func NewClient(dir, registry string) *CLIClient {
	if registry == "" {
		registry = DefaultRegistry
	}
	return &CLIClient{
		Binary:     "npm",
		Dir:        dir,
		Registry:   strings.TrimSuffix(registry, "/"),
		HTTPClient: http.DefaultClient,
	}
}

func (c *CLIClient) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir == "" {
		dir = c.Dir
	}
	args = append(args, "--registry", c.Registry)
	return process.NewRunner(c.Binary, dir).Run(ctx, args...)
}

// Publish publishes the package in dir under the given dist-tag
func (c *CLIClient) Publish(ctx context.Context, dir, distTag string) error {
	if _, err := c.run(ctx, dir, "publish", "--access", "public", "--tag", distTag); err != nil {
		return fmt.Errorf("failed to publish %s: %w", dir, err)
	}
	return nil
}

// SetDistTag points tag at pkg@version
func (c *CLIClient) SetDistTag(ctx context.Context, pkg, version, tag string) error {
	if _, err := c.run(ctx, "", "dist-tag", "add", pkg+"@"+version, tag); err != nil {
		return fmt.Errorf("failed to set dist-tag %q for %s@%s: %w", tag, pkg, version, err)
	}
	return nil
}

// DeleteDistTag removes tag from pkg
func (c *CLIClient) DeleteDistTag(ctx context.Context, pkg, tag string) error {
	if _, err := c.run(ctx, "", "dist-tag", "rm", pkg, tag); err != nil {
		return fmt.Errorf("failed to delete dist-tag %q for %s: %w", tag, pkg, err)
	}
	return nil
}

// CheckIsLoggedIn reports whether npm has a session for the registry
func (c *CLIClient) CheckIsLoggedIn(ctx context.Context) (bool, error) {
	_, err := c.run(ctx, "", "whoami")
	if err == nil {
		return true, nil
	}
	var cmdErr *ngerrors.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return false, nil
	}
	return false, err
}

// PackageInfo fetches the registry document for name
func (c *CLIClient) PackageInfo(ctx context.Context, name string) (*PackageInfo, error) {
	endpoint := c.Registry + "/" + escapePackageName(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry for %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d for %s: %s", resp.StatusCode, name, string(body))
	}

	var info PackageInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse registry response for %s: %w", name, err)
	}
	return &info, nil
}

// LatestVersion returns the version behind the "latest" dist-tag
func (c *CLIClient) LatestVersion(ctx context.Context, name string) (string, error) {
	info, err := c.PackageInfo(ctx, name)
	if err != nil {
		return "", err
	}
	latest, ok := info.DistTags["latest"]
	if !ok {
		return "", fmt.Errorf("package %s has no \"latest\" dist-tag", name)
	}
	return latest, nil
}

// escapePackageName encodes the slash of scoped packages (@scope/name)
func escapePackageName(name string) string {
	if strings.HasPrefix(name, "@") {
		return "@" + url.PathEscape(name[1:])
	}
	return url.PathEscape(name)
}
