package runtime

import (
	"context"
	"fmt"
	"os"
	"time"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/git"
	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/npm"
	"ngdev.dev/ngdev/internal/tui"
)

// Context provides access to configuration, clients and output for commands
type Context struct {
	Context  context.Context
	Config   *config.Config
	Git      git.Client
	GitHub   github.Client
	Npm      npm.Client
	Splog    *tui.Splog
	Prompter tui.Prompter
	RepoRoot string

	// Now returns the current time
	Now func() time.Time
	// Sleep pauses between polls
	Sleep func(time.Duration)

	token string
}

// Options holds the dependencies of a Context. Zero fields get defaults where
// one exists; tests pass fakes here.
type Options struct {
	Config   *config.Config
	Git      git.Client
	GitHub   github.Client
	Npm      npm.Client
	Splog    *tui.Splog
	Prompter tui.Prompter
	RepoRoot string
	Token    string
	Now      func() time.Time
	Sleep    func(time.Duration)
}

// NewContext creates a context from explicit dependencies
func NewContext(ctx context.Context, opts Options) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		Context:  ctx,
		Config:   opts.Config,
		Git:      opts.Git,
		GitHub:   opts.GitHub,
		Npm:      opts.Npm,
		Splog:    opts.Splog,
		Prompter: opts.Prompter,
		RepoRoot: opts.RepoRoot,
		Now:      opts.Now,
		Sleep:    opts.Sleep,
		token:    opts.Token,
	}
	if c.Config == nil {
		c.Config = config.Defaults()
	}
	if c.Splog == nil {
		c.Splog = tui.NewSplog()
	}
	if c.Prompter == nil {
		c.Prompter = tui.NonInteractivePrompter{}
	}
	if c.RepoRoot == "" && c.Git != nil {
		c.RepoRoot = c.Git.RepoRoot()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return c
}

// UpstreamURL returns the URL used to fetch from and push to the upstream repository
func (c *Context) UpstreamURL() string {
	gh := c.Config.GitHub
	if gh.RemoteURL != "" {
		return gh.RemoteURL
	}
	return git.AuthenticatedURL(gh.Hostname, gh.Owner, gh.Name, c.token)
}

// RepoURL returns the authenticated URL of any repository on the configured host.
// With a remote URL override every repository resolves to that URL.
func (c *Context) RepoURL(owner, name string) string {
	gh := c.Config.GitHub
	if gh.RemoteURL != "" {
		return gh.RemoteURL
	}
	return git.AuthenticatedURL(gh.Hostname, owner, name, c.token)
}

// LoadOptions controls how a context is built from the environment
type LoadOptions struct {
	// Dir is the directory to search for a repository; empty means the working directory
	Dir string
	// ConfigDir is the configuration directory relative to the repository root
	ConfigDir string
	// GitHubToken is the --github-token flag value
	GitHubToken string
	// RequireGitHub resolves a token and creates the GitHub client
	RequireGitHub bool
	// Sections are the configuration sections the command depends on
	Sections []config.Section
	Debug    bool
}

// Load builds a context for the repository containing opts.Dir
func Load(ctx context.Context, opts LoadOptions) (*Context, error) {
	repo, err := git.OpenRepo(opts.Dir)
	if err != nil {
		return nil, err
	}
	root := repo.RepoRoot()

	cfg, err := config.Load(root, opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	if err := config.Assert(cfg, opts.Sections...); err != nil {
		return nil, err
	}

	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{
		Debug:   opts.Debug || os.Getenv("DEBUG") != "",
		LogFile: tui.GetLogFilePath(),
	})
	if err != nil {
		splog = tui.NewSplog()
	}
	splog.Debug("Loaded configuration from %s", cfg.File)

	c := NewContext(ctx, Options{
		Config:   cfg,
		Git:      repo,
		Npm:      npm.NewClient(root, cfg.Release.NpmRegistry),
		Splog:    splog,
		Prompter: tui.NewPrompter(),
		RepoRoot: root,
	})

	if opts.RequireGitHub {
		token, err := git.NewTokenResolver(opts.GitHubToken).Resolve(ctx)
		if err != nil {
			return nil, err
		}
		repo.AddSecret(token)
		client, err := github.NewRESTClient(ctx, cfg.GitHub.Hostname, token, cfg.GitHub.Owner, cfg.GitHub.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}
		c.GitHub = client
		c.token = token
	}
	return c, nil
}
