package config

import "time"

// Config is the merged ng-dev configuration for a repository
type Config struct {
	GitHub        GitHubConfig        `mapstructure:"github"`
	Caretaker     CaretakerConfig     `mapstructure:"caretaker"`
	CommitMessage CommitMessageConfig `mapstructure:"commitMessage"`
	Format        map[string]any      `mapstructure:"format"`
	PullRequest   PullRequestConfig   `mapstructure:"pullRequest"`
	Release       ReleaseConfig       `mapstructure:"release"`

	// RepoRoot is the repository the configuration was loaded for
	RepoRoot string `mapstructure:"-"`
	// File is the configuration file used, empty when only defaults applied
	File string `mapstructure:"-"`
}

// GitHubConfig identifies the upstream repository
type GitHubConfig struct {
	Owner          string `mapstructure:"owner"`
	Name           string `mapstructure:"name"`
	MainBranchName string `mapstructure:"mainBranchName"`
	Hostname       string `mapstructure:"hostname"`
	// RemoteURL overrides the authenticated https URL used for fetch and push
	RemoteURL string `mapstructure:"remoteUrl"`
}

// GitHubQuery is a named issue/PR search shown by caretaker check
type GitHubQuery struct {
	Name  string `mapstructure:"name"`
	Query string `mapstructure:"query"`
}

// ServiceConfig is an external service whose status page is shown by caretaker check
type ServiceConfig struct {
	Name      string `mapstructure:"name"`
	URL       string `mapstructure:"url"`
	PrettyURL string `mapstructure:"prettyUrl"`
}

// CaretakerConfig configures caretaker check
type CaretakerConfig struct {
	GitHubQueries []GitHubQuery   `mapstructure:"githubQueries"`
	Services      []ServiceConfig `mapstructure:"services"`
}

// CommitMessageConfig configures commit message validation
type CommitMessageConfig struct {
	MaxLineLength             int      `mapstructure:"maxLineLength"`
	MinBodyLength             int      `mapstructure:"minBodyLength"`
	MinBodyLengthTypeExcludes []string `mapstructure:"minBodyLengthTypeExcludes"`
	Scopes                    []string `mapstructure:"scopes"`
	DisallowSquash            bool     `mapstructure:"disallowSquash"`
}

// PullRequestConfig configures the pull request merge tooling
type PullRequestConfig struct {
	MergeReadyLabel         string   `mapstructure:"mergeReadyLabel"`
	CaretakerNoteLabel      string   `mapstructure:"caretakerNoteLabel"`
	CommitMessageFixupLabel string   `mapstructure:"commitMessageFixupLabel"`
	BreakingChangeLabel     string   `mapstructure:"breakingChangeLabel"`
	CLAContext              string   `mapstructure:"claContext"`
	MergeStrategy           string   `mapstructure:"mergeStrategy"`
	TargetLabelExemptScopes []string `mapstructure:"targetLabelExemptScopes"`
	// AssertLtsActive rejects "target: lts" PRs whose branch has left the LTS window
	AssertLtsActive bool `mapstructure:"assertLtsActive"`
}

// NpmPackage is a package published by the release tooling
type NpmPackage struct {
	Name         string `mapstructure:"name"`
	Experimental bool   `mapstructure:"experimental"`
}

// ReleaseNotesConfig configures generated release notes
type ReleaseNotesConfig struct {
	HiddenScopes []string `mapstructure:"hiddenScopes"`
	GroupOrder   []string `mapstructure:"groupOrder"`
}

// ReleaseConfig configures the release tooling
type ReleaseConfig struct {
	NpmPackages              []NpmPackage       `mapstructure:"npmPackages"`
	BuildCommand             string             `mapstructure:"buildCommand"`
	DistDir                  string             `mapstructure:"distDir"`
	RepresentativeNpmPackage string             `mapstructure:"representativeNpmPackage"`
	NpmRegistry              string             `mapstructure:"npmRegistry"`
	ChangelogPath            string             `mapstructure:"changelogPath"`
	ReleaseNotes             ReleaseNotesConfig `mapstructure:"releaseNotes"`
	PublishPollInterval      time.Duration      `mapstructure:"publishPollInterval"`
	PublishMaxPollAttempts   int                `mapstructure:"publishMaxPollAttempts"`
}

// RepresentativePackage returns the package used for registry lookups
func (r ReleaseConfig) RepresentativePackage() string {
	if r.RepresentativeNpmPackage != "" {
		return r.RepresentativeNpmPackage
	}
	if len(r.NpmPackages) > 0 {
		return r.NpmPackages[0].Name
	}
	return ""
}
