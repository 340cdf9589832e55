package config

import (
	"fmt"

	ngerrors "ngdev.dev/ngdev/internal/errors"
)

// Section names a configuration section a command depends on
type Section string

const (
	SectionGitHub        Section = "github"
	SectionCaretaker     Section = "caretaker"
	SectionCommitMessage Section = "commitMessage"
	SectionFormat        Section = "format"
	SectionPullRequest   Section = "pullRequest"
	SectionRelease       Section = "release"
)

// validators hold the required-key checks for each section
var validators = map[Section]func(*Config) []string{
	SectionGitHub: func(c *Config) []string {
		var problems []string
		if c.GitHub.Owner == "" {
			problems = append(problems, `"github.owner" is not defined`)
		}
		if c.GitHub.Name == "" {
			problems = append(problems, `"github.name" is not defined`)
		}
		return problems
	},
	SectionCaretaker: func(c *Config) []string {
		var problems []string
		for i, q := range c.Caretaker.GitHubQueries {
			if q.Name == "" || q.Query == "" {
				problems = append(problems, fmt.Sprintf(`"caretaker.githubQueries[%d]" requires both name and query`, i))
			}
		}
		for i, s := range c.Caretaker.Services {
			if s.Name == "" || s.URL == "" {
				problems = append(problems, fmt.Sprintf(`"caretaker.services[%d]" requires both name and url`, i))
			}
		}
		return problems
	},
	SectionCommitMessage: func(c *Config) []string {
		var problems []string
		if c.CommitMessage.MaxLineLength <= 0 {
			problems = append(problems, `"commitMessage.maxLineLength" must be a positive number`)
		}
		if c.CommitMessage.MinBodyLength < 0 {
			problems = append(problems, `"commitMessage.minBodyLength" must not be negative`)
		}
		return problems
	},
	SectionFormat: func(c *Config) []string {
		var problems []string
		for name, value := range c.Format {
			switch v := value.(type) {
			case bool:
			case map[string]any:
				if _, ok := v["matchers"]; !ok {
					problems = append(problems, fmt.Sprintf(`"format.%s" must define "matchers" when given as an object`, name))
				}
			default:
				problems = append(problems, fmt.Sprintf(`"format.%s" must be a boolean or an object`, name))
			}
		}
		return problems
	},
	SectionPullRequest: func(c *Config) []string {
		var problems []string
		switch c.PullRequest.MergeStrategy {
		case "rebase", "squash":
		default:
			problems = append(problems, fmt.Sprintf(`"pullRequest.mergeStrategy" must be "rebase" or "squash", got %q`, c.PullRequest.MergeStrategy))
		}
		if c.PullRequest.MergeReadyLabel == "" {
			problems = append(problems, `"pullRequest.mergeReadyLabel" is not defined`)
		}
		return problems
	},
	SectionRelease: func(c *Config) []string {
		var problems []string
		if len(c.Release.NpmPackages) == 0 {
			problems = append(problems, `"release.npmPackages" must list at least one package`)
		}
		for i, p := range c.Release.NpmPackages {
			if p.Name == "" {
				problems = append(problems, fmt.Sprintf(`"release.npmPackages[%d].name" is not defined`, i))
			}
		}
		if c.Release.BuildCommand == "" {
			problems = append(problems, `"release.buildCommand" is not defined`)
		}
		if c.Release.PublishMaxPollAttempts <= 0 {
			problems = append(problems, `"release.publishMaxPollAttempts" must be a positive number`)
		}
		return problems
	},
}

// Assert validates the given sections and reports every problem at once
func Assert(cfg *Config, sections ...Section) error {
	var problems []string
	for _, section := range sections {
		check, ok := validators[section]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown configuration section %q", section))
			continue
		}
		problems = append(problems, check(cfg)...)
	}
	if len(problems) > 0 {
		return ngerrors.NewConfigValidationError(problems)
	}
	return nil
}
