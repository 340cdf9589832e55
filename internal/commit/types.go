package commit

import "sort"

// ScopeRequirement describes whether a commit type takes a scope
type ScopeRequirement int

const (
	ScopeRequired ScopeRequirement = iota
	ScopeOptional
	ScopeForbidden
)

// ReleaseNotesLevel controls whether commits of a type appear in release notes
type ReleaseNotesLevel int

const (
	ReleaseNotesHidden ReleaseNotesLevel = iota
	ReleaseNotesVisible
)

// Type is an allowed conventional-commit type
type Type struct {
	Name         string
	Description  string
	Scope        ScopeRequirement
	ReleaseNotes ReleaseNotesLevel
}

// Types lists every allowed commit type
var Types = map[string]Type{
	"build": {
		Name:         "build",
		Description:  "Changes to local repository build system and tooling",
		Scope:        ScopeOptional,
		ReleaseNotes: ReleaseNotesHidden,
	},
	"ci": {
		Name:         "ci",
		Description:  "Changes to CI configuration and CI specific tooling",
		Scope:        ScopeForbidden,
		ReleaseNotes: ReleaseNotesHidden,
	},
	"docs": {
		Name:         "docs",
		Description:  "Changes which exclusively affects documentation.",
		Scope:        ScopeOptional,
		ReleaseNotes: ReleaseNotesHidden,
	},
	"feat": {
		Name:         "feat",
		Description:  "Creates a new feature",
		Scope:        ScopeRequired,
		ReleaseNotes: ReleaseNotesVisible,
	},
	"fix": {
		Name:         "fix",
		Description:  "Fixes a previously discovered failure/bug",
		Scope:        ScopeRequired,
		ReleaseNotes: ReleaseNotesVisible,
	},
	"perf": {
		Name:         "perf",
		Description:  "Improves performance without any change in functionality or API",
		Scope:        ScopeRequired,
		ReleaseNotes: ReleaseNotesVisible,
	},
	"refactor": {
		Name:         "refactor",
		Description:  "Refactor without any change in functionality or API (includes style changes)",
		Scope:        ScopeRequired,
		ReleaseNotes: ReleaseNotesHidden,
	},
	"release": {
		Name:         "release",
		Description:  "A release point in the repository",
		Scope:        ScopeForbidden,
		ReleaseNotes: ReleaseNotesHidden,
	},
	"test": {
		Name:         "test",
		Description:  "Improvements or corrections made to the project's test suite",
		Scope:        ScopeOptional,
		ReleaseNotes: ReleaseNotesHidden,
	},
}

// TypeNames returns the allowed type names in alphabetical order
func TypeNames() []string {
	names := make([]string, 0, len(Types))
	for name := range Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
