package release

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/semver/v3"

	"ngdev.dev/ngdev/internal/commit"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/runtime"
)

// NoteEntry is one commit line in the release notes
type NoteEntry struct {
	SHA     string
	Type    string
	Summary string
	// Notes holds the breaking change or deprecation text for the special sections
	Notes []string
}

// ShortSHA returns the abbreviated commit SHA
func (e NoteEntry) ShortSHA() string {
	if len(e.SHA) > 7 {
		return e.SHA[:7]
	}
	return e.SHA
}

// NoteGroup is the entries of one scope
type NoteGroup struct {
	Scope   string
	Entries []NoteEntry
}

// ReleaseNotes are the rendered-ready notes for one version
type ReleaseNotes struct {
	Version      *semver.Version
	Date         time.Time
	RepoURL      string
	Breaking     []NoteGroup
	Deprecations []NoteGroup
	Groups       []NoteGroup
}

// NewReleaseNotes groups commits by scope, dropping commits whose type or scope
// is hidden. Breaking changes and deprecations are always listed.
func NewReleaseNotes(version *semver.Version, commits []*commit.Commit, cfg config.ReleaseNotesConfig, repoURL string, date time.Time) *ReleaseNotes {
	notes := &ReleaseNotes{Version: version, Date: date, RepoURL: repoURL}

	groups := map[string][]NoteEntry{}
	breaking := map[string][]NoteEntry{}
	deprecations := map[string][]NoteEntry{}
	for _, c := range commits {
		if c.Type == "" || c.IsFixup || c.IsSquash {
			continue
		}
		scope := c.FullScope()
		entry := NoteEntry{SHA: c.SHA, Type: c.Type, Summary: c.Summary}
		if len(c.BreakingChanges) > 0 {
			breaking[scope] = append(breaking[scope], NoteEntry{SHA: c.SHA, Type: c.Type, Summary: c.Summary, Notes: c.BreakingChanges})
		}
		if len(c.Deprecations) > 0 {
			deprecations[scope] = append(deprecations[scope], NoteEntry{SHA: c.SHA, Type: c.Type, Summary: c.Summary, Notes: c.Deprecations})
		}
		if slices.Contains(cfg.HiddenScopes, scope) {
			continue
		}
		if t, ok := commit.Types[c.Type]; !ok || t.ReleaseNotes != commit.ReleaseNotesVisible {
			continue
		}
		groups[scope] = append(groups[scope], entry)
	}

	notes.Groups = orderGroups(groups, cfg.GroupOrder)
	notes.Breaking = orderGroups(breaking, cfg.GroupOrder)
	notes.Deprecations = orderGroups(deprecations, cfg.GroupOrder)
	return notes
}

// orderGroups puts the scopes named in order first, then the rest alphabetically
func orderGroups(groups map[string][]NoteEntry, order []string) []NoteGroup {
	scopes := make([]string, 0, len(groups))
	for scope := range groups {
		scopes = append(scopes, scope)
	}
	rank := func(scope string) int {
		if i := slices.Index(order, scope); i >= 0 {
			return i
		}
		return len(order)
	}
	sort.Slice(scopes, func(i, j int) bool {
		ri, rj := rank(scopes[i]), rank(scopes[j])
		if ri != rj {
			return ri < rj
		}
		return scopes[i] < scopes[j]
	})
	out := make([]NoteGroup, 0, len(scopes))
	for _, scope := range scopes {
		out = append(out, NoteGroup{Scope: scope, Entries: groups[scope]})
	}
	return out
}

// IsEmpty reports whether no commit made it into the notes
func (n *ReleaseNotes) IsEmpty() bool {
	return len(n.Groups) == 0 && len(n.Breaking) == 0 && len(n.Deprecations) == 0
}

var notesTemplate = template.Must(template.New("notes").Funcs(template.FuncMap{
	"scopeName": func(scope string) string {
		if scope == "" {
			return "misc"
		}
		return scope
	},
	"indent": func(text string) string {
		return strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n  ")
	},
}).Parse(`<a name="{{.Version}}"></a>
# {{.Version}}{{if not .Date.IsZero}} ({{.Date.Format "2006-01-02"}}){{end}}
{{- if .Breaking}}
## Breaking Changes
{{- range .Breaking}}
### {{scopeName .Scope}}
{{- range .Entries}}{{range .Notes}}
- {{indent .}}
{{- end}}{{end}}
{{- end}}
{{- end}}
{{- if .Deprecations}}
## Deprecations
{{- range .Deprecations}}
### {{scopeName .Scope}}
{{- range .Entries}}{{range .Notes}}
- {{indent .}}
{{- end}}{{end}}
{{- end}}
{{- end}}
{{- range .Groups}}
### {{scopeName .Scope}}
| Commit | Type | Description |
| -- | -- | -- |
{{- $repo := $.RepoURL}}
{{- range .Entries}}
| [{{.ShortSHA}}]({{$repo}}/commit/{{.SHA}}) | {{.Type}} | {{.Summary}} |
{{- end}}
{{- end}}
`))

// Markdown renders the notes as a changelog entry
func (n *ReleaseNotes) Markdown() (string, error) {
	var buf bytes.Buffer
	if err := notesTemplate.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render release notes: %w", err)
	}
	return buf.String(), nil
}

// BuildReleaseNotes collects the commits between from and to and builds the
// notes for version.
func BuildReleaseNotes(ctx *runtime.Context, version *semver.Version, from, to string) (*ReleaseNotes, error) {
	raw, err := ctx.Git.CommitsInRange(ctx.Context, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to read commits %s..%s: %w", from, to, err)
	}
	commits := make([]*commit.Commit, 0, len(raw))
	for _, c := range raw {
		parsed := commit.Parse(c.Message)
		parsed.SHA = c.SHA
		commits = append(commits, parsed)
	}
	gh := ctx.Config.GitHub
	repoURL := fmt.Sprintf("https://%s/%s/%s", gh.Hostname, gh.Owner, gh.Name)
	return NewReleaseNotes(version, commits, ctx.Config.Release.ReleaseNotes, repoURL, ctx.Now()), nil
}

// PrependToChangelog writes entry at the top of the changelog, creating it if needed
func PrependToChangelog(path, entry string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	content := strings.TrimRight(entry, "\n") + "\n\n"
	if len(existing) > 0 {
		content += string(existing)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
