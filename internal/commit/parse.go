// Package commit parses and validates conventional commit messages.
package commit

import (
	"regexp"
	"strings"
)

// Commit is a parsed commit message. It is never modified after parsing.
type Commit struct {
	SHA string
	// Header is the first line of the message as written
	Header   string
	Type     string
	NpmScope string
	Scope    string
	Summary  string
	// Body is the message between the header and the first note
	Body string
	// Footer is the message from the first note onwards
	Footer          string
	BreakingChanges []string
	Deprecations    []string
	// References are issue numbers closed by the commit ("Fixes #123")
	References []string
	IsFixup    bool
	IsSquash   bool
	IsRevert   bool
	// Raw is the message with comments and the scissors section removed
	Raw string
}

// FullScope returns the scope including the npm scope prefix, if any
func (c *Commit) FullScope() string {
	if c.NpmScope != "" {
		return c.NpmScope + "/" + c.Scope
	}
	return c.Scope
}

// FormattedHeader reconstructs "type(scope): summary" from the parsed parts
func (c *Commit) FormattedHeader() string {
	if c.Type == "" {
		return ""
	}
	if scope := c.FullScope(); scope != "" {
		return c.Type + "(" + scope + "): " + c.Summary
	}
	return c.Type + ": " + c.Summary
}

// IsBreaking reports whether the commit carries a breaking change note
func (c *Commit) IsBreaking() bool {
	return len(c.BreakingChanges) > 0
}

const scissors = "# ------------------------ >8 ------------------------"

var (
	headerPattern    = regexp.MustCompile(`^(\w+)(?:\((?:([^/()]+)/)?([^()]+)\))?: (.+)$`)
	revertPattern    = regexp.MustCompile(`^(?:revert:? |Revert ")`)
	notePattern      = regexp.MustCompile(`^(BREAKING CHANGES?|DEPRECATED):[ \t]*`)
	referencePattern = regexp.MustCompile(`(?im)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s+#(\d+)`)
)

// Parse parses a raw commit message. Lines starting with "#" and everything below
// the git scissors line are dropped.
func Parse(message string) *Commit {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n") {
		if line == scissors {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	raw := strings.TrimSpace(strings.Join(lines, "\n"))

	c := &Commit{Raw: raw}
	header, rest, _ := strings.Cut(raw, "\n")
	c.Header = strings.TrimSpace(header)

	subject := c.Header
	switch {
	case strings.HasPrefix(subject, "fixup! "):
		c.IsFixup = true
		subject = strings.TrimPrefix(subject, "fixup! ")
	case strings.HasPrefix(subject, "squash! "):
		c.IsSquash = true
		subject = strings.TrimPrefix(subject, "squash! ")
	}
	c.IsRevert = revertPattern.MatchString(subject)

	if m := headerPattern.FindStringSubmatch(subject); m != nil {
		c.Type = m[1]
		c.NpmScope = m[2]
		c.Scope = m[3]
		c.Summary = m[4]
	}

	parseNotes(c, strings.Split(strings.Trim(rest, "\n"), "\n"))
	for _, m := range referencePattern.FindAllStringSubmatch(raw, -1) {
		c.References = append(c.References, m[1])
	}
	return c
}

// parseNotes splits the remaining lines into body and footer and collects the
// breaking change and deprecation notes.
func parseNotes(c *Commit, lines []string) {
	var body []string
	var footer []string
	var current *[]string
	var text []string

	flush := func() {
		if current != nil {
			*current = append(*current, strings.TrimSpace(strings.Join(text, "\n")))
		}
		current, text = nil, nil
	}

	for _, line := range lines {
		if m := notePattern.FindStringSubmatch(line); m != nil {
			flush()
			if strings.HasPrefix(m[1], "BREAKING") {
				current = &c.BreakingChanges
			} else {
				current = &c.Deprecations
			}
			text = []string{strings.TrimPrefix(line, m[0])}
			footer = append(footer, line)
			continue
		}
		if current != nil || len(footer) > 0 {
			footer = append(footer, line)
			if current != nil {
				text = append(text, line)
			}
			continue
		}
		body = append(body, line)
	}
	flush()

	c.Body = strings.TrimSpace(strings.Join(body, "\n"))
	c.Footer = strings.TrimSpace(strings.Join(footer, "\n"))
}
