package commit

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/git"
	"ngdev.dev/ngdev/internal/tui"
)

// ValidateOptions tunes validation for the context a message is checked in
type ValidateOptions struct {
	// DisallowSquash rejects "squash!" commits
	DisallowSquash bool
	// NonFixupCommitHeaders, when non-nil, lists the headers a fixup commit may target
	NonFixupCommitHeaders []string
}

// ValidationResult is the outcome of validating one message
type ValidationResult struct {
	Valid  bool
	Errors []string
	Commit *Commit
}

var (
	incorrectBreakingChange = regexp.MustCompile(`(?m)^(BREAKING CHANGE[^:S]|BREAKING CHANGES[^:]|BREAKING-CHANGE|BREAKING CHANGE$)`)
	incorrectDeprecation    = regexp.MustCompile(`(?m)^(DEPRECATED[^:]|DEPRECATIONS?:|DEPRECATED$)`)
	urlPattern              = regexp.MustCompile(`https?://`)
)

// Validate checks a commit message against the configured rules
func Validate(message string, cfg config.CommitMessageConfig, opts ValidateOptions) ValidationResult {
	c := Parse(message)
	result := ValidationResult{Commit: c}
	fail := func(format string, args ...any) {
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if c.IsSquash {
		if opts.DisallowSquash || cfg.DisallowSquash {
			fail("The commit must be manually squashed into the target commit")
		}
		result.Valid = len(result.Errors) == 0
		return result
	}

	if c.IsFixup {
		target := strings.TrimPrefix(c.Header, "fixup! ")
		if opts.NonFixupCommitHeaders != nil && !slices.Contains(opts.NonFixupCommitHeaders, target) {
			fail("Unable to find match for fixup commit among prior commits: %s",
				strings.Join(opts.NonFixupCommitHeaders, "\n      "))
		}
		result.Valid = len(result.Errors) == 0
		return result
	}

	if cfg.MaxLineLength > 0 && len(c.Header) > cfg.MaxLineLength {
		fail("The commit message header is longer than %d characters", cfg.MaxLineLength)
	}

	if c.IsRevert {
		result.Valid = len(result.Errors) == 0
		return result
	}

	if c.Type == "" {
		fail("The commit message header does not match the expected format.")
		return result
	}

	commitType, ok := Types[c.Type]
	if !ok {
		fail("'%s' is not an allowed type.\n => TYPES: %s", c.Type, strings.Join(TypeNames(), ", "))
	} else {
		switch {
		case commitType.Scope == ScopeForbidden && c.Scope != "":
			fail("Scopes are forbidden for commits with type '%s', but a scope of '%s' was provided.", c.Type, c.FullScope())
		case commitType.Scope == ScopeRequired && c.Scope == "":
			fail("Scopes are required for commits with type '%s', but no scope was provided.", c.Type)
		}
	}

	if c.Scope != "" && len(cfg.Scopes) > 0 && !slices.Contains(cfg.Scopes, c.FullScope()) {
		fail("'%s' is not an allowed scope.\n => SCOPES: %s", c.FullScope(), strings.Join(cfg.Scopes, ", "))
	}

	if !slices.Contains(cfg.MinBodyLengthTypeExcludes, c.Type) && len(c.Body) < cfg.MinBodyLength {
		fail("The commit message body does not meet the minimum length of %d characters", cfg.MinBodyLength)
	}

	if cfg.MaxLineLength > 0 {
		for _, line := range strings.Split(c.Body+"\n"+c.Footer, "\n") {
			if len(line) > cfg.MaxLineLength && !urlPattern.MatchString(line) {
				fail("The commit message body contains lines greater than %d characters.", cfg.MaxLineLength)
				break
			}
		}
	}

	if incorrectBreakingChange.MatchString(c.Body) || incorrectBreakingChange.MatchString(c.Footer) {
		fail("The commit message body contains an invalid breaking change note. Use \"BREAKING CHANGE: <description>\".")
	}
	if incorrectDeprecation.MatchString(c.Body) || incorrectDeprecation.MatchString(c.Footer) {
		fail("The commit message body contains an invalid deprecation note. Use \"DEPRECATED: <description>\".")
	}
	for _, note := range c.BreakingChanges {
		if note == "" {
			fail("The commit message contains a breaking change note without a description.")
			break
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// RangeResult holds per-commit results for a validated range
type RangeResult struct {
	Results []ValidationResult
	SHAs    []string
}

// Valid reports whether every commit in the range is valid
func (r RangeResult) Valid() bool {
	for _, res := range r.Results {
		if !res.Valid {
			return false
		}
	}
	return true
}

// ValidateRange validates commits in order. Fixup commits must target a header
// that appears earlier in the range.
func ValidateRange(commits []git.RawCommit, cfg config.CommitMessageConfig) RangeResult {
	var out RangeResult
	headers := []string{}
	for _, raw := range commits {
		result := Validate(raw.Message, cfg, ValidateOptions{
			DisallowSquash:        cfg.DisallowSquash,
			NonFixupCommitHeaders: slices.Clone(headers),
		})
		result.Commit.SHA = raw.SHA
		if !result.Commit.IsFixup && !result.Commit.IsSquash {
			headers = append(headers, result.Commit.Header)
		}
		out.Results = append(out.Results, result)
		out.SHAs = append(out.SHAs, raw.SHA)
	}
	return out
}

// PrintValidationErrors reports a failed validation with the expected format
func PrintValidationErrors(splog *tui.Splog, result ValidationResult) {
	splog.Error("INVALID COMMIT MSG:")
	splog.Info("%s", tui.ColorDim(result.Commit.Header))
	for _, e := range result.Errors {
		splog.Info("  - %s", e)
	}
	splog.Newline()
	splog.Info("The expected format for a commit is:")
	splog.Info("<type>(<scope>): <summary>")
	splog.Newline()
	splog.Info("<body>")
	splog.Newline()
	splog.Info("<footer>")
}
