// Package pr implements the pull request tooling: validation, target branch
// resolution, local checkout, merging, rebasing and conflict discovery.
package pr

import (
	"errors"
	"fmt"

	"ngdev.dev/ngdev/internal/commit"
	"ngdev.dev/ngdev/internal/config"
	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/github"
)

// ValidationKind names a pull request validation
type ValidationKind string

const (
	ValidationPending                    ValidationKind = "pending"
	ValidationMergeReady                 ValidationKind = "merge-ready"
	ValidationSignedCla                  ValidationKind = "signed-cla"
	ValidationChangesAllowForTargetLabel ValidationKind = "changes-allow-for-target-label"
	ValidationPassingCi                  ValidationKind = "passing-ci"
	ValidationBreakingChangeLabel        ValidationKind = "breaking-change-label"
)

// ValidationFailure is a failed validation. Ignorable failures may be
// force-ignored by the operator.
type ValidationFailure struct {
	Kind      ValidationKind
	Message   string
	Ignorable bool
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("%s (%s)", f.Message, f.Kind)
}

// PullRequestValidationConfig selects which validations run. It is built once
// per invocation from command flags.
type PullRequestValidationConfig struct {
	AssertPending                    bool
	AssertMergeReady                 bool
	AssertSignedCla                  bool
	AssertChangesAllowForTargetLabel bool
	AssertPassingCi                  bool
	AssertBreakingChangeLabel        bool
}

// DefaultValidationConfig enables every validation
func DefaultValidationConfig() PullRequestValidationConfig {
	return PullRequestValidationConfig{
		AssertPending:                    true,
		AssertMergeReady:                 true,
		AssertSignedCla:                  true,
		AssertChangesAllowForTargetLabel: true,
		AssertPassingCi:                  true,
		AssertBreakingChangeLabel:        true,
	}
}

// ValidationInput is what every validation inspects
type ValidationInput struct {
	PR      *github.PullRequest
	Commits []*commit.Commit
	Config  config.PullRequestConfig
}

type validation struct {
	check     func(in ValidationInput) string
	ignorable bool
	enabled   func(cfg PullRequestValidationConfig) bool
}

// validationOrder is the order validations run and failures are reported in
var validationOrder = []ValidationKind{
	ValidationPending,
	ValidationMergeReady,
	ValidationSignedCla,
	ValidationChangesAllowForTargetLabel,
	ValidationPassingCi,
	ValidationBreakingChangeLabel,
}

var validations = map[ValidationKind]validation{
	ValidationPending: {
		check:     checkPending,
		ignorable: false,
		enabled:   func(c PullRequestValidationConfig) bool { return c.AssertPending },
	},
	ValidationMergeReady: {
		check:     checkMergeReady,
		ignorable: true,
		enabled:   func(c PullRequestValidationConfig) bool { return c.AssertMergeReady },
	},
	ValidationSignedCla: {
		check:     checkSignedCla,
		ignorable: true,
		enabled:   func(c PullRequestValidationConfig) bool { return c.AssertSignedCla },
	},
	ValidationChangesAllowForTargetLabel: {
		check:     checkChangesAllowForTargetLabel,
		ignorable: true,
		enabled:   func(c PullRequestValidationConfig) bool { return c.AssertChangesAllowForTargetLabel },
	},
	ValidationPassingCi: {
		check:     checkPassingCi,
		ignorable: true,
		enabled:   func(c PullRequestValidationConfig) bool { return c.AssertPassingCi },
	},
	ValidationBreakingChangeLabel: {
		check:     checkBreakingChangeLabel,
		ignorable: true,
		enabled:   func(c PullRequestValidationConfig) bool { return c.AssertBreakingChangeLabel },
	},
}

// RunValidations runs every enabled validation and returns the failures.
// Disabled validations are not run at all.
func RunValidations(in ValidationInput, cfg PullRequestValidationConfig) []*ValidationFailure {
	var failures []*ValidationFailure
	for _, kind := range validationOrder {
		v := validations[kind]
		if !v.enabled(cfg) {
			continue
		}
		if msg := v.check(in); msg != "" {
			failures = append(failures, &ValidationFailure{Kind: kind, Message: msg, Ignorable: v.ignorable})
		}
	}
	return failures
}

// IsIgnorable reports whether a validation kind may be force-ignored
func IsIgnorable(kind ValidationKind) bool {
	return validations[kind].ignorable
}

func checkPending(in ValidationInput) string {
	switch {
	case in.PR.Merged || in.PR.State == "MERGED":
		return "Pull request has already been merged."
	case in.PR.State == "CLOSED":
		return "Pull request is closed."
	case in.PR.IsDraft:
		return "Pull request is still a draft."
	}
	return ""
}

func checkMergeReady(in ValidationInput) string {
	if !in.PR.HasLabel(in.Config.MergeReadyLabel) {
		return fmt.Sprintf("Pull request is not marked as merge ready (missing the %q label).", in.Config.MergeReadyLabel)
	}
	if in.Config.CaretakerNoteLabel != "" && in.PR.HasLabel(in.Config.CaretakerNoteLabel) {
		return fmt.Sprintf("Pull request has a caretaker note (%q label).", in.Config.CaretakerNoteLabel)
	}
	return ""
}

func checkSignedCla(in ValidationInput) string {
	state, ok := in.PR.Statuses[in.Config.CLAContext]
	switch {
	case !ok:
		return fmt.Sprintf("No CLA status (%q) found on the pull request.", in.Config.CLAContext)
	case state != github.CheckSuccess:
		return "The CLA has not been signed by every commit author."
	}
	return ""
}

func checkChangesAllowForTargetLabel(in ValidationInput) string {
	label, err := GetTargetLabel(in.PR.Labels)
	if err != nil {
		return failureMessage(err)
	}
	if err := AssertChangesAllowForTargetLabel(in.Commits, label, in.Config.TargetLabelExemptScopes); err != nil {
		return failureMessage(err)
	}
	return ""
}

func checkPassingCi(in ValidationInput) string {
	switch in.PR.StatusCheckRollup {
	case github.CheckFailure:
		return "Pull request has failing CI jobs."
	case github.CheckPending:
		return "Pull request has pending CI jobs."
	}
	return ""
}

func checkBreakingChangeLabel(in ValidationInput) string {
	hasLabel := in.PR.HasLabel(in.Config.BreakingChangeLabel)
	hasNote := false
	for _, c := range in.Commits {
		if c.IsBreaking() {
			hasNote = true
			break
		}
	}
	switch {
	case hasNote && !hasLabel:
		return fmt.Sprintf("Pull request has at least one commit containing a breaking change note, but does not have the %q label.", in.Config.BreakingChangeLabel)
	case hasLabel && !hasNote:
		return fmt.Sprintf("Pull request has the %q label, but does not contain any commits with breaking change notes.", in.Config.BreakingChangeLabel)
	}
	return ""
}

func failureMessage(err error) string {
	var failure *ngerrors.PullRequestFailure
	if errors.As(err, &failure) {
		return failure.Message
	}
	return err.Error()
}
