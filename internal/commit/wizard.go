package commit

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/tui"
)

// wizardSkipSources are the git prepare-commit-msg sources for which a message
// already exists and the wizard stays out of the way.
var wizardSkipSources = []string{"message", "template", "merge", "squash", "commit"}

const noScope = "<no scope>"

// RunWizard fills a commit message file with a header built from prompts.
// It leaves the file untouched when git already supplied a message.
func RunWizard(path, source, sha string, cfg config.CommitMessageConfig, prompter tui.Prompter) (bool, error) {
	if sha != "" || slices.Contains(wizardSkipSources, source) {
		return false, nil
	}

	header, err := promptHeader(cfg, prompter)
	if err != nil {
		return false, err
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read commit message file: %w", err)
	}

	content := header + "\n\n" + string(existing)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write commit message file: %w", err)
	}
	return true, nil
}

func promptHeader(cfg config.CommitMessageConfig, prompter tui.Prompter) (string, error) {
	var typeOptions []string
	for _, name := range TypeNames() {
		typeOptions = append(typeOptions, name+": "+Types[name].Description)
	}
	selected, err := prompter.Select("What type of commit is this?", typeOptions)
	if err != nil {
		return "", err
	}
	commitType := Types[strings.SplitN(selected, ":", 2)[0]]

	scope := ""
	if commitType.Scope != ScopeForbidden {
		if len(cfg.Scopes) > 0 {
			options := slices.Clone(cfg.Scopes)
			if commitType.Scope == ScopeOptional {
				options = append([]string{noScope}, options...)
			}
			scope, err = prompter.Select("What scope does this commit affect?", options)
			if err != nil {
				return "", err
			}
			if scope == noScope {
				scope = ""
			}
		} else {
			scope, err = prompter.Input("What scope does this commit affect?", "")
			if err != nil {
				return "", err
			}
		}
	}

	summary, err := prompter.Input("Provide a short summary of what the changes in the commit do", "")
	if err != nil {
		return "", err
	}

	c := &Commit{Type: commitType.Name, Scope: strings.TrimSpace(scope), Summary: strings.TrimSpace(summary)}
	return c.FormattedHeader(), nil
}
