package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// ErrInteractiveDisabled is returned when a prompt is needed but the session is not interactive
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (not a terminal or NG_DEV_NO_INTERACTIVE is set)")

// Prompter asks the operator questions
type Prompter interface {
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string) (string, error)
	Input(message, defaultValue string) (string, error)
}

// IsInteractive reports whether prompts can be shown
func IsInteractive() bool {
	if os.Getenv("NG_DEV_NO_INTERACTIVE") != "" {
		return false
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewPrompter returns a survey-backed prompter for terminals and a refusing
// prompter otherwise.
func NewPrompter() Prompter {
	if IsInteractive() {
		return SurveyPrompter{}
	}
	return NonInteractivePrompter{}
}

// SurveyPrompter prompts on the terminal
type SurveyPrompter struct{}

// Confirm asks a yes/no question
func (SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	answer := defaultValue
	err := survey.AskOne(&survey.Confirm{Message: message, Default: defaultValue}, &answer)
	return answer, translate(err)
}

// Select asks the operator to pick one option
func (SurveyPrompter) Select(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to choose from")
	}
	var answer string
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &answer)
	return answer, translate(err)
}

// Input asks for free text
func (SurveyPrompter) Input(message, defaultValue string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message, Default: defaultValue}, &answer)
	return answer, translate(err)
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return fmt.Errorf("canceled")
	}
	return err
}

// NonInteractivePrompter refuses every prompt
type NonInteractivePrompter struct{}

// Confirm returns ErrInteractiveDisabled
func (NonInteractivePrompter) Confirm(string, bool) (bool, error) {
	return false, ErrInteractiveDisabled
}

// Select returns ErrInteractiveDisabled
func (NonInteractivePrompter) Select(string, []string) (string, error) {
	return "", ErrInteractiveDisabled
}

// Input returns ErrInteractiveDisabled
func (NonInteractivePrompter) Input(string, string) (string, error) {
	return "", ErrInteractiveDisabled
}
