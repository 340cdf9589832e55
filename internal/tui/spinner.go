package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// spinnerModel renders a spinner next to a status message
type spinnerModel struct {
	spinner spinner.Model
	message string
	done    bool
}

// spinnerMessageMsg replaces the status message
type spinnerMessageMsg string

// spinnerStopMsg stops the spinner
type spinnerStopMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerMessageMsg:
		m.message = string(msg)
		return m, nil
	case spinnerStopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.message)
}

// Spinner shows progress while waiting on a long-running operation. Outside a
// terminal it falls back to printing each status update on its own line.
type Spinner struct {
	program *tea.Program
	done    chan struct{}
	out     io.Writer
}

// StartSpinner starts a spinner with an initial message
func StartSpinner(out io.Writer, message string) *Spinner {
	s := &Spinner{out: out}
	if !IsInteractive() {
		_, _ = fmt.Fprintln(out, message)
		return s
	}

	model := spinnerModel{spinner: spinner.New(), message: message}
	model.spinner.Spinner = spinner.Dot
	model.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	s.program = tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_, _ = s.program.Run()
	}()
	return s
}

// Update replaces the spinner message
func (s *Spinner) Update(message string) {
	if s.program == nil {
		_, _ = fmt.Fprintln(s.out, message)
		return
	}
	s.program.Send(spinnerMessageMsg(message))
}

// Stop stops the spinner and waits for the terminal to be restored
func (s *Spinner) Stop() {
	if s.program == nil {
		return
	}
	s.program.Send(spinnerStopMsg{})
	<-s.done
	s.program = nil
}
