package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestSplog(t *testing.T) {
	t.Run("writes prefixed messages to the console", func(t *testing.T) {
		var buf bytes.Buffer
		splog, err := NewSplogWithOptions(SplogOptions{Writer: &buf})
		require.NoError(t, err)

		splog.Info("plain %d", 1)
		splog.Warn("careful")
		splog.Error("broken %s", "thing")
		splog.Success("landed")
		splog.Debug("hidden")

		out := buf.String()
		require.Contains(t, out, "plain 1\n")
		require.Contains(t, out, "⚠️  careful\n")
		require.Contains(t, out, "❌ broken thing\n")
		require.Contains(t, out, "✔  landed\n")
		require.NotContains(t, out, "hidden")
	})

	t.Run("debug mode shows debug messages", func(t *testing.T) {
		var buf bytes.Buffer
		splog, err := NewSplogWithOptions(SplogOptions{Writer: &buf, Debug: true})
		require.NoError(t, err)
		splog.Debug("visible")
		require.Contains(t, buf.String(), "visible")
	})

	t.Run("mirrors every level to the log file", func(t *testing.T) {
		var buf bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "logs", "ng-dev.log")
		splog, err := NewSplogWithOptions(SplogOptions{Writer: &buf, LogFile: logFile})
		require.NoError(t, err)

		splog.Debug("only in file")
		splog.Info("both")
		require.NoError(t, splog.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		require.Contains(t, string(data), "only in file")
		require.Contains(t, string(data), "both")
		require.NotContains(t, buf.String(), "only in file")
	})

	t.Run("log file path honours the environment override", func(t *testing.T) {
		t.Setenv("NG_DEV_LOG_FILE", "/tmp/custom.log")
		require.Equal(t, "/tmp/custom.log", GetLogFilePath())
	})
}

func TestNonInteractivePrompter(t *testing.T) {
	t.Run("refuses every prompt", func(t *testing.T) {
		p := NonInteractivePrompter{}
		_, err := p.Confirm("ok?", true)
		require.ErrorIs(t, err, ErrInteractiveDisabled)
		_, err = p.Select("pick", []string{"a"})
		require.ErrorIs(t, err, ErrInteractiveDisabled)
		_, err = p.Input("name", "")
		require.ErrorIs(t, err, ErrInteractiveDisabled)
	})

	t.Run("environment disables interactivity", func(t *testing.T) {
		t.Setenv("NG_DEV_NO_INTERACTIVE", "1")
		require.False(t, IsInteractive())
		require.IsType(t, NonInteractivePrompter{}, NewPrompter())
	})

	t.Run("spinner prints updates when not interactive", func(t *testing.T) {
		t.Setenv("NG_DEV_NO_INTERACTIVE", "1")
		var buf bytes.Buffer
		s := StartSpinner(&buf, "waiting")
		s.Update("still waiting")
		s.Stop()
		require.Equal(t, "waiting\nstill waiting\n", buf.String())
	})
}
