package process

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	ngerrors "ngdev.dev/ngdev/internal/errors"
)

func TestRunner(t *testing.T) {
	t.Parallel()

	t.Run("returns trimmed stdout", func(t *testing.T) {
		t.Parallel()
		out, err := NewRunner("sh", t.TempDir()).Run(context.Background(), "-c", "echo '  hello  '")
		require.NoError(t, err)
		require.Equal(t, "hello", out)
	})

	t.Run("raw output keeps trailing newline", func(t *testing.T) {
		t.Parallel()
		out, err := NewRunner("sh", "").RunRaw(context.Background(), "-c", "echo hi")
		require.NoError(t, err)
		require.Equal(t, "hi\n", out)
	})

	t.Run("passes stdin through", func(t *testing.T) {
		t.Parallel()
		out, err := NewRunner("cat", "").RunWithInput(context.Background(), "piped")
		require.NoError(t, err)
		require.Equal(t, "piped", out)
	})

	t.Run("extra env is visible to the child", func(t *testing.T) {
		t.Parallel()
		out, err := NewRunner("sh", "").WithEnv("NG_DEV_TEST_VALUE=42").Run(context.Background(), "-c", "echo $NG_DEV_TEST_VALUE")
		require.NoError(t, err)
		require.Equal(t, "42", out)
	})

	t.Run("non-zero exit becomes a command error", func(t *testing.T) {
		t.Parallel()
		_, err := NewRunner("sh", "").Run(context.Background(), "-c", "echo broken >&2; exit 3")
		require.Error(t, err)
		require.True(t, errors.Is(err, ngerrors.ErrCommandFailed))

		var cmdErr *ngerrors.CommandError
		require.True(t, errors.As(err, &cmdErr))
		require.Equal(t, 3, cmdErr.ExitCode)
		require.Contains(t, cmdErr.Stderr, "broken")
	})

	t.Run("splits lines and returns empty slice for no output", func(t *testing.T) {
		t.Parallel()
		lines, err := NewRunner("sh", "").RunLines(context.Background(), "-c", "printf 'a\\nb\\n'")
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, lines)

		lines, err = NewRunner("true", "").RunLines(context.Background())
		require.NoError(t, err)
		require.Empty(t, lines)
	})
}
