package commit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/git"
)

func testConfig() config.CommitMessageConfig {
	return config.CommitMessageConfig{
		MaxLineLength:             120,
		MinBodyLength:             20,
		MinBodyLengthTypeExcludes: []string{"docs"},
		Scopes:                    []string{"core", "router", "angular/router"},
	}
}

const validBody = "\n\nThis body explains the change in enough detail."

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a valid message", func(t *testing.T) {
		t.Parallel()
		result := Validate("feat(core): add thing"+validBody, testConfig(), ValidateOptions{})
		require.True(t, result.Valid, result.Errors)
		require.Empty(t, result.Errors)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		t.Parallel()
		result := Validate("feature(core): add thing"+validBody, testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "'feature' is not an allowed type")
	})

	t.Run("requires scopes for feat", func(t *testing.T) {
		t.Parallel()
		result := Validate("feat: add thing"+validBody, testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "Scopes are required")
	})

	t.Run("forbids scopes for release", func(t *testing.T) {
		t.Parallel()
		result := Validate("release(core): cut v1"+validBody, testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "Scopes are forbidden")
	})

	t.Run("rejects scopes outside the allow list", func(t *testing.T) {
		t.Parallel()
		result := Validate("fix(forms): patch"+validBody, testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "'forms' is not an allowed scope")
	})

	t.Run("enforces the body length except for excluded types", func(t *testing.T) {
		t.Parallel()
		result := Validate("fix(core): patch\n\nshort", testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "minimum length of 20")

		result = Validate("docs: typo", testConfig(), ValidateOptions{})
		require.True(t, result.Valid, result.Errors)
	})

	t.Run("rejects long headers and body lines but not urls", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 130)
		result := Validate("fix(core): "+long+validBody, testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "header is longer than 120")

		result = Validate("fix(core): patch"+validBody+"\n"+long, testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "lines greater than 120")

		result = Validate("fix(core): patch"+validBody+"\nhttps://example.com/"+long, testConfig(), ValidateOptions{})
		require.True(t, result.Valid, result.Errors)
	})

	t.Run("rejects misspelled breaking change notes", func(t *testing.T) {
		t.Parallel()
		result := Validate("feat(core): drop api"+validBody+"\n\nBREAKING-CHANGE: gone", testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "invalid breaking change note")
	})

	t.Run("rejects misspelled deprecation notes", func(t *testing.T) {
		t.Parallel()
		result := Validate("feat(core): deprecate api"+validBody+"\n\nDEPRECATION: old", testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "invalid deprecation note")
	})

	t.Run("handles squash commits", func(t *testing.T) {
		t.Parallel()
		require.True(t, Validate("squash! feat(core): x", testConfig(), ValidateOptions{}).Valid)
		require.False(t, Validate("squash! feat(core): x", testConfig(), ValidateOptions{DisallowSquash: true}).Valid)
	})

	t.Run("matches fixups against prior headers", func(t *testing.T) {
		t.Parallel()
		opts := ValidateOptions{NonFixupCommitHeaders: []string{"feat(core): x"}}
		require.True(t, Validate("fixup! feat(core): x", testConfig(), opts).Valid)
		require.False(t, Validate("fixup! feat(core): y", testConfig(), opts).Valid)
	})

	t.Run("accepts reverts", func(t *testing.T) {
		t.Parallel()
		require.True(t, Validate(`Revert "feat(core): x"`, testConfig(), ValidateOptions{}).Valid)
	})

	t.Run("rejects malformed headers", func(t *testing.T) {
		t.Parallel()
		result := Validate("Update README", testConfig(), ValidateOptions{})
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "does not match the expected format")
	})
}

func TestValidateRange(t *testing.T) {
	t.Parallel()

	t.Run("accepts fixups of earlier commits only", func(t *testing.T) {
		t.Parallel()
		result := ValidateRange([]git.RawCommit{
			{SHA: "1", Message: "fixup! fix(core): second"},
			{SHA: "2", Message: "feat(core): first" + validBody},
			{SHA: "3", Message: "fixup! feat(core): first"},
		}, testConfig())

		require.False(t, result.Valid())
		require.False(t, result.Results[0].Valid)
		require.True(t, result.Results[1].Valid)
		require.True(t, result.Results[2].Valid)
		require.Equal(t, []string{"1", "2", "3"}, result.SHAs)
		require.Equal(t, "2", result.Results[1].Commit.SHA)
	})
}
