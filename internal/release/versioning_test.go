package release

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/testhelpers"
)

func TestSemverInc(t *testing.T) {
	t.Parallel()

	t.Run("does not mutate the input version", func(t *testing.T) {
		t.Parallel()
		v := MustParse("1.2.3")
		next, err := SemverInc(v, Minor, "")
		require.NoError(t, err)
		require.Equal(t, "1.3.0", next.String())
		require.Equal(t, "1.2.3", v.String())
	})

	t.Run("follows node-semver increments", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			version    string
			kind       ReleaseType
			identifier string
			want       string
		}{
			{"1.2.3", Major, "", "2.0.0"},
			{"2.0.0-rc.1", Major, "", "2.0.0"},
			{"1.2.3", Patch, "", "1.2.4"},
			{"1.2.4-next.0", Patch, "", "1.2.4"},
			{"1.3.0-rc.0", Minor, "", "1.3.0"},
			{"1.2.3", PreMajor, "next", "2.0.0-next.0"},
			{"1.2.3", PreMinor, "next", "1.3.0-next.0"},
			{"1.2.3", PrePatch, "rc", "1.2.4-rc.0"},
			{"1.2.3", Prerelease, "next", "1.2.4-next.0"},
			{"17.2.0-next.1", Prerelease, "next", "17.2.0-next.2"},
			{"17.2.0-next.4", Prerelease, "rc", "17.2.0-rc.0"},
			{"17.2.0-rc.0", Prerelease, "", "17.2.0-rc.1"},
		}
		for _, tc := range cases {
			got, err := SemverInc(MustParse(tc.version), tc.kind, tc.identifier)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.String(), "%s %s %s", tc.version, tc.kind, tc.identifier)
		}
	})

	t.Run("rejects unknown release types", func(t *testing.T) {
		t.Parallel()
		_, err := SemverInc(MustParse("1.0.0"), "sideways", "")
		require.Error(t, err)
	})
}

func TestDetermineMergeBranches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("computes stable versions without the registry", func(t *testing.T) {
		t.Parallel()
		registry := testhelpers.NewFakeNpm()
		branches, err := DetermineMergeBranches(ctx, "10.1.0", "@angular/core", registry)
		require.NoError(t, err)
		require.Equal(t, MergeBranches{Minor: "10.x", Patch: "10.1.x"}, branches)
		require.Zero(t, registry.InfoLookups)
	})

	t.Run("computes minor prereleases without the registry", func(t *testing.T) {
		t.Parallel()
		registry := testhelpers.NewFakeNpm()
		branches, err := DetermineMergeBranches(ctx, "9.3.0-next.0", "@angular/core", registry)
		require.NoError(t, err)
		require.Equal(t, MergeBranches{Minor: "9.x", Patch: "9.2.x"}, branches)
		require.Zero(t, registry.InfoLookups)
	})

	t.Run("queries the registry exactly once for major prereleases", func(t *testing.T) {
		t.Parallel()
		registry := testhelpers.NewFakeNpm()
		registry.AddPackage("@angular/core", "10.2.4")
		branches, err := DetermineMergeBranches(ctx, "11.0.0-next.0", "@angular/core", registry)
		require.NoError(t, err)
		require.Equal(t, MergeBranches{Minor: "10.x", Patch: "10.2.x"}, branches)
		require.Equal(t, 1, registry.InfoLookups)
	})

	t.Run("rejects invalid versions", func(t *testing.T) {
		t.Parallel()
		_, err := DetermineMergeBranches(ctx, "not-a-version", "pkg", testhelpers.NewFakeNpm())
		require.Error(t, err)
		_, err = DetermineMergeBranches(ctx, "10.0.1-next.0", "pkg", testhelpers.NewFakeNpm())
		require.Error(t, err)
	})
}

func TestVersionBranches(t *testing.T) {
	t.Parallel()

	t.Run("recognises version branches", func(t *testing.T) {
		t.Parallel()
		require.True(t, IsVersionBranch("17.1.x"))
		require.False(t, IsVersionBranch("17.x"))
		require.False(t, IsVersionBranch("main"))

		v, err := GetVersionForVersionBranch("17.1.x")
		require.NoError(t, err)
		require.Equal(t, "17.1.0", v.String())
	})
}
