package release

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ngdev.dev/ngdev/testhelpers"
)

func TestFetchActiveReleaseTrains(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("finds next and latest", func(t *testing.T) {
		t.Parallel()
		gh := testhelpers.NewFakeGitHub()
		gh.AddReleaseBranch("main", "17.2.0-next.0")
		gh.AddReleaseBranch("17.1.x", "17.1.2")
		gh.AddReleaseBranch("17.0.x", "17.0.9")

		trains, err := FetchActiveReleaseTrains(ctx, gh, "main")
		require.NoError(t, err)
		require.Nil(t, trains.ReleaseCandidate)
		require.Equal(t, "17.1.x", trains.Latest.BranchName)
		require.Equal(t, "17.1.2", trains.Latest.Version.String())
		require.Equal(t, "main", trains.Next.BranchName)
		require.False(t, trains.Next.IsMajor)
	})

	t.Run("finds a release candidate", func(t *testing.T) {
		t.Parallel()
		gh := testhelpers.NewFakeGitHub()
		gh.AddReleaseBranch("main", "18.0.0-next.0")
		gh.AddReleaseBranch("17.2.x", "17.2.0-rc.0")
		gh.AddReleaseBranch("17.1.x", "17.1.2")

		trains, err := FetchActiveReleaseTrains(ctx, gh, "main")
		require.NoError(t, err)
		require.Equal(t, "17.2.x", trains.ReleaseCandidate.BranchName)
		require.Equal(t, "17.1.x", trains.Latest.BranchName)
		require.True(t, trains.Next.IsMajor)
	})

	t.Run("fails without a latest train", func(t *testing.T) {
		t.Parallel()
		gh := testhelpers.NewFakeGitHub()
		gh.AddReleaseBranch("main", "18.0.0-next.0")
		gh.AddReleaseBranch("17.2.x", "17.2.0-rc.0")

		_, err := FetchActiveReleaseTrains(ctx, gh, "main")
		require.Error(t, err)
	})
}

func TestAssertActiveLtsBranch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	newRegistry := func() *testhelpers.FakeNpm {
		registry := testhelpers.NewFakeNpm()
		info := registry.AddPackage("@angular/core", "17.1.2")
		info.Time["15.0.0"] = "2022-11-16T18:00:00.000Z"
		return registry
	}

	t.Run("accepts branches inside the window", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, AssertActiveLtsBranch(ctx, newRegistry(), "@angular/core", "15.2.x", now))
	})

	t.Run("rejects branches past the window", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		err := AssertActiveLtsBranch(ctx, newRegistry(), "@angular/core", "15.2.x", now)
		require.ErrorIs(t, err, ErrLtsEnded)
	})
}
