package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchInfo(t *testing.T) {
	t.Parallel()

	t.Run("includes lts branches older than latest", func(t *testing.T) {
		t.Parallel()
		env := newReleaseEnv(t)
		env.gh.AddReleaseBranch("main", "17.2.0-next.1")
		env.gh.AddReleaseBranch("17.1.x", "17.1.2")
		env.gh.AddReleaseBranch("16.2.x", "16.2.12")
		env.gh.AddReleaseBranch("15.2.x", "15.2.10")
		info := env.npm.AddPackage("@angular/core", "17.1.2")
		info.DistTags["v16-lts"] = "16.2.12"

		result, err := FetchInfo(env.ctx)
		require.NoError(t, err)
		require.Equal(t, "main", result.Trains.Next.BranchName)
		require.Equal(t, "17.1.x", result.Trains.Latest.BranchName)
		require.Nil(t, result.Trains.ReleaseCandidate)
		require.Len(t, result.LtsBranches, 1)
		require.Equal(t, "16.2.x", result.LtsBranches[0].Name)

		PrintInfo(env.ctx, result)
	})
}
