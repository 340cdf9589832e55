package release

import (
	"fmt"

	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

// Info is what release info prints
type Info struct {
	Trains      *ActiveReleaseTrains
	LtsBranches []VersionBranch
}

// FetchInfo collects the active release trains and, when a package is
// configured, the branches still in long-term support.
func FetchInfo(ctx *runtime.Context) (*Info, error) {
	trains, err := FetchActiveReleaseTrains(ctx.Context, ctx.GitHub, ctx.Config.GitHub.MainBranchName)
	if err != nil {
		return nil, err
	}
	info := &Info{Trains: trains}

	pkg := ctx.Config.Release.RepresentativePackage()
	if pkg == "" || ctx.Npm == nil {
		return info, nil
	}
	lts, err := LtsBranches(ctx.Context, ctx.GitHub, ctx.Npm, pkg)
	if err != nil {
		return nil, err
	}
	for _, b := range lts {
		if b.Version.LessThan(trains.Latest.Version) {
			info.LtsBranches = append(info.LtsBranches, b)
		}
	}
	return info, nil
}

// PrintInfo prints the active release trains
func PrintInfo(ctx *runtime.Context, info *Info) {
	splog := ctx.Splog
	splog.Section("Current version branches in the project:")
	splog.Info("%s %s", tui.ColorBold("Next:"), trainLine(info.Trains.Next))
	if rc := info.Trains.ReleaseCandidate; rc != nil {
		phase := "Release Candidate"
		if IsFeatureFreeze(rc.Version) {
			phase = "Feature Freeze"
		}
		splog.Info("%s %s", tui.ColorBold(phase+":"), trainLine(rc))
	}
	splog.Info("%s %s", tui.ColorBold("Latest:"), trainLine(info.Trains.Latest))
	for _, b := range info.LtsBranches {
		splog.Info("%s %s", tui.ColorBold("LTS:"), b.Name)
	}
}

func trainLine(t *ReleaseTrain) string {
	return fmt.Sprintf("v%s (%s)", t.Version, tui.ColorCyan(t.BranchName))
}
