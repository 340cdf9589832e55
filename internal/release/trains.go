package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"ngdev.dev/ngdev/internal/github"
	"ngdev.dev/ngdev/internal/npm"
)

// ReleaseTrain is a branch tracking one version line
type ReleaseTrain struct {
	BranchName string
	Version    *semver.Version
	IsMajor    bool
}

// NewReleaseTrain creates a train for branch at version
func NewReleaseTrain(branch string, v *semver.Version) *ReleaseTrain {
	return &ReleaseTrain{
		BranchName: branch,
		Version:    v,
		IsMajor:    v.Minor() == 0 && v.Patch() == 0,
	}
}

func (t *ReleaseTrain) String() string {
	return fmt.Sprintf("%s (%s)", t.BranchName, t.Version)
}

// ActiveReleaseTrains are the trains currently accepting changes.
// ReleaseCandidate is nil outside of a feature-freeze or RC phase.
type ActiveReleaseTrains struct {
	ReleaseCandidate *ReleaseTrain
	Latest           *ReleaseTrain
	Next             *ReleaseTrain
}

type packageJSON struct {
	Version string `json:"version"`
}

// VersionOfBranch reads the package.json version on a branch
func VersionOfBranch(ctx context.Context, gh github.Client, branch string) (*semver.Version, error) {
	data, err := gh.GetFileContents(ctx, "package.json", branch)
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json of %s: %w", branch, err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json of %s: %w", branch, err)
	}
	v, err := semver.StrictNewVersion(pkg.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q in package.json of %s: %w", pkg.Version, branch, err)
	}
	return v, nil
}

// VersionBranch is a version branch with the version parsed from its name
type VersionBranch struct {
	Name    string
	Version *semver.Version
}

// ListVersionBranches returns every "X.Y.x" branch, newest first
func ListVersionBranches(ctx context.Context, gh github.Client) ([]VersionBranch, error) {
	branches, err := gh.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	var out []VersionBranch
	for _, b := range branches {
		if !IsVersionBranch(b.Name) {
			continue
		}
		v, err := GetVersionForVersionBranch(b.Name)
		if err != nil {
			continue
		}
		out = append(out, VersionBranch{Name: b.Name, Version: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version.GreaterThan(out[j].Version) })
	return out, nil
}

// FetchActiveReleaseTrains determines the next, latest and (if any) release
// candidate trains from the repository branches.
func FetchActiveReleaseTrains(ctx context.Context, gh github.Client, mainBranch string) (*ActiveReleaseTrains, error) {
	nextVersion, err := VersionOfBranch(ctx, gh, mainBranch)
	if err != nil {
		return nil, err
	}
	trains := &ActiveReleaseTrains{Next: NewReleaseTrain(mainBranch, nextVersion)}

	branches, err := ListVersionBranches(ctx, gh)
	if err != nil {
		return nil, err
	}

	// Only the two most recent version branches can be active.
	for i, b := range branches {
		if i >= 2 {
			break
		}
		if b.Version.GreaterThan(nextVersion) {
			return nil, fmt.Errorf("version branch %s is ahead of the %s branch (%s)", b.Name, mainBranch, nextVersion)
		}
		v, err := VersionOfBranch(ctx, gh, b.Name)
		if err != nil {
			return nil, err
		}
		train := NewReleaseTrain(b.Name, v)
		if IsFeatureFreeze(v) || IsReleaseCandidate(v) {
			if trains.ReleaseCandidate != nil {
				return nil, fmt.Errorf("found two release-candidate branches: %s and %s", trains.ReleaseCandidate.BranchName, b.Name)
			}
			trains.ReleaseCandidate = train
			continue
		}
		trains.Latest = train
		break
	}

	if trains.Latest == nil {
		return nil, errors.New("unable to determine the latest release-train: expected a version branch without a prerelease")
	}
	return trains, nil
}

const (
	// ActiveSupportMonths is how long a major receives regular support
	ActiveSupportMonths = 6
	// LtsSupportMonths is how long a major receives long-term support afterwards
	LtsSupportMonths = 12
)

// ErrLtsEnded is returned when a version branch is past its support window
var ErrLtsEnded = errors.New("long-term support has ended")

// AssertActiveLtsBranch checks that the major of a version branch is still within
// its long-term support window, measured from the registry publish time of X.0.0.
func AssertActiveLtsBranch(ctx context.Context, registry npm.Client, pkg, branch string, now time.Time) error {
	v, err := GetVersionForVersionBranch(branch)
	if err != nil {
		return err
	}
	info, err := registry.PackageInfo(ctx, pkg)
	if err != nil {
		return err
	}
	majorRelease := fmt.Sprintf("%d.0.0", v.Major())
	published, ok := info.Time[majorRelease]
	if !ok {
		return fmt.Errorf("no publish date recorded for %s@%s", pkg, majorRelease)
	}
	releasedAt, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return fmt.Errorf("invalid publish date %q for %s@%s: %w", published, pkg, majorRelease, err)
	}
	end := releasedAt.AddDate(0, ActiveSupportMonths+LtsSupportMonths, 0)
	if now.After(end) {
		return fmt.Errorf("%w for v%d on %s", ErrLtsEnded, v.Major(), end.Format("2006-01-02"))
	}
	return nil
}

// LtsBranches returns the version branches whose major still has an LTS dist-tag
func LtsBranches(ctx context.Context, gh github.Client, registry npm.Client, pkg string) ([]VersionBranch, error) {
	info, err := registry.PackageInfo(ctx, pkg)
	if err != nil {
		return nil, err
	}
	branches, err := ListVersionBranches(ctx, gh)
	if err != nil {
		return nil, err
	}
	var out []VersionBranch
	seen := map[uint64]bool{}
	for _, b := range branches {
		major := b.Version.Major()
		if seen[major] {
			continue
		}
		if _, ok := info.DistTags[LtsDistTag(major)]; ok {
			seen[major] = true
			out = append(out, b)
		}
	}
	return out, nil
}
