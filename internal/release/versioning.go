// Package release computes release trains and versions and drives the build,
// publish and dist-tag flows.
package release

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ReleaseType is a node-semver increment kind
type ReleaseType string

const (
	Major      ReleaseType = "major"
	Minor      ReleaseType = "minor"
	Patch      ReleaseType = "patch"
	PreMajor   ReleaseType = "premajor"
	PreMinor   ReleaseType = "preminor"
	PrePatch   ReleaseType = "prepatch"
	Prerelease ReleaseType = "prerelease"
)

// SemverInc returns a new version incremented by releaseType. The input is never
// modified. identifier names the prerelease channel ("next", "rc") for pre* types.
func SemverInc(v *semver.Version, releaseType ReleaseType, identifier string) (*semver.Version, error) {
	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	pre := v.Prerelease()

	switch releaseType {
	case Major:
		if minor != 0 || patch != 0 || pre == "" {
			major++
		}
		return semver.New(major, 0, 0, "", ""), nil
	case Minor:
		if patch != 0 || pre == "" {
			minor++
		}
		return semver.New(major, minor, 0, "", ""), nil
	case Patch:
		if pre == "" {
			patch++
		}
		return semver.New(major, minor, patch, "", ""), nil
	case PreMajor:
		return semver.New(major+1, 0, 0, firstPrerelease(identifier), ""), nil
	case PreMinor:
		return semver.New(major, minor+1, 0, firstPrerelease(identifier), ""), nil
	case PrePatch:
		return semver.New(major, minor, patch+1, firstPrerelease(identifier), ""), nil
	case Prerelease:
		if pre == "" {
			return semver.New(major, minor, patch+1, firstPrerelease(identifier), ""), nil
		}
		return semver.New(major, minor, patch, bumpPrerelease(pre, identifier), ""), nil
	default:
		return nil, fmt.Errorf("unknown release type %q", releaseType)
	}
}

func firstPrerelease(identifier string) string {
	if identifier == "" {
		return "0"
	}
	return identifier + ".0"
}

// bumpPrerelease increments the last numeric part of pre, switching channels
// when identifier differs from the current one.
func bumpPrerelease(pre, identifier string) string {
	parts := strings.Split(pre, ".")
	if identifier != "" && parts[0] != identifier {
		return firstPrerelease(identifier)
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(parts[i]); err == nil {
			parts[i] = strconv.Itoa(n + 1)
			return strings.Join(parts, ".")
		}
	}
	return pre + ".0"
}

// MustParse parses a version or panics; for constants and tests
func MustParse(v string) *semver.Version {
	return semver.MustParse(v)
}

// MergeBranches are the branches a change lands on besides the main branch
type MergeBranches struct {
	Minor string
	Patch string
}

// LatestVersionLookup resolves the version behind a package's "latest" dist-tag
type LatestVersionLookup interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// DetermineMergeBranches computes the minor and patch branches for the version on
// the main branch. Only a major prerelease needs the registry, and then it is
// queried exactly once.
func DetermineMergeBranches(ctx context.Context, currentVersion, npmPackageName string, registry LatestVersionLookup) (MergeBranches, error) {
	v, err := semver.StrictNewVersion(currentVersion)
	if err != nil {
		return MergeBranches{}, fmt.Errorf("cannot parse version %q: %w", currentVersion, err)
	}
	major, minor, patch := v.Major(), v.Minor(), v.Patch()

	if v.Prerelease() == "" {
		return MergeBranches{
			Minor: fmt.Sprintf("%d.x", major),
			Patch: fmt.Sprintf("%d.%d.x", major, minor),
		}, nil
	}
	if patch != 0 {
		return MergeBranches{}, fmt.Errorf("unexpected prerelease %q on a patch version", currentVersion)
	}
	if minor != 0 {
		return MergeBranches{
			Minor: fmt.Sprintf("%d.x", major),
			Patch: fmt.Sprintf("%d.%d.x", major, minor-1),
		}, nil
	}

	latest, err := registry.LatestVersion(ctx, npmPackageName)
	if err != nil {
		return MergeBranches{}, fmt.Errorf("failed to determine the latest version of %s: %w", npmPackageName, err)
	}
	lv, err := semver.NewVersion(latest)
	if err != nil {
		return MergeBranches{}, fmt.Errorf("cannot parse latest published version %q: %w", latest, err)
	}
	return MergeBranches{
		Minor: fmt.Sprintf("%d.x", lv.Major()),
		Patch: fmt.Sprintf("%d.%d.x", lv.Major(), lv.Minor()),
	}, nil
}

var versionBranchPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.x$`)

// IsVersionBranch reports whether name looks like "17.1.x"
func IsVersionBranch(name string) bool {
	return versionBranchPattern.MatchString(name)
}

// GetVersionForVersionBranch returns X.Y.0 for a "X.Y.x" branch
func GetVersionForVersionBranch(name string) (*semver.Version, error) {
	m := versionBranchPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%q is not a version branch", name)
	}
	return semver.StrictNewVersion(m[1] + "." + m[2] + ".0")
}

// IsFeatureFreeze reports whether v is a "next" prerelease on a version branch
func IsFeatureFreeze(v *semver.Version) bool {
	return strings.HasPrefix(v.Prerelease(), "next")
}

// IsReleaseCandidate reports whether v is an "rc" prerelease
func IsReleaseCandidate(v *semver.Version) bool {
	return strings.HasPrefix(v.Prerelease(), "rc")
}

// LtsDistTag returns the dist-tag for a major's long-term support line
func LtsDistTag(major uint64) string {
	return fmt.Sprintf("v%d-lts", major)
}
