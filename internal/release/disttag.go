package release

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"ngdev.dev/ngdev/internal/runtime"
)

// ExperimentalVersion maps a version onto the 0.x line experimental packages are
// published with: 17.1.3 becomes 0.1701.3.
func ExperimentalVersion(v *semver.Version) *semver.Version {
	return semver.New(0, v.Major()*100+v.Minor(), v.Patch(), v.Prerelease(), "")
}

// SetDistTagOptions configures SetDistTag
type SetDistTagOptions struct {
	Tag     string
	Version string
	// SkipExperimental leaves experimental packages untouched
	SkipExperimental bool
}

// SetDistTag points tag at version for every configured package. Experimental
// packages get the matching experimental version.
func SetDistTag(ctx *runtime.Context, opts SetDistTagOptions) error {
	v, err := semver.StrictNewVersion(opts.Version)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", opts.Version, err)
	}
	if opts.Tag == "" {
		return fmt.Errorf("no dist-tag given")
	}

	for _, pkg := range ctx.Config.Release.NpmPackages {
		version := v
		if pkg.Experimental {
			if opts.SkipExperimental {
				ctx.Splog.Debug("Skipping experimental package %s", pkg.Name)
				continue
			}
			version = ExperimentalVersion(v)
		}
		if err := ctx.Npm.SetDistTag(ctx.Context, pkg.Name, version.String(), opts.Tag); err != nil {
			return fmt.Errorf("failed to set %q for %s@%s: %w", opts.Tag, pkg.Name, version, err)
		}
		ctx.Splog.Debug("Set %q for %s to %s", opts.Tag, pkg.Name, version)
	}
	ctx.Splog.Success("Set the %q dist-tag to v%s for all packages", opts.Tag, v)
	return nil
}

// DeleteDistTag removes tag from every configured package
func DeleteDistTag(ctx *runtime.Context, tag string) error {
	if tag == "latest" {
		return fmt.Errorf("refusing to delete the %q dist-tag", tag)
	}
	for _, pkg := range ctx.Config.Release.NpmPackages {
		if err := ctx.Npm.DeleteDistTag(ctx.Context, pkg.Name, tag); err != nil {
			return fmt.Errorf("failed to delete %q from %s: %w", tag, pkg.Name, err)
		}
	}
	ctx.Splog.Success("Deleted the %q dist-tag from all packages", tag)
	return nil
}
