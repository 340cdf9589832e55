package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/cli/common"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/release"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

func newReleaseCmd() *cobra.Command {
	return groupCmd("release", "Release tooling",
		newReleaseBuildCmd(),
		newReleasePublishCmd(),
		newReleaseSetDistTagCmd(),
		newReleaseInfoCmd(),
		newReleaseNotesCmd(),
	)
}

func newReleaseBuildCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the release packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := common.Requirements{Sections: []config.Section{config.SectionRelease}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				built, err := release.BuildPackages(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					data, err := json.MarshalIndent(built, "", "  ")
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				for _, pkg := range built {
					ctx.Splog.Info("  %s %s", pkg.Name, tui.ColorDim(pkg.OutputPath))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the built packages as JSON")

	return cmd
}

func newReleasePublishCmd() *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Cut and publish a release",
		Long: `Cut a release interactively.

The version bump is staged as a pull request from your fork. Once it is
merged the packages are built, published to npm, tagged and announced as a
GitHub release.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := common.Requirements{GitHub: true, Sections: []config.Section{config.SectionGitHub, config.SectionRelease}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				result, err := release.Publish(ctx, release.PublishOptions{Action: action})
				if err != nil {
					return err
				}
				ctx.Splog.Newline()
				ctx.Splog.Success("Released v%s from %s", result.Version, tui.ColorCyan(result.Branch))
				if result.ReleaseURL != "" {
					ctx.Splog.Info("%s", result.ReleaseURL)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Release action to run instead of prompting (e.g. cut-new-patch)")

	return cmd
}

func newReleaseSetDistTagCmd() *cobra.Command {
	var remove, skipExperimental bool

	cmd := &cobra.Command{
		Use:   "set-dist-tag <tag> [version]",
		Short: "Point an npm dist-tag at a version for every release package",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove && len(args) != 1 {
				return errors.New("--delete takes only a tag")
			}
			if !remove && len(args) != 2 {
				return errors.New("a version is required")
			}
			req := common.Requirements{Sections: []config.Section{config.SectionRelease}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				if remove {
					return release.DeleteDistTag(ctx, args[0])
				}
				return release.SetDistTag(ctx, release.SetDistTagOptions{
					Tag:              args[0],
					Version:          args[1],
					SkipExperimental: skipExperimental,
				})
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the dist-tag instead of setting it")
	cmd.Flags().BoolVar(&skipExperimental, "skip-experimental", false, "Leave experimental packages untouched")

	return cmd
}

func newReleaseInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the active release trains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := common.Requirements{GitHub: true, Sections: []config.Section{config.SectionGitHub, config.SectionRelease}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				info, err := release.FetchInfo(ctx)
				if err != nil {
					return err
				}
				release.PrintInfo(ctx, info)
				return nil
			})
		},
	}
}

func newReleaseNotesCmd() *cobra.Command {
	var from, to string
	var prepend bool

	cmd := &cobra.Command{
		Use:   "notes <version>",
		Short: "Generate release notes for the commits in a range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := semver.StrictNewVersion(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			req := common.Requirements{Sections: []config.Section{config.SectionGitHub, config.SectionRelease}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				notes, err := release.BuildReleaseNotes(ctx, version, from, to)
				if err != nil {
					return err
				}
				markdown, err := notes.Markdown()
				if err != nil {
					return err
				}
				if !prepend {
					_, err = fmt.Fprint(cmd.OutOrStdout(), markdown)
					return err
				}
				path := filepath.Join(ctx.RepoRoot, ctx.Config.Release.ChangelogPath)
				if err := release.PrependToChangelog(path, markdown); err != nil {
					return err
				}
				ctx.Splog.Success("Added release notes for v%s to %s", version, ctx.Config.Release.ChangelogPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Ref the release starts after (required)")
	cmd.Flags().StringVar(&to, "to", "HEAD", "Ref the release ends at")
	cmd.Flags().BoolVar(&prepend, "prepend-to-changelog", false, "Prepend the notes to the changelog instead of printing them")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
