package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/cli/common"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/pr"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

var prRequirements = common.Requirements{
	GitHub:   true,
	Sections: []config.Section{config.SectionGitHub, config.SectionPullRequest},
}

func newPrCmd() *cobra.Command {
	return groupCmd("pr", "Pull request tooling",
		newPrCheckoutCmd(),
		newPrRebaseCmd(),
		newPrMergeCmd(),
		newPrCheckTargetBranchesCmd(),
		newPrDiscoverNewConflictsCmd(),
	)
}

// runWithPR parses the pull request argument and runs fn with a context
func runWithPR(cmd *cobra.Command, arg string, fn func(ctx *runtime.Context, number int) error) error {
	number, err := common.ParsePRNumber(arg)
	if err != nil {
		return err
	}
	return common.Run(cmd, prRequirements, func(ctx *runtime.Context) error {
		return fn(ctx, number)
	})
}

func newPrCheckoutCmd() *cobra.Command {
	var allowNoMaintainerAccess bool

	cmd := &cobra.Command{
		Use:   "checkout <pr>",
		Short: "Check out a pull request locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPR(cmd, args[0], func(ctx *runtime.Context, number int) error {
				checkedOut, err := pr.CheckOutPullRequestLocally(ctx, number, pr.CheckoutOptions{
					AllowIfMaintainerCannotModify: allowNoMaintainerAccess,
				})
				if err != nil {
					return err
				}
				ctx.Splog.Success("Checked out #%d on %s", number, tui.ColorCyan(checkedOut.LocalBranch))
				ctx.Splog.Info("Head branch: %s:%s", checkedOut.PR.HeadOwner, checkedOut.PR.HeadRefName)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allowNoMaintainerAccess, "allow-no-maintainer-access", false, "Check out pull requests that maintainers cannot push to")

	return cmd
}

func newPrRebaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebase <pr>",
		Short: "Rebase a pull request onto its base branch and push it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPR(cmd, args[0], pr.RebasePR)
		},
	}
}

func newPrMergeCmd() *cobra.Command {
	var force bool
	validation := pr.DefaultValidationConfig()

	cmd := &cobra.Command{
		Use:   "merge <pr>",
		Short: "Merge a pull request into every branch its target label resolves to",
		Long: `Validate a pull request and merge it into its target branches.

Failed validations can be skipped interactively, or up front with --force.
Pending pull requests can never be merged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPR(cmd, args[0], func(ctx *runtime.Context, number int) error {
				result, err := pr.Merge(ctx, number, pr.MergeOptions{Validation: validation, ForceIgnore: force})
				if err != nil {
					return err
				}
				ctx.Splog.Success("Merged #%d into %s", number, strings.Join(result.Succeeded, ", "))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Ignore failed validations that can be ignored")
	cmd.Flags().BoolVar(&validation.AssertMergeReady, "assert-merge-ready", true, "Require the merge ready label")
	cmd.Flags().BoolVar(&validation.AssertSignedCla, "assert-signed-cla", true, "Require a signed CLA")
	cmd.Flags().BoolVar(&validation.AssertChangesAllowForTargetLabel, "assert-changes-allowed", true, "Require commit types allowed by the target label")
	cmd.Flags().BoolVar(&validation.AssertPassingCi, "assert-passing-ci", true, "Require passing CI")
	cmd.Flags().BoolVar(&validation.AssertBreakingChangeLabel, "assert-breaking-change-label", true, "Require the breaking change label to match the commits")

	return cmd
}

func newPrCheckTargetBranchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-target-branches <pr>",
		Short: "Print the branches a pull request would be merged into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPR(cmd, args[0], func(ctx *runtime.Context, number int) error {
				report, err := pr.CheckTargetBranches(ctx, number)
				if err != nil {
					return err
				}
				ctx.Splog.Info("#%d %s", number, report.PR.Title)
				ctx.Splog.Info("Target label: %s", tui.ColorCyan(string(report.Label)))
				ctx.Splog.Info("Target branches:")
				for _, branch := range report.Branches {
					ctx.Splog.Info("  - %s", branch)
				}
				return nil
			})
		},
	}
}

func newPrDiscoverNewConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover-new-conflicts <pr>",
		Short: "List open pull requests that would conflict once a pull request is merged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPR(cmd, args[0], func(ctx *runtime.Context, number int) error {
				conflicting, err := pr.DiscoverNewConflicts(ctx, number)
				if err != nil {
					return err
				}
				pr.PrintConflicts(ctx, number, conflicting)
				return nil
			})
		},
	}
}
