package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ng-dev",
		Short: "Developer tooling for the Angular repositories",
		Long: `ng-dev bundles the tooling used by caretakers and release managers:
commit message linting, pull request merging, releases, formatting and
verification of repository configuration.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return err
	})

	rootCmd.PersistentFlags().String("github-token", "", "GitHub token (defaults to GITHUB_TOKEN, GH_TOKEN or TOKEN)")
	rootCmd.PersistentFlags().String("config-dir", ".ng-dev", "Configuration directory relative to the repository root")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug output")

	rootCmd.AddCommand(
		newCaretakerCmd(),
		newCommitMessageCmd(),
		newFormatCmd(),
		newMiscCmd(),
		newNgbotCmd(),
		newPrCmd(),
		newPullapproveCmd(),
		newReleaseCmd(),
	)

	return rootCmd
}

// groupCmd creates a parent command that only holds subcommands. Running it
// without a subcommand prints usage and fails.
func groupCmd(use, short string, children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return fmt.Errorf("%s requires a subcommand", cmd.CommandPath())
		},
	}
	cmd.AddCommand(children...)
	return cmd
}
