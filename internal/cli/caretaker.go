package cli

import (
	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/caretaker"
	"ngdev.dev/ngdev/internal/cli/common"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/runtime"
)

func newCaretakerCmd() *cobra.Command {
	return groupCmd("caretaker", "Tools for the caretaker rotation", newCaretakerCheckCmd())
}

func newCaretakerCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the health of the repository",
		Long: `Report on the state of the repository for the caretaker.

The check covers:
  - CI status of every active release train branch
  - Counts for the configured GitHub queries
  - Status of the configured external services`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := common.Requirements{GitHub: true, Sections: []config.Section{config.SectionGitHub, config.SectionCaretaker}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				_, err := caretaker.Check(ctx, caretaker.CheckOptions{})
				return err
			})
		},
	}
}
