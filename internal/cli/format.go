package cli

import (
	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/cli/common"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/format"
	"ngdev.dev/ngdev/internal/runtime"
)

func newFormatCmd() *cobra.Command {
	var check bool

	run := func(cmd *cobra.Command, opts format.Options) error {
		opts.Check = check
		req := common.Requirements{Sections: []config.Section{config.SectionFormat}}
		return common.Run(cmd, req, func(ctx *runtime.Context) error {
			_, err := format.Run(ctx, opts)
			return err
		})
	}

	cmd := groupCmd("format", "Format files with the configured formatters",
		&cobra.Command{
			Use:   "all",
			Short: "Format every tracked file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, format.Options{Selection: format.SelectAll})
			},
		},
		&cobra.Command{
			Use:   "changed [ref]",
			Short: "Format files changed since a ref (defaults to the main branch)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				opts := format.Options{Selection: format.SelectChanged}
				if len(args) == 1 {
					opts.Base = args[0]
				}
				return run(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "staged",
			Short: "Format staged files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, format.Options{Selection: format.SelectStaged})
			},
		},
		&cobra.Command{
			Use:   "files <paths...>",
			Short: "Format the given files",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, format.Options{Selection: format.SelectFiles, Files: args})
			},
		},
	)

	cmd.PersistentFlags().BoolVar(&check, "check", false, "Report unformatted files without changing them")

	return cmd
}
