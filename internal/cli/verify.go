package cli

import (
	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/cli/common"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/misc"
	"ngdev.dev/ngdev/internal/ngbot"
	"ngdev.dev/ngdev/internal/pullapprove"
	"ngdev.dev/ngdev/internal/runtime"
)

func newNgbotCmd() *cobra.Command {
	return groupCmd("ngbot", "Tools for the repository robot", &cobra.Command{
		Use:   "verify",
		Short: "Verify the robot configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, common.Requirements{}, ngbot.Verify)
		},
	})
}

func newPullapproveCmd() *cobra.Command {
	return groupCmd("pullapprove", "Tools for the PullApprove configuration", &cobra.Command{
		Use:   "verify",
		Short: "Verify that review groups cover the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, common.Requirements{}, func(ctx *runtime.Context) error {
				_, err := pullapprove.Verify(ctx)
				return err
			})
		},
	})
}

func newMiscCmd() *cobra.Command {
	var linker string

	buildAndLink := &cobra.Command{
		Use:   "build-and-link <projectRoot>",
		Short: "Build the release packages and link them into another project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := common.Requirements{Sections: []config.Section{config.SectionRelease}}
			return common.Run(cmd, req, func(ctx *runtime.Context) error {
				_, err := misc.BuildAndLink(ctx, misc.BuildAndLinkOptions{ProjectRoot: args[0], Linker: linker})
				return err
			})
		},
	}
	buildAndLink.Flags().StringVar(&linker, "yarn", misc.DefaultLinker, "Yarn binary used to link packages")

	return groupCmd("misc", "Miscellaneous repository utilities", buildAndLink)
}
