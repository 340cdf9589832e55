package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/cli/common"
	"ngdev.dev/ngdev/internal/commit"
	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/runtime"
	"ngdev.dev/ngdev/internal/tui"
)

var commitMessageRequirements = common.Requirements{Sections: []config.Section{config.SectionCommitMessage}}

func newCommitMessageCmd() *cobra.Command {
	return groupCmd("commit-message", "Commit message validation and authoring",
		newValidateFileCmd(),
		newValidateRangeCmd(),
		newWizardCmd(),
	)
}

func newValidateFileCmd() *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "validate-file <path>",
		Short: "Validate the commit message in a file",
		Long: `Validate the commit message stored in a file, such as .git/COMMIT_EDITMSG.

Pass --error=false when running as a git hook to report problems without
failing the commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, commitMessageRequirements, func(ctx *runtime.Context) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read commit message file: %w", err)
				}
				result := commit.Validate(string(data), ctx.Config.CommitMessage, commit.ValidateOptions{})
				if result.Valid {
					ctx.Splog.Debug("Commit message is valid")
					return nil
				}
				commit.PrintValidationErrors(ctx.Splog, result)
				if !failOnError {
					ctx.Splog.Warn("Continuing with an invalid commit message")
					return nil
				}
				return errors.New("invalid commit message")
			})
		},
	}

	cmd.Flags().BoolVar(&failOnError, "error", true, "Exit with an error when the message is invalid")

	return cmd
}

func newValidateRangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-range <from> [to]",
		Short: "Validate every commit message in a range",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], "HEAD"
			if len(args) == 2 {
				to = args[1]
			}
			return common.Run(cmd, commitMessageRequirements, func(ctx *runtime.Context) error {
				commits, err := ctx.Git.CommitsInRange(ctx.Context, from, to)
				if err != nil {
					return err
				}
				result := commit.ValidateRange(commits, ctx.Config.CommitMessage)
				if result.Valid() {
					ctx.Splog.Success("All %d commit message(s) in %s..%s are valid", len(commits), from, to)
					return nil
				}
				invalid := 0
				for i, res := range result.Results {
					if res.Valid {
						continue
					}
					invalid++
					ctx.Splog.Info("%s", tui.ColorYellow(result.SHAs[i]))
					commit.PrintValidationErrors(ctx.Splog, res)
					ctx.Splog.Newline()
				}
				return fmt.Errorf("%d of %d commit message(s) are invalid", invalid, len(commits))
			})
		},
	}
}

func newWizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard <file> [source] [sha]",
		Short: "Prompt for a commit message header",
		Long: `Fill the commit message file with a header built from prompts.

Meant to be called from a prepare-commit-msg hook. When git already supplies
a message the file is left untouched.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source, sha string
			if len(args) > 1 {
				source = args[1]
			}
			if len(args) > 2 {
				sha = args[2]
			}
			return common.Run(cmd, commitMessageRequirements, func(ctx *runtime.Context) error {
				_, err := commit.RunWizard(args[0], source, sha, ctx.Config.CommitMessage, ctx.Prompter)
				return err
			})
		},
	}
}
