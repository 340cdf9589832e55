// Package common provides shared helper functions for CLI commands.
package common

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ngdev.dev/ngdev/internal/config"
	"ngdev.dev/ngdev/internal/runtime"
)

// Requirements describe what a command needs before it runs
type Requirements struct {
	// GitHub creates an authenticated GitHub client
	GitHub bool
	// Sections are validated before the command has any side effect
	Sections []config.Section
}

// Run builds a runtime context from the global flags and passes it to fn
func Run(cmd *cobra.Command, req Requirements, fn func(ctx *runtime.Context) error) error {
	flags := cmd.Root().PersistentFlags()
	token, _ := flags.GetString("github-token")
	configDir, _ := flags.GetString("config-dir")
	debug, _ := flags.GetBool("debug")

	ctx, err := runtime.Load(cmd.Context(), runtime.LoadOptions{
		ConfigDir:     configDir,
		GitHubToken:   token,
		RequireGitHub: req.GitHub,
		Sections:      req.Sections,
		Debug:         debug,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ctx.Splog.Close() }()
	return fn(ctx)
}

// ParsePRNumber parses a pull request number argument
func ParsePRNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", arg)
	}
	return n, nil
}
