package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ngdev.dev/ngdev/internal/cli"
	"ngdev.dev/ngdev/internal/tui"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, tui.ColorRed(err.Error()))
		stop()
		os.Exit(1)
	}
}
