// Package main is the entry point for the reforge CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

// logger is the diagnostic logger. Commands that load a configuration
// replace it with one writing to log.file.
var logger = zap.NewNop()

func main() {
	registerQuitHandler()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "reforge",
		Short:        "Reforge: batch code optimizer with credential rotation",
		Version:      version,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.AddCommand(
		runCmd(),
		initCmd(),
		statusCmd(),
		logCmd(),
		scoreCmd(),
	)

	return root
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
