package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/config"
)

// inWorkDir adapts a handler that needs the working directory to cobra's
// RunE signature.
func inWorkDir(fn func(w io.Writer, dir string, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		return fn(cmd.OutOrStdout(), dir, args)
	}
}

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Optimize every eligible file in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "print events to stdout instead of the dashboard")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "show line changes of every rewrite")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list tasks and their planned state without calling the service")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create reforge.toml, the output and report directories, and ignore .reforge/",
		RunE:  inWorkDir(scaffold),
	}
}

func scaffold(w io.Writer, dir string, _ []string) error {
	touched, err := config.ScaffoldProject(dir)
	if err != nil {
		return err
	}
	if len(touched) == 0 {
		fmt.Fprintln(w, "Already initialized, nothing to do.")
	}
	for _, p := range touched {
		fmt.Fprintf(w, "  + %s\n", p)
	}
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the current or last run",
		RunE: inWorkDir(func(w io.Writer, dir string, _ []string) error {
			return showStatus(w, dir)
		}),
	}
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log [file]",
		Short: "List the tasks of the newest (or given) run log",
		Args:  cobra.MaximumNArgs(1),
		RunE: inWorkDir(func(w io.Writer, dir string, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return showLog(w, dir, path)
		}),
	}
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <file>",
		Short: "Measure complexity and execution cost of a single file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return scoreFile(ctx, cmd.OutOrStdout(), args[0])
		},
	}
}
