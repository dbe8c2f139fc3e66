package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harun/agentq/internal/daemon"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the worker and the interactive task prompt",
	Long: `Start the background worker and read tasks from the ">> " prompt.
Type 'help' for the prompt commands. On 'quit' or end of input every task
already queued finishes before agentq exits.

Only the prompt words help, quit and run tests ignore case. Tasks are
submitted exactly as typed, so a shell command must start with the
lowercase prefix "run command "; "Run Command ls" is sent to the remote
endpoint as a question.`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	// Reports from the worker and the prompt share one stream.
	out := &syncWriter{w: cmd.OutOrStdout()}

	d, err := daemon.New(cfg, log, daemon.Options{Output: out})
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repl := NewREPL(d, cmd.InOrStdin(), out, cfg.TasksFile, log.Component("cli"))
	runErr := repl.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	return errors.Join(runErr, d.Stop())
}
