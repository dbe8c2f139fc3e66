package cli

import (
	"fmt"

	"github.com/harun/agentq/internal/daemon"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the worker without a prompt",
	Long: `Run the background worker headless, fed by the inbox directory and
the configured schedules. SIGINT or SIGTERM drains the queue and exits.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.InboxDir == "" && len(cfg.Schedules) == 0 {
		return fmt.Errorf("nothing to serve: configure inbox_dir or schedules")
	}

	pidFile := getPIDFilePath(cfg)
	if isRunning(pidFile) {
		return fmt.Errorf("agentq is already running (PID file: %s)", pidFile)
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, log, daemon.Options{Output: cmd.OutOrStdout()})
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		return err
	}

	d.Wait()
	return nil
}
