package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/harun/agentq/pkg/memory"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show worker status",
	Long:  `Show whether an agentq process owns the working directory and how many exchanges the memory log holds.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pidFile := getPIDFilePath(cfg)

	if !isRunning(pidFile) {
		fmt.Fprintln(out, "Status: stopped")
	} else {
		pid, err := readPID(pidFile)
		if err != nil {
			return fmt.Errorf("failed to read PID file: %w", err)
		}

		fmt.Fprintf(out, "Status: running\n")
		fmt.Fprintf(out, "PID: %d\n", pid)
		// PID file mtime approximates the start time.
		if fileInfo, err := os.Stat(pidFile); err == nil {
			fmt.Fprintf(out, "Uptime: %s\n", formatDuration(time.Since(fileInfo.ModTime())))
		}
	}

	if _, err := os.Stat(cfg.MemoryDB); err != nil {
		fmt.Fprintln(out, "Records: 0")
		return nil
	}

	mem, err := memory.Open(memory.Config{DBPath: cfg.MemoryDB, Logger: zerolog.Nop()})
	if err != nil {
		return err
	}
	defer mem.Close()

	count, err := mem.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Records: %d\n", count)
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
