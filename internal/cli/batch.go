package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/harun/agentq/internal/daemon"
	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/harun/agentq/pkg/tasksource"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch [file...]",
	Short: "Run every task in one or more task files, then exit",
	Long: `Queue every non-blank line of the given files in order and wait for the
worker to finish them. Without arguments the configured tasks_file is used.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files = []string{cfg.TasksFile}
	}

	tasks, err := loadTaskFiles(cmd.Context(), files)
	if err != nil {
		return err
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

	var submitErr error
	for _, task := range tasks {
		if _, err := d.Submit(commandqueue.SourceBatch, task); err != nil {
			submitErr = err
			break
		}
	}

	return errors.Join(submitErr, d.Stop())
}

// loadTaskFiles reads files concurrently and returns their tasks in argument order
func loadTaskFiles(ctx context.Context, files []string) ([]string, error) {
	perFile := make([][]string, len(files))

	g, _ := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			tasks, err := tasksource.LoadFile(file)
			if err != nil {
				return err
			}
			perFile[i] = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var tasks []string
	for _, t := range perFile {
		tasks = append(tasks, t...)
	}
	return tasks, nil
}
