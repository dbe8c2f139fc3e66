package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/harun/agentq/internal/tracing"
	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/harun/agentq/pkg/supervisor"
)

// Reporter prints one block per finished task
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Report prints the task, its result and the memory record id
func (r *Reporter) Report(o supervisor.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintf(r.out, "\nTask: %s\nResult:\n%s\nTask ID: %d\n\n", o.Input, o.Response, o.RecordID)
	return err
}

// handleTask is the worker handler. A task whose exchange could not be
// persisted or written out still gets reported.
func (d *Daemon) handleTask(ctx context.Context, item commandqueue.Item) error {
	logger := tracing.LoggerFromContext(ctx, d.log)

	outcome, err := d.supervisor.Delegate(ctx, item.Input)
	if outcome.Input == "" {
		outcome.Input = item.Input
	}

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}

	path, werr := d.results.Write(item.Input, outcome.Response)
	if werr != nil {
		logger.Error().Err(werr).Msg("Failed to write result artifact")
		errs = append(errs, werr)
	}

	if rerr := d.reporter.Report(outcome); rerr != nil {
		errs = append(errs, fmt.Errorf("failed to report task: %w", rerr))
	}

	logger.Info().
		Str("agent", outcome.AgentName).
		Int64("record_id", outcome.RecordID).
		Str("artifact", path).
		Str("source", item.Source).
		Dur("duration", outcome.Duration).
		Dur("waited", time.Since(item.EnqueuedAt)).
		Msg("Task finished")

	return errors.Join(errs...)
}
