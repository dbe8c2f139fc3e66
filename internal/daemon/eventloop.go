package daemon

import (
	"context"
	"time"
)

const defaultMaintenanceInterval = 30 * time.Second

// EventLoop runs periodic maintenance while the daemon is up
type EventLoop struct {
	daemon   *Daemon
	interval time.Duration
}

// NewEventLoop creates a new event loop
func NewEventLoop(d *Daemon, interval time.Duration) *EventLoop {
	if interval <= 0 {
		interval = defaultMaintenanceInterval
	}
	return &EventLoop{
		daemon:   d,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled
func (e *EventLoop) Run(ctx context.Context) {
	e.daemon.log.Info().Dur("interval", e.interval).Msg("Event loop started")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.daemon.log.Info().Msg("Event loop stopping")
			return

		case <-ticker.C:
			e.processTasks(ctx)
		}
	}
}

func (e *EventLoop) processTasks(ctx context.Context) {
	stats := e.daemon.queue.Stats()
	if stats.Queued > 0 || stats.Running {
		e.daemon.log.Debug().
			Int("queued", stats.Queued).
			Bool("running", stats.Running).
			Int("processed", stats.Processed).
			Int("failed", stats.Failed).
			Msg("Queue stats")
	}

	if e.daemon.memory == nil {
		return
	}
	count, err := e.daemon.memory.Count(ctx)
	if err != nil {
		e.daemon.log.Warn().Err(err).Msg("Memory log check failed")
		return
	}
	e.daemon.log.Debug().Int("records", count).Msg("Memory log")
}
