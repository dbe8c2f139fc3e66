package commandqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harun/agentq/internal/observability"
	"github.com/harun/agentq/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrStopped is returned by Submit once the stop sentinel has been queued
	ErrStopped = errors.New("queue is stopped")

	// ErrAlreadyStarted is returned by a second call to Start
	ErrAlreadyStarted = errors.New("queue worker already started")
)

// Submission sources
const (
	SourceDirect      = "direct"
	SourceInteractive = "interactive"
	SourceBatch       = "batch"
	SourceInbox       = "inbox"
	SourceSchedule    = "schedule"
)

// Item is one submitted task
type Item struct {
	ID         string
	Seq        int
	Input      string
	Source     string
	EnqueuedAt time.Time
}

// Handler processes one item. It runs to completion before the next item is dequeued.
type Handler func(ctx context.Context, item Item) error

// EventHandler is a function that handles queue events
type EventHandler func(event Event)

// Event represents a queue event
type Event struct {
	Type   string                 // "enqueued" or "completed"
	TaskID string                 // Task ID
	Data   map[string]interface{} // Additional event data
}

// Stats is a snapshot of queue state
type Stats struct {
	Queued    int  `json:"queued"`
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
	Running   bool `json:"running"`
	Started   bool `json:"started"`
	Stopped   bool `json:"stopped"`
}

// Config holds queue configuration
type Config struct {
	Logger zerolog.Logger
}

type entry struct {
	item     Item
	sentinel bool
}

// Queue is a FIFO task queue with a single consumer
type Queue struct {
	logger zerolog.Logger

	mu        sync.Mutex
	entries   []entry
	seq       int
	stopped   bool
	started   bool
	running   bool
	processed int
	failed    int

	notify chan struct{}
	done   chan struct{}

	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex
}

// New creates an empty queue
func New(cfg Config) *Queue {
	observability.EnsureRegistered()

	return &Queue{
		logger:        cfg.Logger.With().Str("component", "commandqueue").Logger(),
		notify:        make(chan struct{}, 1),
		done:          make(chan struct{}),
		eventHandlers: make(map[string][]EventHandler),
	}
}

// Submit enqueues input from a direct caller
func (q *Queue) Submit(input string) (Item, error) {
	return q.SubmitFrom(SourceDirect, input)
}

// SubmitFrom enqueues input and tags it with its source. Safe for concurrent use.
func (q *Queue) SubmitFrom(source, input string) (Item, error) {
	_, span := tracing.StartSpan(context.Background(), "agentq.commandqueue", "commandqueue.enqueue",
		attribute.String("source", source),
	)
	defer span.End()

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		tracing.RecordError(span, ErrStopped)
		return Item{}, ErrStopped
	}
	q.seq++
	item := Item{
		ID:         fmt.Sprintf("task-%d", q.seq),
		Seq:        q.seq,
		Input:      input,
		Source:     source,
		EnqueuedAt: time.Now(),
	}
	q.entries = append(q.entries, entry{item: item})
	queueSize := len(q.entries)
	q.mu.Unlock()

	q.signal()
	span.SetAttributes(attribute.String("task_id", item.ID))

	q.logger.Debug().
		Str("taskId", item.ID).
		Str("source", source).
		Int("queueSize", queueSize).
		Msg("Task enqueued")

	observability.RecordQueueEnqueue(queueSize)
	observability.RecordSubmit(source)

	q.emit(Event{
		Type:   "enqueued",
		TaskID: item.ID,
		Data: map[string]interface{}{
			"queueSize": queueSize,
			"source":    source,
		},
	})

	return item, nil
}

// Stop enqueues the stop sentinel. Items already queued are still processed.
// Calling Stop more than once has no further effect.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	q.entries = append(q.entries, entry{sentinel: true})
	pending := len(q.entries) - 1
	q.mu.Unlock()

	q.signal()
	q.logger.Info().Int("pending", pending).Msg("Stop sentinel queued")
	return nil
}

// Start launches the single worker goroutine. Cancelling ctx ends the worker
// after the item in progress.
func (q *Queue) Start(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return ErrAlreadyStarted
	}
	q.started = true
	q.mu.Unlock()

	go q.work(ctx, handler)
	q.logger.Info().Msg("Worker started")
	return nil
}

// Wait blocks until the worker has exited. It returns at once if Start was never called.
func (q *Queue) Wait() {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if !started {
		return
	}
	<-q.done
}

// Done is closed when the worker exits
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Stats returns a snapshot of the queue state
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	queued := len(q.entries)
	if q.stopped && queued > 0 && q.entries[queued-1].sentinel {
		queued--
	}

	return Stats{
		Queued:    queued,
		Processed: q.processed,
		Failed:    q.failed,
		Running:   q.running,
		Started:   q.started,
		Stopped:   q.stopped,
	}
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// next blocks until an entry is available or ctx is done
func (q *Queue) next(ctx context.Context) (entry, bool) {
	for {
		q.mu.Lock()
		if len(q.entries) > 0 {
			e := q.entries[0]
			q.entries = q.entries[1:]
			q.running = !e.sentinel
			queueSize := len(q.entries)
			q.mu.Unlock()
			observability.SetQueueSize(queueSize)
			return e, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return entry{}, false
		}
	}
}

func (q *Queue) work(ctx context.Context, handler Handler) {
	defer close(q.done)

	for {
		e, ok := q.next(ctx)
		if !ok {
			q.logger.Info().Err(ctx.Err()).Msg("Worker cancelled")
			return
		}
		if e.sentinel {
			q.logger.Info().Msg("Worker stopped")
			return
		}
		q.execute(ctx, handler, e.item)
	}
}

func (q *Queue) execute(ctx context.Context, handler Handler, item Item) {
	taskCtx := tracing.WithTaskID(ctx, item.ID)
	taskCtx, span := tracing.StartSpan(taskCtx, "agentq.commandqueue", "commandqueue.execute_task",
		attribute.String("task_id", item.ID),
		attribute.String("source", item.Source),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(taskCtx, q.logger)

	logger.Debug().Str("taskId", item.ID).Msg("Task started")

	start := time.Now()
	err := q.invoke(taskCtx, handler, item)
	duration := time.Since(start)

	q.mu.Lock()
	q.running = false
	q.processed++
	if err != nil {
		q.failed++
	}
	queueSize := len(q.entries)
	q.mu.Unlock()

	if err != nil {
		tracing.RecordError(span, err)
		logger.Error().
			Str("taskId", item.ID).
			Dur("duration", duration).
			Err(err).
			Msg("Task failed")
	} else {
		logger.Debug().
			Str("taskId", item.ID).
			Dur("duration", duration).
			Msg("Task completed")
	}

	observability.RecordQueueCompletion(duration, err == nil, queueSize)

	q.emit(Event{
		Type:   "completed",
		TaskID: item.ID,
		Data: map[string]interface{}{
			"duration": duration.Milliseconds(),
			"success":  err == nil,
		},
	})
}

// invoke runs handler and turns a panic into an error
func (q *Queue) invoke(ctx context.Context, handler Handler, item Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return handler(ctx, item)
}

// On registers an event handler for a specific event type
func (q *Queue) On(eventType string, handler EventHandler) {
	q.eventMu.Lock()
	defer q.eventMu.Unlock()

	q.eventHandlers[eventType] = append(q.eventHandlers[eventType], handler)
}

// Off removes all handlers for the event type
func (q *Queue) Off(eventType string) {
	q.eventMu.Lock()
	defer q.eventMu.Unlock()

	delete(q.eventHandlers, eventType)
}

// emit calls every handler for the event synchronously
func (q *Queue) emit(event Event) {
	q.eventMu.RLock()
	handlers := q.eventHandlers[event.Type]
	q.eventMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
