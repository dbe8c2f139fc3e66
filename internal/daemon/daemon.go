package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/harun/agentq/internal/config"
	"github.com/harun/agentq/internal/logger"
	"github.com/harun/agentq/internal/observability"
	"github.com/harun/agentq/internal/tracing"
	"github.com/harun/agentq/pkg/agent"
	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/harun/agentq/pkg/memory"
	"github.com/harun/agentq/pkg/results"
	"github.com/harun/agentq/pkg/scheduler"
	"github.com/harun/agentq/pkg/shell"
	"github.com/harun/agentq/pkg/supervisor"
	"github.com/harun/agentq/pkg/tasksource"
	"github.com/rs/zerolog"
)

// Options carries process-level collaborators that do not belong in the config file
type Options struct {
	Output     io.Writer    // task reports, defaults to stdout
	HTTPClient *http.Client // remote provider client, optional
}

// Daemon owns the queue, its worker and every task source
type Daemon struct {
	config *config.Config
	logger *logger.Logger
	log    zerolog.Logger

	// Core modules
	queue      *commandqueue.Queue
	memory     *memory.Log
	supervisor *supervisor.Supervisor
	results    *results.Writer
	reporter   *Reporter

	// Task sources
	scheduler *scheduler.Scheduler
	inbox     *tasksource.Watcher

	// Internal
	metricsServer *metricsServer
	eventLoop     *EventLoop
	lifecycle     *LifecycleManager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startTime time.Time
	running   bool
	stopped   bool
	mu        sync.RWMutex

	tracingEnabled bool
	traceFile      io.Closer
}

// New opens the memory log and builds every component. Nothing runs until Start.
func New(cfg *config.Config, log *logger.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	cfg.ResolvePaths()

	ctx, cancel := context.WithCancel(context.Background())

	observability.EnsureRegistered()
	log.RedactLiteral(cfg.APIKey)

	d := &Daemon{
		config: cfg,
		logger: log,
		log:    log.Component("daemon"),
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.Tracing.Enabled {
		if err := d.initializeTracing(); err != nil {
			d.log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
		}
	}

	if err := d.initializeCoreModules(opts); err != nil {
		cancel()
		d.closeMemory()
		d.shutdownTracing()
		return nil, fmt.Errorf("failed to initialize core modules: %w", err)
	}

	if err := d.initializeSources(); err != nil {
		cancel()
		d.closeMemory()
		d.shutdownTracing()
		return nil, fmt.Errorf("failed to initialize task sources: %w", err)
	}

	d.eventLoop = NewEventLoop(d, defaultMaintenanceInterval)
	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

func (d *Daemon) initializeTracing() error {
	path := d.config.Tracing.File
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	exporter, closer, err := tracing.NewFileExporter(path)
	if err != nil {
		return err
	}
	if err := tracing.InitOpenTelemetry(tracing.ServiceName, exporter); err != nil {
		_ = closer.Close()
		return err
	}

	d.traceFile = closer
	d.tracingEnabled = true
	d.log.Info().Str("file", path).Msg("Tracing enabled")
	return nil
}

func (d *Daemon) initializeCoreModules(opts Options) error {
	cfg := d.config

	if err := os.MkdirAll(cfg.WorkingDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	d.log.Info().Str("path", cfg.WorkingDirectory).Msg("Using working directory")

	mem, err := memory.Open(memory.Config{
		DBPath: cfg.MemoryDB,
		Logger: d.logger.GetZerolog(),
	})
	if err != nil {
		return err
	}
	d.memory = mem

	executor := shell.NewExecutor(shell.Config{
		Shell:      cfg.Shell,
		WorkingDir: cfg.WorkingDirectory,
	}, d.logger.GetZerolog())

	factory := &agent.ProviderFactory{}
	provider, err := factory.NewProvider(agent.ProviderConfig{
		Provider:   cfg.Provider,
		Endpoint:   cfg.APIEndpoint,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.RequestTimeout(),
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return err
	}

	replier := agent.NewReplyClient(provider, agent.ReplyConfig{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Logger:    d.logger.GetZerolog(),
	})

	d.supervisor = supervisor.New(supervisor.Config{
		SystemMessage: cfg.SystemMessage,
		Capacity:      cfg.RegistryCapacity,
		Executor:      executor,
		Replier:       replier,
		Memory:        mem,
		Logger:        d.logger.GetZerolog(),
	})

	writer, err := results.NewWriter(cfg.WorkingDirectory)
	if err != nil {
		return err
	}
	d.results = writer
	d.reporter = NewReporter(opts.Output)

	d.queue = commandqueue.New(commandqueue.Config{Logger: d.logger.GetZerolog()})

	d.log.Info().
		Str("provider", provider.Provider()).
		Str("model", cfg.Model).
		Str("memory_db", cfg.MemoryDB).
		Msg("Core modules initialized")
	return nil
}

func (d *Daemon) initializeSources() error {
	cfg := d.config

	if len(cfg.Schedules) > 0 {
		d.scheduler = scheduler.New(d.queue, d.logger.GetZerolog())
		for _, s := range cfg.Schedules {
			if err := d.scheduler.Add(scheduler.Schedule{Name: s.Name, Spec: s.Spec, Task: s.Task}); err != nil {
				return err
			}
		}
	}

	if cfg.InboxDir != "" {
		watcher, err := tasksource.NewWatcher(tasksource.WatcherConfig{
			Dir:       cfg.InboxDir,
			Submitter: d.queue,
			Logger:    d.logger.GetZerolog(),
		})
		if err != nil {
			return err
		}
		d.inbox = watcher
	}

	if cfg.Metrics.Enabled {
		d.metricsServer = newMetricsServer(cfg.Metrics.Addr, d.log)
	}

	return nil
}

// Start launches the worker and the optional task sources
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	if d.stopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon has been stopped")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	logger := d.log.With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().Msg("Starting agentq")

	if err := d.startComponents(); err != nil {
		// Stop releases whatever did start, so a failed Start leaves nothing behind.
		return errors.Join(err, d.Stop())
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.eventLoop.Run(d.ctx)
	}()

	logger.Info().Msg("agentq started")
	return nil
}

func (d *Daemon) startComponents() error {
	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if d.metricsServer != nil {
		if err := d.metricsServer.Start(&d.wg); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// The worker context is never cancelled per task.
	if err := d.queue.Start(context.Background(), d.handleTask); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	if d.scheduler != nil {
		d.scheduler.Start()
	}

	if d.inbox != nil {
		if err := d.inbox.Start(); err != nil {
			return fmt.Errorf("failed to start inbox watcher: %w", err)
		}
	}
	return nil
}

// Submit enqueues one task
func (d *Daemon) Submit(source, input string) (commandqueue.Item, error) {
	return d.queue.SubmitFrom(source, input)
}

// SubmitFile enqueues every task in a newline-delimited file and returns how many were queued
func (d *Daemon) SubmitFile(source, path string) (int, error) {
	tasks, err := tasksource.LoadFile(path)
	if err != nil {
		return 0, err
	}
	for i, task := range tasks {
		if _, err := d.queue.SubmitFrom(source, task); err != nil {
			return i, err
		}
	}
	d.log.Info().Str("file", path).Int("tasks", len(tasks)).Msg("Task file queued")
	return len(tasks), nil
}

// Stop stops the task sources, queues the stop sentinel, waits for every
// pending task to finish and then releases the memory log.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.stopped = true
	d.mu.Unlock()

	logger := d.log.With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().Msg("Stopping agentq")

	if d.inbox != nil {
		if err := d.inbox.Stop(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop inbox watcher")
		}
	}

	if d.scheduler != nil {
		d.scheduler.Stop()
	}

	if err := d.queue.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop queue")
	}
	d.queue.Wait()
	stats := d.queue.Stats()
	logger.Info().Int("processed", stats.Processed).Int("failed", stats.Failed).Msg("Worker drained")

	d.cancel()

	if d.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to stop metrics server")
		}
		cancel()
	}

	d.wg.Wait()

	if err := d.lifecycle.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	d.closeMemory()
	d.shutdownTracing()

	logger.Info().Msg("agentq stopped")
	return nil
}

func (d *Daemon) closeMemory() {
	if d.memory == nil {
		return
	}
	if err := d.memory.Close(); err != nil {
		d.log.Error().Err(err).Msg("Failed to close memory log")
	}
}

func (d *Daemon) shutdownTracing() {
	if !d.tracingEnabled {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(shutdownCtx); err != nil {
		d.log.Error().Err(err).Msg("Failed to shutdown tracing")
	}
	if d.traceFile != nil {
		_ = d.traceFile.Close()
		d.traceFile = nil
	}
	d.tracingEnabled = false
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running:       d.running,
		Queue:         d.queue.Stats(),
		AgentsSpawned: d.supervisor.Spawned(),
		RegistrySize:  d.supervisor.Registry().Count(),
	}

	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
	}
	if d.scheduler != nil {
		status.Schedules = len(d.scheduler.Entries())
	}

	return status
}

// Wait blocks until SIGINT or SIGTERM arrives, or the worker exits, then stops the daemon
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		d.log.Info().Str("signal", sig.String()).Msg("Received signal")
	case <-d.queue.Done():
	}

	if err := d.Stop(); err != nil {
		d.log.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// GetQueue returns the task queue
func (d *Daemon) GetQueue() *commandqueue.Queue {
	return d.queue
}

// GetMemory returns the memory log
func (d *Daemon) GetMemory() *memory.Log {
	return d.memory
}

// GetSupervisor returns the supervisor
func (d *Daemon) GetSupervisor() *supervisor.Supervisor {
	return d.supervisor
}
