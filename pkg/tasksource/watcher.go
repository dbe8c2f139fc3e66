package tasksource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/rs/zerolog"
)

// ProcessedDir is the inbox subdirectory that consumed files are moved to
const ProcessedDir = "processed"

// Submitter accepts tasks tagged with their source
type Submitter interface {
	SubmitFrom(source, input string) (commandqueue.Item, error)
}

// WatcherConfig holds configuration for the inbox watcher
type WatcherConfig struct {
	Dir                string
	Submitter          Submitter
	StabilityThreshold time.Duration
	Logger             zerolog.Logger
}

// Watcher submits the lines of task files dropped into an inbox directory
type Watcher struct {
	watcher            *fsnotify.Watcher
	dir                string
	submitter          Submitter
	stabilityThreshold time.Duration
	logger             zerolog.Logger

	done           chan struct{}
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex
	processMu      sync.Mutex
	wg             sync.WaitGroup
	stopOnce       sync.Once
}

// NewWatcher creates the inbox and processed directories and an fsnotify watcher
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("inbox directory is required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if cfg.StabilityThreshold == 0 {
		cfg.StabilityThreshold = 200 * time.Millisecond
	}

	if err := os.MkdirAll(filepath.Join(cfg.Dir, ProcessedDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher:            watcher,
		dir:                cfg.Dir,
		submitter:          cfg.Submitter,
		stabilityThreshold: cfg.StabilityThreshold,
		logger:             cfg.Logger.With().Str("component", "inbox").Logger(),
		done:               make(chan struct{}),
		debounceTimers:     make(map[string]*time.Timer),
	}, nil
}

// Start watches the inbox and consumes any task files already present
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch inbox: %w", err)
	}

	w.wg.Add(1)
	go w.eventLoop()

	existing, err := filepath.Glob(filepath.Join(w.dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("failed to list inbox: %w", err)
	}
	sort.Strings(existing)
	for _, path := range existing {
		w.processFile(path)
	}

	w.logger.Info().Str("path", w.dir).Msg("Inbox watcher started")
	return nil
}

// Stop stops the watcher and waits for in-flight files
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.debounceMu.Lock()
		for _, timer := range w.debounceTimers {
			if timer.Stop() {
				w.wg.Done()
			}
		}
		clear(w.debounceTimers)
		w.debounceMu.Unlock()

		if cerr := w.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
		w.wg.Wait()
		w.logger.Info().Msg("Inbox watcher stopped")
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isTaskFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.debounce(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

// debounce waits for writes to a file to settle before consuming it
func (w *Watcher) debounce(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if timer, exists := w.debounceTimers[path]; exists && timer.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.stabilityThreshold, func() {
		defer w.wg.Done()

		w.debounceMu.Lock()
		if w.debounceTimers[path] == timer {
			delete(w.debounceTimers, path)
		}
		w.debounceMu.Unlock()

		select {
		case <-w.done:
			return
		default:
			w.processFile(path)
		}
	})
	w.debounceTimers[path] = timer
}

// processFile submits each line of path and moves it into processed/
func (w *Watcher) processFile(path string) {
	w.processMu.Lock()
	defer w.processMu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return
	}

	tasks, err := LoadFile(path)
	if err != nil {
		w.logger.Error().Err(err).Str("file", path).Msg("Failed to load task file")
		return
	}

	submitted := 0
	for _, task := range tasks {
		if _, err := w.submitter.SubmitFrom(commandqueue.SourceInbox, task); err != nil {
			w.logger.Warn().Err(err).Str("file", path).Msg("Task rejected")
			break
		}
		submitted++
	}

	target := filepath.Join(w.dir, ProcessedDir,
		fmt.Sprintf("%s_%s", time.Now().Format("20060102-150405"), filepath.Base(path)))
	if err := os.Rename(path, target); err != nil {
		w.logger.Error().Err(err).Str("file", path).Msg("Failed to move task file")
		return
	}

	w.logger.Info().
		Str("file", filepath.Base(path)).
		Int("tasks", submitted).
		Msg("Task file consumed")
}

func isTaskFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".txt")
}
