// Package scheduler submits configured tasks to the queue on cron schedules.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Schedule is one recurring task
type Schedule struct {
	Name string `json:"name" mapstructure:"name"`
	Spec string `json:"spec" mapstructure:"spec"` // 5-field cron expression or descriptor such as "@every 1h"
	Task string `json:"task" mapstructure:"task"`
}

// Entry describes a registered schedule
type Entry struct {
	Name string
	Spec string
	Task string
	Next time.Time
	Prev time.Time
}

// Submitter accepts tasks tagged with their source
type Submitter interface {
	SubmitFrom(source, input string) (commandqueue.Item, error)
}

// Scheduler runs schedules on a robfig/cron instance
type Scheduler struct {
	cron      *cron.Cron
	submitter Submitter
	logger    zerolog.Logger

	mu      sync.Mutex
	entries map[cron.EntryID]Schedule
	started bool
}

// New creates a scheduler that submits to submitter
func New(submitter Submitter, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cronLogger{logger: logger}))),
		submitter: submitter,
		logger:    logger,
		entries:   make(map[cron.EntryID]Schedule),
	}
}

// Validate checks a schedule without registering it
func Validate(s Schedule) error {
	if s.Name == "" {
		return errors.New("schedule name is required")
	}
	if s.Task == "" {
		return fmt.Errorf("schedule %q: task is required", s.Name)
	}
	if _, err := cron.ParseStandard(s.Spec); err != nil {
		return fmt.Errorf("schedule %q: invalid spec %q: %w", s.Name, s.Spec, err)
	}
	return nil
}

// Add registers a schedule
func (s *Scheduler) Add(schedule Schedule) error {
	if err := Validate(schedule); err != nil {
		return err
	}

	name, task := schedule.Name, schedule.Task
	id, err := s.cron.AddFunc(schedule.Spec, func() {
		item, err := s.submitter.SubmitFrom(commandqueue.SourceSchedule, task)
		if err != nil {
			s.logger.Warn().Err(err).Str("schedule", name).Msg("Scheduled task rejected")
			return
		}
		s.logger.Info().Str("schedule", name).Str("taskId", item.ID).Msg("Scheduled task submitted")
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", name, err)
	}

	s.mu.Lock()
	s.entries[id] = schedule
	s.mu.Unlock()

	s.logger.Info().Str("schedule", name).Str("spec", schedule.Spec).Msg("Schedule added")
	return nil
}

// Start begins firing schedules
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info().Int("schedules", len(s.entries)).Msg("Scheduler started")
}

// Stop stops firing and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Entries returns the registered schedules with their next fire times
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.cron.Entries() {
		sched, ok := s.entries[e.ID]
		if !ok {
			continue
		}
		out = append(out, Entry{
			Name: sched.Name,
			Spec: sched.Spec,
			Task: sched.Task,
			Next: e.Next,
			Prev: e.Prev,
		})
	}
	return out
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
