package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harun/agentq/internal/observability"
	"github.com/harun/agentq/internal/tracing"
	"github.com/harun/agentq/pkg/agent"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Recorder persists one exchange and returns its record id
type Recorder interface {
	Save(ctx context.Context, agent, input, response string) (int64, error)
}

// Outcome is the result of delegating one task
type Outcome struct {
	AgentName string        `json:"agent_name"`
	Input     string        `json:"input"`
	Response  string        `json:"response"`
	RecordID  int64         `json:"record_id"`
	Duration  time.Duration `json:"duration"`
}

// Config holds supervisor configuration
type Config struct {
	SystemMessage string // defaults to agent.DefaultSystemMessage
	Capacity      int    // registry capacity, 0 = unbounded
	Executor      agent.CommandExecutor
	Replier       agent.Replier
	Memory        Recorder
	Logger        zerolog.Logger
}

// Supervisor spawns a fresh agent for every task
type Supervisor struct {
	systemMessage string
	registry      *Registry
	executor      agent.CommandExecutor
	replier       agent.Replier
	memory        Recorder
	logger        zerolog.Logger

	mu      sync.Mutex
	spawned int
}

// New creates a supervisor
func New(cfg Config) *Supervisor {
	observability.EnsureRegistered()

	systemMessage := cfg.SystemMessage
	if systemMessage == "" {
		systemMessage = agent.DefaultSystemMessage
	}

	return &Supervisor{
		systemMessage: systemMessage,
		registry:      NewRegistry(cfg.Capacity),
		executor:      cfg.Executor,
		replier:       cfg.Replier,
		memory:        cfg.Memory,
		logger:        cfg.Logger.With().Str("component", "supervisor").Logger(),
	}
}

// Registry returns the agent registry
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Spawned returns how many agents have been created
func (s *Supervisor) Spawned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawned
}

// Spawn creates and registers a new agent with the next free name
func (s *Supervisor) Spawn() (*agent.Agent, error) {
	s.mu.Lock()
	s.spawned++
	name := fmt.Sprintf("agent_%d", s.spawned)
	s.mu.Unlock()

	a := agent.New(name, s.systemMessage, agent.Deps{
		Executor: s.executor,
		Replier:  s.replier,
		Logger:   s.logger,
	})

	evicted, err := s.registry.Register(a)
	if err != nil {
		return nil, err
	}
	if len(evicted) > 0 {
		s.logger.Debug().Strs("evicted", evicted).Msg("Evicted agents from registry")
	}

	observability.RecordAgentSpawn(s.registry.Count())
	s.logger.Info().Str("agent", name).Msg("Agent created")
	return a, nil
}

// Delegate spawns an agent, lets it handle input and persists the exchange.
// When persisting fails the outcome still carries the response.
func (s *Supervisor) Delegate(ctx context.Context, input string) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "agentq.supervisor", "supervisor.delegate")
	defer span.End()

	start := time.Now()
	a, err := s.Spawn()
	if err != nil {
		tracing.RecordError(span, err)
		return Outcome{Input: input}, fmt.Errorf("failed to spawn agent: %w", err)
	}
	span.SetAttributes(attribute.String("agent", a.Name()))

	response := a.Handle(ctx, input)
	outcome := Outcome{
		AgentName: a.Name(),
		Input:     input,
		Response:  response,
		Duration:  time.Since(start),
	}

	if s.memory == nil {
		return outcome, nil
	}

	id, err := s.memory.Save(ctx, a.Name(), input, response)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.Error().Err(err).Str("agent", a.Name()).Msg("Failed to persist exchange")
		return outcome, fmt.Errorf("failed to persist exchange: %w", err)
	}
	outcome.RecordID = id
	span.SetAttributes(attribute.Int64("record_id", id))

	return outcome, nil
}
