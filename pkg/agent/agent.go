package agent

import (
	"context"

	"github.com/harun/agentq/internal/tracing"
	"github.com/harun/agentq/pkg/conversation"
	"github.com/rs/zerolog"
)

// DefaultSystemMessage is the system message given to every spawned agent
const DefaultSystemMessage = "You are a versatile agent capable of executing various tasks."

// CommandExecutor runs a shell command and always returns an outcome string
type CommandExecutor interface {
	Execute(ctx context.Context, command string) string
}

// Replier produces a remote reply for the agent's current task
type Replier interface {
	Complete(ctx context.Context, a *Agent) string
}

// Deps are the collaborators an agent delegates to
type Deps struct {
	Executor CommandExecutor
	Replier  Replier
	Logger   zerolog.Logger
}

// Agent holds one conversation and routes a single task
type Agent struct {
	name        string
	history     *conversation.History
	currentTask string
	executor    CommandExecutor
	replier     Replier
	logger      zerolog.Logger
}

// New creates an agent whose history is seeded with the system message
func New(name, systemMessage string, deps Deps) *Agent {
	return &Agent{
		name:     name,
		history:  conversation.New(systemMessage),
		executor: deps.Executor,
		replier:  deps.Replier,
		logger:   deps.Logger.With().Str("agent", name).Logger(),
	}
}

// Name returns the agent's unique name
func (a *Agent) Name() string {
	return a.name
}

// CurrentTask returns the last input passed to Handle
func (a *Agent) CurrentTask() string {
	return a.currentTask
}

// History returns the agent's conversation store
func (a *Agent) History() *conversation.History {
	return a.history
}

// SystemMessage returns the current system message
func (a *Agent) SystemMessage() string {
	return a.history.SystemMessage()
}

// UpdateSystemMessage replaces the system message in place
func (a *Agent) UpdateSystemMessage(text string) {
	a.history.ReplaceSystemMessage(text)
}

// Handle records input as the current task and delegates it to the shell or the replier.
func (a *Agent) Handle(ctx context.Context, input string) string {
	a.currentTask = input
	ctx = tracing.WithAgentID(ctx, a.name)
	logger := tracing.LoggerFromContext(ctx, a.logger)

	switch cmd := ParseCommand(input).(type) {
	case ShellCommand:
		logger.Debug().Str("command", cmd.Text).Msg("Routing task to shell")
		return a.executor.Execute(ctx, cmd.Text)
	default:
		logger.Debug().Msg("Routing task to remote reply")
		return a.replier.Complete(ctx, a)
	}
}
