package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harun/agentq/internal/observability"
	"github.com/harun/agentq/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Outcome messages returned by Executor.Execute
const (
	MsgNoOutput         = "Command executed successfully with no output."
	MsgPermissionDenied = "Permission denied. Try running the command with elevated privileges."
	MsgNotFound         = "Command not found. Ensure the command is typed correctly and try again."
	msgFailedFormat     = "An error occurred: %s"
	msgUnexpectedFormat = "An unexpected error occurred: %v"
)

// Class buckets a command result
type Class string

const (
	ClassSuccess          Class = "success"
	ClassPermissionDenied Class = "permission_denied"
	ClassNotFound         Class = "not_found"
	ClassFailed           Class = "failed"
	ClassUnexpected       Class = "unexpected"
)

// Runner runs a shell command
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// Executor runs commands and converts every result into an outcome string
type Executor struct {
	runner Runner
	logger zerolog.Logger
}

// NewExecutor creates an executor backed by a HostRunner
func NewExecutor(config Config, logger zerolog.Logger) *Executor {
	return NewExecutorWithRunner(NewHostRunner(config), logger)
}

// NewExecutorWithRunner creates an executor with a custom runner
func NewExecutorWithRunner(runner Runner, logger zerolog.Logger) *Executor {
	observability.EnsureRegistered()
	return &Executor{
		runner: runner,
		logger: logger.With().Str("component", "shell").Logger(),
	}
}

// Classify buckets a finished command. Matching is case-sensitive.
func Classify(result Result) Class {
	if result.Succeeded() {
		return ClassSuccess
	}
	output := result.TrimmedOutput()
	switch {
	case strings.Contains(output, "permission denied"):
		return ClassPermissionDenied
	case strings.Contains(output, "not found"):
		return ClassNotFound
	default:
		return ClassFailed
	}
}

// Execute runs the command and returns the outcome text.
func (e *Executor) Execute(ctx context.Context, command string) string {
	ctx, span := tracing.StartSpan(ctx, "agentq.shell", "shell.execute",
		attribute.String("command", command),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, e.logger)

	start := time.Now()
	result, err := e.runner.Run(ctx, command)
	if err != nil {
		tracing.RecordError(span, err)
		observability.RecordCommand(string(ClassUnexpected), time.Since(start))
		logger.Error().Err(err).Str("command", command).Msg("Unexpected error running command")
		return fmt.Sprintf(msgUnexpectedFormat, err)
	}

	class := Classify(result)
	observability.RecordCommand(string(class), result.Duration)
	span.SetAttributes(
		attribute.Int("exit_code", result.ExitCode),
		attribute.String("outcome", string(class)),
	)

	output := result.TrimmedOutput()
	if class != ClassSuccess {
		logger.Error().
			Str("command", command).
			Int("exit_code", result.ExitCode).
			Str("output", output).
			Msg("Command execution failed")
	} else {
		logger.Debug().
			Str("command", command).
			Dur("duration", result.Duration).
			Msg("Command executed")
	}

	switch class {
	case ClassSuccess:
		if output == "" {
			return MsgNoOutput
		}
		return output
	case ClassPermissionDenied:
		return MsgPermissionDenied
	case ClassNotFound:
		return MsgNotFound
	default:
		return fmt.Sprintf(msgFailedFormat, output)
	}
}
