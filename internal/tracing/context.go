package tracing

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	traceIDKey contextKey = iota
	taskIDKey
	agentKey
)

// IDs are the correlation ids carried by a task's context
type IDs struct {
	TraceID string
	TaskID  string
	Agent   string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithTaskID tags the context with the queue item id
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// WithAgentID tags the context with the name of the agent handling the task
func WithAgentID(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentKey, agent)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// GetTraceID returns the trace ID, or "" when unset
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, traceIDKey)
}

// GetTaskID returns the task ID, or "" when unset
func GetTaskID(ctx context.Context) string {
	return stringValue(ctx, taskIDKey)
}

// GetAgentID returns the agent name, or "" when unset
func GetAgentID(ctx context.Context) string {
	return stringValue(ctx, agentKey)
}

// IDsFromContext collects every id set on ctx
func IDsFromContext(ctx context.Context) IDs {
	return IDs{
		TraceID: GetTraceID(ctx),
		TaskID:  GetTaskID(ctx),
		Agent:   GetAgentID(ctx),
	}
}
