package tracing

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// LoggerFromContext returns base with the task's ids and the active span id attached.
// Absent ids are omitted.
func LoggerFromContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return base
	}

	ids := IDsFromContext(ctx)
	lc := base.With()
	if ids.TraceID != "" {
		lc = lc.Str("trace_id", ids.TraceID)
	}
	if ids.TaskID != "" {
		lc = lc.Str("task_id", ids.TaskID)
	}
	if ids.Agent != "" {
		lc = lc.Str("agent", ids.Agent)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		lc = lc.Str("span_id", sc.SpanID().String())
	}
	return lc.Logger()
}
