package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "agentq"

var (
	mu     sync.Mutex
	active *sdktrace.TracerProvider
)

// InitOpenTelemetry installs a global tracer provider that batches spans to
// the given exporters. A provider installed by an earlier call is replaced
// but not shut down; pair every Init with ShutdownOpenTelemetry.
func InitOpenTelemetry(serviceName string, exporters ...sdktrace.SpanExporter) error {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(serviceName)))
	if err != nil {
		return err
	}

	opts := make([]sdktrace.TracerProviderOption, 0, len(exporters)+2)
	opts = append(opts, sdktrace.WithResource(res), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	for _, exp := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	mu.Lock()
	active = tp
	mu.Unlock()
	otel.SetTracerProvider(tp)
	return nil
}

// ShutdownOpenTelemetry flushes pending spans and stops the installed provider.
// Without a provider it does nothing.
func ShutdownOpenTelemetry(ctx context.Context) error {
	mu.Lock()
	tp := active
	active = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartSpan opens a span on the named tracer. When ctx carries no trace id
// yet, the span's own trace id is recorded so loggers pick it up.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))

	if sc := span.SpanContext(); sc.IsValid() && GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, sc.TraceID().String())
	}
	return ctx, span
}

// RecordError marks span failed with err; nil is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
