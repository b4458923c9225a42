package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
)

// TracingHandler is an slog.Handler that injects the active OpenTelemetry
// trace context into every log record, adapted from the teacher's
// pkg/observability/logger.go (trimmed: this tool has no env/app-mode
// dimensions to pre-attach, just a service name).
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner, pre-attaching the service name so it
// survives WithGroup.
func NewTracingHandler(inner slog.Handler, service string) *TracingHandler {
	return &TracingHandler{inner: inner.WithAttrs([]slog.Attr{slog.String(attrService, service)})}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace/span ID attributes from ctx's span, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a new TracingHandler with additional attributes.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a new TracingHandler with a group prefix.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
