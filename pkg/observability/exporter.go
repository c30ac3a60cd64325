package observability

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanLogger is an sdktrace.SpanExporter writing finished spans to a
// structured logger, for deployments without a collector.
type SpanLogger struct {
	logger *slog.Logger
}

// NewSpanLogger creates an exporter logging at info level.
func NewSpanLogger(logger *slog.Logger) *SpanLogger {
	return &SpanLogger{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *SpanLogger) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []slog.Attr{
			slog.String("trace_id", s.SpanContext().TraceID().String()),
			slog.String("span_id", s.SpanContext().SpanID().String()),
			slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
			slog.String("status", s.Status().Code.String()),
		}
		if s.Parent().IsValid() {
			attrs = append(attrs, slog.String("parent_id", s.Parent().SpanID().String()))
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "span "+s.Name(), attrs...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *SpanLogger) Shutdown(ctx context.Context) error { return nil }

// NewTracerProvider returns an SDK provider batching spans to logger.
// Callers own its Shutdown.
func NewTracerProvider(logger *slog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(NewSpanLogger(logger)))
}
