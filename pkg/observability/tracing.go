package observability

import (
	"context"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the spans.
const TracerName = "github.com/aretw0/switchboard"

// Tracing records one span per session with a child span per entered state.
// Hooks do not carry the engine context forward, so spans are tracked by session id.
type Tracing struct {
	tracer trace.Tracer

	mu    sync.Mutex
	calls map[string]*callSpans
}

type callSpans struct {
	ctx   context.Context
	root  trace.Span
	state trace.Span
}

// NewTracing creates tracing hooks. A nil provider uses the global one.
func NewTracing(tp trace.TracerProvider) *Tracing {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: tp.Tracer(TracerName),
		calls:  make(map[string]*callSpans),
	}
}

// Hooks returns the lifecycle hooks creating the spans.
func (t *Tracing) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFlowPush: func(ctx context.Context, e *domain.FlowEvent) {
			if e.Via != "" {
				t.addEvent(e.SessionID, "flow.push", attribute.String("flow.name", e.Flow), attribute.String("flow.via", e.Via))
				return
			}
			spanCtx, span := t.tracer.Start(ctx, "switchboard.session",
				trace.WithAttributes(
					attribute.String("session.id", e.SessionID),
					attribute.String("flow.name", e.Flow),
				),
				trace.WithSpanKind(trace.SpanKindServer),
			)
			t.mu.Lock()
			t.calls[e.SessionID] = &callSpans{ctx: spanCtx, root: span}
			t.mu.Unlock()
		},
		OnFlowPop: func(ctx context.Context, e *domain.FlowEvent) {
			if e.Via == "" {
				return
			}
			t.addEvent(e.SessionID, "flow.pop", attribute.String("flow.name", e.Flow), attribute.String("event", e.Event))
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			c, ok := t.calls[e.SessionID]
			if !ok {
				return
			}
			endSpan(c.state, nil)
			_, c.state = t.tracer.Start(c.ctx, "switchboard.state."+e.State,
				trace.WithAttributes(
					attribute.String("flow.name", e.Flow),
					attribute.String("state.id", e.State),
					attribute.Int("flow.depth", e.Depth),
				),
			)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			c, ok := t.calls[e.SessionID]
			if !ok || c.state == nil {
				return
			}
			c.state.SetAttributes(attribute.String("event", e.Event))
			endSpan(c.state, e.Err)
			c.state = nil
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			t.mu.Lock()
			c, ok := t.calls[e.SessionID]
			delete(t.calls, e.SessionID)
			t.mu.Unlock()
			if !ok {
				return
			}
			endSpan(c.state, nil)
			c.root.SetAttributes(
				attribute.String("session.reason", string(e.Reason)),
				attribute.Int("session.steps", e.Steps),
			)
			endSpan(c.root, e.Err)
		},
	}
}

func (t *Tracing) addEvent(sessionID, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.calls[sessionID]; ok {
		c.root.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// endSpan completes a span, optionally recording an error.
func endSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
