package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var silent = ports.RendererFunc(func(ctx context.Context, sessionID string, p domain.Prompt) (string, error) {
	return "", nil
})

// greeting says hello and goodbye through a one-state sub-flow.
func greeting() domain.Flow {
	sub := domain.NewTemplate("farewell", func(g *domain.CallFlow) error {
		g.AddState(domain.NewState("bye", domain.Say(domain.Text("Goodbye."))))
		return nil
	})
	return domain.NewTemplate("greeting", func(g *domain.CallFlow) error {
		hello := domain.NewState("hello", domain.Say(domain.Text("Hello.")))
		done := domain.NewState("done", nil)
		ref := g.Embed("farewell", sub).Then(done)
		hello.Then(ref)
		g.AddStates(hello, done)
		return g.SetEntry(hello).Freeze()
	})
}

func failing() domain.Flow {
	return domain.NewTemplate("broken", func(g *domain.CallFlow) error {
		g.AddState(domain.NewState("load", nil).AddOnEntryAction(func(ctx context.Context, s *domain.Session) error {
			return errors.New("backend down")
		}))
		return nil
	})
}

func TestMetrics_CountSessionsAndStates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	engine := runtime.NewEngine(silent, runtime.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, engine.Run(context.Background(), domain.NewSession("c1", "u1"), greeting()))
	require.Error(t, engine.Run(context.Background(), domain.NewSession("c2", "u1"), failing()))

	expected := `
# HELP switchboard_sessions_ended_total Total number of sessions ended, by reason
# TYPE switchboard_sessions_ended_total counter
switchboard_sessions_ended_total{reason="completed"} 1
switchboard_sessions_ended_total{reason="faulted"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "switchboard_sessions_ended_total"))
}

func TestMetrics_Values(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	engine := runtime.NewEngine(silent, runtime.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, engine.Run(context.Background(), domain.NewSession("c1", "u1"), greeting()))
	require.Error(t, engine.Run(context.Background(), domain.NewSession("c2", "u1"), failing()))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["switchboard_sessions_started_total"])
	assert.Equal(t, 0.0, values["switchboard_sessions_active"])
	assert.Equal(t, 1.0, values["switchboard_flow_pushes_total"])
	assert.Equal(t, 1.0, values["switchboard_state_failures_total"])
	assert.Equal(t, 4.0, values["switchboard_state_visits_total"], "hello, bye, done and load")
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.NoError(t, err)
}

func TestTracing_SessionAndStateSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracing := observability.NewTracing(tp)
	engine := runtime.NewEngine(silent, runtime.WithLifecycleHooks(tracing.Hooks()))
	require.NoError(t, engine.Run(context.Background(), domain.NewSession("c1", "u1"), greeting()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 4)

	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"switchboard.state.hello",
		"switchboard.state.bye",
		"switchboard.state.done",
		"switchboard.session",
	}, names)

	root := spans[3]
	for _, s := range spans[:3] {
		assert.Equal(t, root.SpanContext.SpanID(), s.Parent.SpanID())
	}
	assert.Equal(t, codes.Ok, root.Status.Code)

	events := make([]string, 0, len(root.Events))
	for _, ev := range root.Events {
		events = append(events, ev.Name)
	}
	assert.Equal(t, []string{"flow.push", "flow.pop"}, events)
}

func TestTracing_FaultMarksSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := runtime.NewEngine(silent, runtime.WithLifecycleHooks(observability.NewTracing(tp).Hooks()))
	require.Error(t, engine.Run(context.Background(), domain.NewSession("c1", "u1"), failing()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "switchboard.session", spans[1].Name)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	engine := runtime.NewEngine(silent, runtime.WithLifecycleHooks(observability.LoggingHooks(logger)))
	require.NoError(t, engine.Run(context.Background(), domain.NewSession("c1", "u1"), greeting()))

	out := buf.String()
	assert.Contains(t, out, `"msg":"state_enter"`)
	assert.Contains(t, out, `"msg":"flow_push"`)
	assert.Contains(t, out, `"msg":"session_end"`)
	assert.Contains(t, out, `"reason":"completed"`)
}

func TestSpanLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	tp := observability.NewTracerProvider(logger)

	engine := runtime.NewEngine(silent, runtime.WithLifecycleHooks(observability.NewTracing(tp).Hooks()))
	require.NoError(t, engine.Run(context.Background(), domain.NewSession("c1", "u1"), greeting()))
	require.NoError(t, tp.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"msg":"span switchboard.session"`)
	assert.Contains(t, out, `"msg":"span switchboard.state.hello"`)
	assert.Contains(t, out, `"session.id":"c1"`)
	assert.Contains(t, out, `"parent_id"`)
}
