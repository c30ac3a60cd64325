package observability

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports dialog engine activity to Prometheus.
type Metrics struct {
	sessionsStarted prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	sessionDuration prometheus.Histogram
	stateVisits     *prometheus.CounterVec
	stateFailures   *prometheus.CounterVec
	flowPushes      *prometheus.CounterVec

	mu      sync.Mutex
	running map[string]struct{}
}

// NewMetrics creates the collectors and registers them (a nil registerer uses the default one).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		running: make(map[string]struct{}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_sessions_ended_total",
			Help: "Total number of sessions ended, by reason",
		}, []string{"reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "switchboard_sessions_active",
			Help: "Number of sessions currently running",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "switchboard_session_duration_seconds",
			Help:    "Duration of finished sessions",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		stateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_state_visits_total",
			Help: "Total number of state entries",
		}, []string{"flow", "state"}),
		stateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_state_failures_total",
			Help: "Total number of failed entry actions",
		}, []string{"flow", "state"}),
		flowPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_flow_pushes_total",
			Help: "Total number of sub-flow entries",
		}, []string{"flow"}),
	}
	for _, c := range []prometheus.Collector{
		m.sessionsStarted, m.sessionsEnded, m.activeSessions, m.sessionDuration,
		m.stateVisits, m.stateFailures, m.flowPushes,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns the lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			m.stateVisits.WithLabelValues(e.Flow, e.State).Inc()
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			if e.Err != nil {
				m.stateFailures.WithLabelValues(e.Flow, e.State).Inc()
			}
		},
		OnFlowPush: func(ctx context.Context, e *domain.FlowEvent) {
			if e.Via == "" {
				m.mu.Lock()
				m.running[e.SessionID] = struct{}{}
				m.mu.Unlock()
				m.sessionsStarted.Inc()
				m.activeSessions.Inc()
				return
			}
			m.flowPushes.WithLabelValues(e.Flow).Inc()
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			m.sessionsEnded.WithLabelValues(string(e.Reason)).Inc()
			m.mu.Lock()
			_, started := m.running[e.SessionID]
			delete(m.running, e.SessionID)
			m.mu.Unlock()
			if started {
				m.activeSessions.Dec()
			}
			m.sessionDuration.Observe(e.Duration.Seconds())
		},
	}
}
