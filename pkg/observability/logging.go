package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
)

// LoggingHooks logs the dialog lifecycle with structured attributes.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("state_enter", "session_id", e.SessionID, "flow", e.Flow, "state", e.State, "depth", e.Depth)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			if e.Err != nil {
				logger.Warn("state_failed", "session_id", e.SessionID, "flow", e.Flow, "state", e.State, "error", e.Err)
				return
			}
			logger.Debug("state_leave", "session_id", e.SessionID, "flow", e.Flow, "state", e.State, "event", e.Event)
		},
		OnFlowPush: func(ctx context.Context, e *domain.FlowEvent) {
			logger.Debug("flow_push", "session_id", e.SessionID, "flow", e.Flow, "via", e.Via, "depth", e.Depth)
		},
		OnFlowPop: func(ctx context.Context, e *domain.FlowEvent) {
			logger.Debug("flow_pop", "session_id", e.SessionID, "flow", e.Flow, "event", e.Event, "depth", e.Depth)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			attrs := []any{"session_id", e.SessionID, "reason", e.Reason, "steps", e.Steps, "duration", e.Duration}
			if e.Err != nil {
				logger.Error("session_end", append(attrs, "error", e.Err)...)
				return
			}
			logger.Info("session_end", attrs...)
		},
	}
}
