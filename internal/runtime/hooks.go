package runtime

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

func (e *Engine) base(t domain.EventType, s *domain.Session) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: s.ID}
}

func (e *Engine) emitStateEnter(ctx context.Context, s *domain.Session, flow, state string) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: e.base(domain.EventStateEnter, s),
		Flow:      flow,
		State:     state,
		Depth:     s.Depth(),
	})
}

func (e *Engine) emitStateLeave(ctx context.Context, s *domain.Session, flow, state, event string, result any, err error) {
	if e.hooks.OnStateLeave == nil {
		return
	}
	e.hooks.OnStateLeave(ctx, &domain.StateEvent{
		EventBase: e.base(domain.EventStateLeave, s),
		Flow:      flow,
		State:     state,
		Depth:     s.Depth(),
		Event:     event,
		Result:    result,
		Err:       err,
	})
}

func (e *Engine) emitFlowPush(ctx context.Context, s *domain.Session, flow, via string) {
	if e.hooks.OnFlowPush == nil {
		return
	}
	e.hooks.OnFlowPush(ctx, &domain.FlowEvent{
		EventBase: e.base(domain.EventFlowPush, s),
		Flow:      flow,
		Via:       via,
		Depth:     s.Depth(),
	})
}

func (e *Engine) emitFlowPop(ctx context.Context, s *domain.Session, flow, via, event string) {
	if e.hooks.OnFlowPop == nil {
		return
	}
	e.hooks.OnFlowPop(ctx, &domain.FlowEvent{
		EventBase: e.base(domain.EventFlowPop, s),
		Flow:      flow,
		Via:       via,
		Depth:     s.Depth(),
		Event:     event,
	})
}

func (e *Engine) emitSessionEnd(ctx context.Context, s *domain.Session) {
	if e.hooks.OnSessionEnd == nil {
		return
	}
	e.hooks.OnSessionEnd(ctx, &domain.SessionEvent{
		EventBase: e.base(domain.EventSessionEnd, s),
		Status:    s.Status,
		Reason:    s.Reason,
		Err:       s.Err,
		Steps:     s.Steps,
		Duration:  s.EndedAt.Sub(s.StartedAt),
		Snapshot:  s.Snapshot(),
	})
}
