package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Engine drives sessions through their call flows.
// It holds no per-session state, so one Engine serves any number of concurrent sessions.
type Engine struct {
	renderer       ports.Renderer
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	maxTransitions int
	now            func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxTransitions bounds the transitions a single session may take (0 disables the limit).
func WithMaxTransitions(n int) EngineOption {
	return func(e *Engine) {
		e.maxTransitions = n
	}
}

// NewEngine creates an engine rendering prompts through the given renderer.
func NewEngine(renderer ports.Renderer, opts ...EngineOption) *Engine {
	e := &Engine{
		renderer:       renderer,
		logger:         logging.NewNop(),
		maxTransitions: domain.DefaultMaxTransitions,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// outcome is what entering a vertex produced.
type outcome int

const (
	fired outcome = iota
	pushed
	cancelled
	overflowed
)

// Run executes root for the session until the flow stack empties, the session
// is cancelled, or a fault occurs. Completion and cancellation return nil; a
// fault is recorded on the session and returned.
func (e *Engine) Run(ctx context.Context, s *domain.Session, root domain.Flow) error {
	if !s.Active() {
		return fmt.Errorf("session %s is not active (status %s)", s.ID, s.Status)
	}
	if root == nil {
		return e.fault(ctx, s, &domain.ConstructionError{Err: errors.New("root flow is nil")})
	}
	log := e.logger.With("session_id", s.ID)

	graph, err := e.instantiate(ctx, s, root)
	if err != nil {
		if ctx.Err() != nil {
			return e.cancel(ctx, s)
		}
		return e.fault(ctx, s, err)
	}
	s.Push(&domain.Frame{Flow: root, Graph: graph, Current: graph.Entry()})
	e.emitFlowPush(ctx, s, graph.Name(), "")
	log.Debug("session started", "flow", graph.Name())

	for {
		if ctx.Err() != nil {
			return e.cancel(ctx, s)
		}

		frame := s.Top()
		event, result, out := e.enter(ctx, s, frame)
		switch out {
		case cancelled:
			return e.cancel(ctx, s)
		case overflowed:
			log.Error("session faulted", "error", result)
			return e.fault(ctx, s, result.(error))
		case pushed:
			continue
		}

		done, err := e.route(ctx, s, event, result)
		if err != nil {
			log.Error("session faulted", "error", err)
			return e.fault(ctx, s, err)
		}
		if done {
			log.Debug("session completed", "steps", s.Steps)
			e.finish(ctx, s, domain.ReasonCompleted, nil)
			return nil
		}
	}
}

// enter runs the active vertex of the frame: a state is entered, a sub-flow
// reference pushes its flow. It returns the fired event and captured result.
func (e *Engine) enter(ctx context.Context, s *domain.Session, frame *domain.Frame) (string, any, outcome) {
	switch v := frame.Current.(type) {
	case *domain.FlowRef:
		return e.push(ctx, s, frame, v)
	case *domain.State:
		return e.enterState(ctx, s, frame, v)
	default:
		panic(fmt.Sprintf("runtime: unsupported vertex %T", frame.Current))
	}
}

func (e *Engine) enterState(ctx context.Context, s *domain.Session, frame *domain.Frame, st *domain.State) (string, any, outcome) {
	flow := frame.Graph.Name()
	s.Visit(flow, st.ID())
	e.emitStateEnter(ctx, s, flow, st.ID())

	// Releases registered by the entry actions belong to this state.
	defer s.Release()

	var actionErr error
	for _, action := range st.EntryActions() {
		if err := safeAction(ctx, s, action); err != nil {
			actionErr = err
			break
		}
	}
	if ctx.Err() != nil {
		return "", nil, cancelled
	}
	if actionErr != nil {
		aerr := &domain.ActionError{Flow: flow, State: st.ID(), Err: actionErr}
		e.logger.Warn("entry action failed", "session_id", s.ID, "flow", flow, "state", st.ID(), "error", actionErr)
		e.emitStateLeave(ctx, s, flow, st.ID(), domain.EventFailed, aerr, aerr)
		return domain.EventFailed, aerr, fired
	}

	var result any
	if model := st.CreateModel(s); model != nil {
		input, err := e.renderer.Render(ctx, s.ID, *model)
		if err != nil || ctx.Err() != nil {
			e.logger.Debug("render interrupted", "session_id", s.ID, "state", st.ID(), "error", err)
			return "", nil, cancelled
		}
		result = input
		if v, ok := st.CaptureVar(); ok {
			v.Set(s, input)
		}
	}

	event := st.CompletionEvent()
	e.emitStateLeave(ctx, s, flow, st.ID(), event, result, nil)
	return event, result, fired
}

// push builds the referenced flow and makes it the active frame. A construction
// failure is fired as EventFailed on the reference itself.
//
// Nesting deeper than the transition budget is reported as overflowed: a flow
// whose entry embeds itself pushes without ever matching a transition.
func (e *Engine) push(ctx context.Context, s *domain.Session, frame *domain.Frame, ref *domain.FlowRef) (string, any, outcome) {
	if e.maxTransitions > 0 && s.Depth() >= e.maxTransitions {
		return "", fmt.Errorf("%w: flow nesting reached %d at %s", domain.ErrStepLimit, s.Depth(), ref.ID()), overflowed
	}
	graph, err := e.instantiate(ctx, s, ref.Target())
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, cancelled
		}
		e.logger.Warn("sub-flow construction failed", "session_id", s.ID, "ref", ref.ID(), "error", err)
		return domain.EventFailed, err, fired
	}
	frame.Pending = ref
	s.Push(&domain.Frame{Flow: ref.Target(), Graph: graph, Current: graph.Entry()})
	e.emitFlowPush(ctx, s, graph.Name(), ref.ID())
	return "", nil, pushed
}

// route resolves the event on the active vertex. Terminal vertices of nested
// flows pop the stack and resolve the same event on the parent's pending
// reference. It reports done when the top-level flow completed.
func (e *Engine) route(ctx context.Context, s *domain.Session, event string, result any) (bool, error) {
	for {
		frame := s.Top()
		v := frame.Current
		t, res := domain.ResolveTransition(v, event, result)
		switch res {
		case domain.Matched:
			s.Steps++
			if e.maxTransitions > 0 && s.Steps > e.maxTransitions {
				return false, fmt.Errorf("%w: %d transitions", domain.ErrStepLimit, e.maxTransitions)
			}
			frame.Current = t.Target
			return false, nil

		case domain.NoMatch:
			return false, &domain.RoutingFault{Flow: frame.Graph.Name(), State: v.ID(), Event: event, Cause: asError(result)}

		case domain.Terminal:
			if s.Depth() == 1 {
				if event == domain.EventFailed {
					return false, &domain.RoutingFault{Flow: frame.Graph.Name(), State: v.ID(), Event: event, Cause: asError(result)}
				}
				s.Pop()
				e.emitFlowPop(ctx, s, frame.Graph.Name(), "", event)
				return true, nil
			}
			s.Pop()
			parent := s.Top()
			ref := parent.Pending
			parent.Pending = nil
			if ref == nil || parent.Current != domain.Vertex(ref) {
				return false, fmt.Errorf("flow stack corrupted: %s returned without a pending reference", frame.Graph.Name())
			}
			e.emitFlowPop(ctx, s, frame.Graph.Name(), ref.ID(), event)
		}
	}
}

// instantiate returns the session's graph for the flow, building it when it was
// never built or when the flow asks to be refreshed on entry.
func (e *Engine) instantiate(ctx context.Context, s *domain.Session, f domain.Flow) (graph *domain.CallFlow, err error) {
	if f == nil {
		return nil, &domain.ConstructionError{Err: errors.New("flow reference has no target")}
	}
	name := f.Name()
	refresh := false
	if r, ok := f.(domain.Refresher); ok {
		refresh = r.RefreshOnEntry()
	}
	if !refresh {
		if g, ok := s.Instance(name); ok {
			return g, nil
		}
	} else {
		s.ResetVars(name)
	}

	defer func() {
		if r := recover(); r != nil {
			graph, err = nil, &domain.ConstructionError{Flow: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	g, err := f.Create(ctx, s)
	if err != nil {
		return nil, &domain.ConstructionError{Flow: name, Err: err}
	}
	if g == nil {
		return nil, &domain.ConstructionError{Flow: name, Err: domain.ErrEmptyFlow}
	}
	if err := g.Freeze(); err != nil {
		return nil, &domain.ConstructionError{Flow: name, Err: err}
	}
	s.SetInstance(name, g)
	return g, nil
}

func (e *Engine) cancel(ctx context.Context, s *domain.Session) error {
	s.Release()
	e.logger.Debug("session cancelled", "session_id", s.ID, "steps", s.Steps)
	e.finish(ctx, s, domain.ReasonCancelled, nil)
	return nil
}

func (e *Engine) fault(ctx context.Context, s *domain.Session, err error) error {
	s.Release()
	e.finish(ctx, s, domain.ReasonFaulted, err)
	return err
}

func (e *Engine) finish(ctx context.Context, s *domain.Session, reason domain.EndReason, err error) {
	s.End(reason, err)
	e.emitSessionEnd(context.WithoutCancel(ctx), s)
}

// safeAction runs an entry action, converting panics into errors.
func safeAction(ctx context.Context, s *domain.Session, action domain.EntryFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(ctx, s)
}

func asError(result any) error {
	if err, ok := result.(error); ok {
		return err
	}
	return nil
}
