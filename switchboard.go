package switchboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/portal"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/google/uuid"
)

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Switchboard answers calls with the voice portal.
// It wires the dialog engine, the portal flows, the session manager and the
// exchange used by asynchronous channels.
type Switchboard struct {
	portal   *portal.Portal
	manager  *session.Manager
	exchange *runner.Exchange
	engine   *runtime.Engine

	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	store          ports.SessionStore
	maxTransitions int
	portalOpts     []portal.Option
	sessionOpts    []session.Option
	newID          func() string
	retention      time.Duration
}

// Option configures the Switchboard.
type Option func(*Switchboard)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(sb *Switchboard) {
		if logger != nil {
			sb.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks. Hooks compose, so the
// option can be given more than once.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(sb *Switchboard) {
		sb.hooks = domain.ComposeHooks(sb.hooks, hooks)
	}
}

// WithSessionStore persists session snapshots (default: in memory).
func WithSessionStore(store ports.SessionStore) Option {
	return func(sb *Switchboard) {
		sb.store = store
	}
}

// WithLocker serializes session access across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(sb *Switchboard) {
		sb.sessionOpts = append(sb.sessionOpts, session.WithLocker(locker))
	}
}

// WithPublisher broadcasts flight changes made during calls.
func WithPublisher(pub ports.Publisher) Option {
	return func(sb *Switchboard) {
		sb.portalOpts = append(sb.portalOpts, portal.WithPublisher(pub))
	}
}

// WithCallHistory records a call history item for every identified caller.
func WithCallHistory(enabled bool) Option {
	return func(sb *Switchboard) {
		sb.portalOpts = append(sb.portalOpts, portal.WithCallHistory(enabled))
	}
}

// WithPortalOptions passes options through to the portal flows.
func WithPortalOptions(opts ...portal.Option) Option {
	return func(sb *Switchboard) {
		sb.portalOpts = append(sb.portalOpts, opts...)
	}
}

// WithMaxTransitions bounds the transitions of a single call.
func WithMaxTransitions(n int) Option {
	return func(sb *Switchboard) {
		sb.maxTransitions = n
	}
}

// WithIDGenerator overrides how session ids are minted (default: random UUIDs).
func WithIDGenerator(fn func() string) Option {
	return func(sb *Switchboard) {
		if fn != nil {
			sb.newID = fn
		}
	}
}

// WithLineRetention keeps the line of an ended call readable for d (default one minute).
func WithLineRetention(d time.Duration) Option {
	return func(sb *Switchboard) {
		sb.retention = d
	}
}

// New creates a switchboard serving the portal on top of a reservation service.
func New(service ports.ReservationService, opts ...Option) *Switchboard {
	sb := &Switchboard{
		logger:         logging.NewNop(),
		maxTransitions: domain.DefaultMaxTransitions,
		newID:          uuid.NewString,
		retention:      time.Minute,
	}
	for _, opt := range opts {
		opt(sb)
	}
	if sb.store == nil {
		sb.store = memory.NewStore()
	}

	sb.portal = portal.New(service, append([]portal.Option{portal.WithLogger(sb.logger)}, sb.portalOpts...)...)
	sb.manager = session.NewManager(sb.store, append([]session.Option{session.WithLogger(sb.logger)}, sb.sessionOpts...)...)
	sb.exchange = runner.NewExchange()
	sb.engine = sb.newEngine(sb.exchange)
	return sb
}

func (sb *Switchboard) newEngine(r ports.Renderer) *runtime.Engine {
	hooks := domain.ComposeHooks(sb.manager.Hooks(), sb.portal.Hooks(), sb.hooks)
	return runtime.NewEngine(r,
		runtime.WithLogger(sb.logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithMaxTransitions(sb.maxTransitions),
	)
}

// Portal returns the flow definitions.
func (sb *Switchboard) Portal() *portal.Portal { return sb.portal }

// Manager returns the session manager.
func (sb *Switchboard) Manager() *session.Manager { return sb.manager }

// Run answers a call synchronously, rendering prompts through r until the
// call completes, the caller hangs up or ctx is cancelled. It returns the
// final snapshot and the fault that ended the call, if any.
func (sb *Switchboard) Run(ctx context.Context, r ports.Renderer, callerID string) (*domain.Snapshot, error) {
	s := domain.NewSession(sb.newID(), callerID)
	err := sb.manager.Run(ctx, sb.newEngine(r), s, sb.portal.Root())
	if errors.Is(err, session.ErrCallActive) {
		return nil, err
	}
	return s.Snapshot(), err
}

// Dial answers a call in the background. Prompts are queued on the call's
// Line, where keypad input is delivered with Press.
func (sb *Switchboard) Dial(ctx context.Context, callerID string) (*session.Call, error) {
	id := sb.newID()
	sb.exchange.Open(id)

	call, err := sb.manager.Dial(ctx, sb.engine, domain.NewSession(id, callerID), sb.portal.Root())
	if err != nil {
		// A duplicate id belongs to a running call that keeps its line.
		if !errors.Is(err, session.ErrCallActive) {
			sb.exchange.Remove(id)
		}
		return nil, err
	}
	go func() {
		<-call.Done()
		sb.exchange.Close(id)
		time.AfterFunc(sb.retention, func() { sb.exchange.Remove(id) })
	}()
	sb.logger.Info("call dialed", "session_id", id, "caller_id", callerID)
	return call, nil
}

// Line returns the line of a dialed call, kept after the call ends for the retention period.
func (sb *Switchboard) Line(sessionID string) (*runner.Line, bool) {
	return sb.exchange.Line(sessionID)
}

// Call returns a running call.
func (sb *Switchboard) Call(sessionID string) (*session.Call, bool) {
	return sb.manager.Call(sessionID)
}

// Press delivers keypad input to a dialed call. Calls that already ended
// report runner.ErrLineClosed; unknown sessions domain.ErrSessionNotFound.
func (sb *Switchboard) Press(ctx context.Context, sessionID, digits string) error {
	line, ok := sb.exchange.Line(sessionID)
	if !ok {
		if _, err := sb.manager.Load(ctx, sessionID); err != nil {
			return err
		}
		return runner.ErrLineClosed
	}
	return line.Press(digits)
}

// Await blocks until a dialed call waits for input or ends, and returns the
// prompts played after cursor. Once the view reports Closed the final
// snapshot is stored.
func (sb *Switchboard) Await(ctx context.Context, sessionID string, cursor int) (runner.View, error) {
	line, ok := sb.exchange.Line(sessionID)
	if !ok {
		if _, err := sb.manager.Load(ctx, sessionID); err != nil {
			return runner.View{}, err
		}
		return runner.View{Cursor: cursor, Closed: true}, nil
	}
	var done <-chan struct{} = closedChan
	if call, running := sb.manager.Call(sessionID); running {
		done = call.Done()
	}
	return line.Wait(ctx, cursor, done)
}

// View returns the prompts played after cursor without waiting.
func (sb *Switchboard) View(sessionID string, cursor int) (runner.View, bool) {
	line, ok := sb.exchange.Line(sessionID)
	if !ok {
		return runner.View{}, false
	}
	return line.View(cursor), true
}

// Hangup ends a running call and waits until its session has stopped or ctx is done.
func (sb *Switchboard) Hangup(ctx context.Context, sessionID string) error {
	call, ok := sb.manager.Call(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	call.Hangup()
	select {
	case <-call.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the last checkpoint of a session.
func (sb *Switchboard) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return sb.manager.Load(ctx, sessionID)
}

// Watch streams the checkpoints of a session until ctx is done.
func (sb *Switchboard) Watch(ctx context.Context, sessionID string) <-chan *domain.Snapshot {
	return sb.manager.Watch(ctx, sessionID)
}

// Active returns the ids of the running calls, sorted.
func (sb *Switchboard) Active() []string {
	ids := sb.manager.Active()
	slices.Sort(ids)
	return ids
}

// Flows returns the names of the portal flows, sorted.
func (sb *Switchboard) Flows() []string {
	return slices.Sorted(maps.Keys(sb.portal.Flows()))
}

// Inspect builds a portal flow as it would be built for callerID, without
// running it. Data-driven flows fetch their data from the reservation service.
func (sb *Switchboard) Inspect(ctx context.Context, name, callerID string) (*domain.CallFlow, error) {
	f, ok := sb.portal.Flows()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, name)
	}
	g, err := f.Create(ctx, domain.NewSession("inspect", callerID))
	if err != nil {
		return nil, &domain.ConstructionError{Flow: name, Err: err}
	}
	if err := g.Freeze(); err != nil {
		return nil, &domain.ConstructionError{Flow: name, Err: err}
	}
	return g, nil
}

// Shutdown hangs up every running call and waits for them to end.
func (sb *Switchboard) Shutdown(ctx context.Context) error {
	return sb.manager.Shutdown(ctx)
}
