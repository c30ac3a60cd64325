package session

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Call is a session executing under the manager.
type Call struct {
	ID string

	session *domain.Session
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// Done is closed when the session has ended.
func (c *Call) Done() <-chan struct{} { return c.done }

// Err returns the fault that ended the session; valid after Done is closed.
func (c *Call) Err() error {
	<-c.done
	return c.err
}

// Hangup cancels the call. The session ends as cancelled at its next suspension point.
func (c *Call) Hangup() { c.cancel() }

// Run executes the session synchronously under the manager: it is registered as
// a running call (so hangups and checkpoints reach it) until the engine returns.
func (m *Manager) Run(ctx context.Context, runner Runner, s *domain.Session, root domain.Flow) error {
	call, ctx, err := m.register(ctx, s)
	if err != nil {
		return err
	}
	m.execute(ctx, call, runner, root)
	return call.err
}

// Dial starts the session in the background and returns its call handle.
// The call outlives ctx's deadline but not its cancellation values; use Hangup to end it.
func (m *Manager) Dial(ctx context.Context, runner Runner, s *domain.Session, root domain.Flow) (*Call, error) {
	call, runCtx, err := m.register(context.WithoutCancel(ctx), s)
	if err != nil {
		return nil, err
	}
	go m.execute(runCtx, call, runner, root)
	return call, nil
}

// Call returns the running call for a session.
func (m *Manager) Call(sessionID string) (*Call, bool) {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	c, ok := m.calls[sessionID]
	return c, ok
}

// Hangup cancels a running call.
func (m *Manager) Hangup(sessionID string) error {
	c, ok := m.Call(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	c.Hangup()
	return nil
}

// Active returns the ids of the calls running in this process.
func (m *Manager) Active() []string {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	ids := make([]string, 0, len(m.calls))
	for id := range m.calls {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown hangs up every running call and waits for them to end or ctx to be done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.callsMu.Lock()
	calls := make([]*Call, 0, len(m.calls))
	for _, c := range m.calls {
		calls = append(calls, c)
	}
	m.callsMu.Unlock()

	for _, c := range calls {
		c.Hangup()
	}
	for _, c := range calls {
		select {
		case <-c.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Manager) register(ctx context.Context, s *domain.Session) (*Call, context.Context, error) {
	runCtx, cancel := context.WithCancel(ctx)
	call := &Call{ID: s.ID, session: s, cancel: cancel, done: make(chan struct{})}

	m.callsMu.Lock()
	if _, exists := m.calls[s.ID]; exists {
		m.callsMu.Unlock()
		cancel()
		return nil, nil, fmt.Errorf("%w: %s", ErrCallActive, s.ID)
	}
	m.calls[s.ID] = call
	m.callsMu.Unlock()

	if err := m.Save(ctx, s.Snapshot()); err != nil {
		m.unregister(call)
		cancel()
		close(call.done)
		return nil, nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return call, runCtx, nil
}

func (m *Manager) execute(ctx context.Context, call *Call, runner Runner, root domain.Flow) {
	defer close(call.done)
	defer call.cancel()
	defer m.unregister(call)

	call.err = runner.Run(ctx, call.session, root)
	if call.err != nil {
		m.logger.Warn("call faulted", "session_id", call.ID, "err", call.err)
	}
}

func (m *Manager) unregister(call *Call) {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	if m.calls[call.ID] == call {
		delete(m.calls, call.ID)
	}
}
