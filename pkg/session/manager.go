package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// ErrCallActive is returned when dialing a session id that is already running.
var ErrCallActive = errors.New("call already active")

// Runner executes a session (implemented by the dialog engine).
type Runner interface {
	Run(ctx context.Context, s *domain.Session, root domain.Flow) error
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It owns the calls running in this process, checkpoints their snapshots and
// fans snapshot updates out to watchers.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	callsMu  sync.Mutex
	calls    map[string]*Call
	watchers map[string]map[chan *domain.Snapshot]struct{}

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		locks:    make(map[string]*lockEntry),
		calls:    make(map[string]*Call),
		watchers: make(map[string]map[chan *domain.Snapshot]struct{}),
		lockTTL:  30 * time.Second,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, ports.CallLockKey(sessionID), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Load retrieves the latest snapshot of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Save checkpoints a snapshot and notifies watchers.
func (m *Manager) Save(ctx context.Context, snap *domain.Snapshot) error {
	err := m.WithLock(ctx, snap.SessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, snap.SessionID, snap)
	})
	if err != nil {
		return err
	}
	m.broadcast(snap)
	return nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Hooks returns lifecycle hooks that checkpoint running calls on every state
// entry and when the session ends. Compose them into the engine's hooks.
func (m *Manager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			call, ok := m.Call(e.SessionID)
			if !ok {
				return
			}
			// Hooks run on the engine goroutine, the only writer of the session.
			m.checkpoint(ctx, call.session.Snapshot())
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			if e.Snapshot != nil {
				m.checkpoint(ctx, e.Snapshot)
			}
		},
	}
}

func (m *Manager) checkpoint(ctx context.Context, snap *domain.Snapshot) {
	if err := m.Save(context.WithoutCancel(ctx), snap); err != nil {
		m.logger.Warn("checkpoint failed", "session_id", snap.SessionID, "err", err)
	}
}

// Watch streams snapshots of a session as they are checkpointed, until ctx is done.
func (m *Manager) Watch(ctx context.Context, sessionID string) <-chan *domain.Snapshot {
	ch := make(chan *domain.Snapshot, 16)
	m.callsMu.Lock()
	set, ok := m.watchers[sessionID]
	if !ok {
		set = make(map[chan *domain.Snapshot]struct{})
		m.watchers[sessionID] = set
	}
	set[ch] = struct{}{}
	m.callsMu.Unlock()

	go func() {
		<-ctx.Done()
		m.callsMu.Lock()
		delete(m.watchers[sessionID], ch)
		if len(m.watchers[sessionID]) == 0 {
			delete(m.watchers, sessionID)
		}
		close(ch)
		m.callsMu.Unlock()
	}()
	return ch
}

func (m *Manager) broadcast(snap *domain.Snapshot) {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	for ch := range m.watchers[snap.SessionID] {
		select {
		case ch <- snap:
		default:
			m.logger.Debug("dropping snapshot for slow watcher", "session_id", snap.SessionID)
		}
	}
}
