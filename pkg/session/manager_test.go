package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data     map[string]*domain.Snapshot
	mu       sync.Mutex
	inFlight int
	overlap  bool
}

func (s *SlowStore) enter() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.mu.Unlock()
}

func (s *SlowStore) leave() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]*domain.Snapshot)
	}
	s.data[sessionID] = snap
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[sessionID]; ok {
		return snap, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(step int) {
			defer wg.Done()
			snap := domain.NewSession(id, "").Snapshot()
			snap.Steps = step
			assert.NoError(t, manager.Save(ctx, snap))
		}(i)
	}
	wg.Wait()

	assert.False(t, store.overlap, "store operations on one session must be serialized")
	_, err := manager.Load(ctx, id)
	assert.NoError(t, err)
}

func TestManager_DistributedLock(t *testing.T) {
	var (
		mu     sync.Mutex
		locked []string
		fail   error
	)
	locker := ports.LockerFunc(func(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
		if fail != nil {
			return nil, fail
		}
		mu.Lock()
		locked = append(locked, key)
		mu.Unlock()
		return func(ctx context.Context) error { return nil }, nil
	})
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, domain.NewSession("s1", "").Snapshot()))
	_, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"call:s1", "call:s1"}, locked)

	fail = errors.New("redis down")
	err = manager.Save(ctx, domain.NewSession("s2", "").Snapshot())
	assert.ErrorContains(t, err, "distributed lock")
}

// blockingEngine returns an engine whose prompts wait for the caller to hang up.
func blockingEngine(mgr *session.Manager, rendered chan<- string) *runtime.Engine {
	renderer := ports.RendererFunc(func(ctx context.Context, id string, p domain.Prompt) (string, error) {
		select {
		case rendered <- p.Text():
		default:
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
	return runtime.NewEngine(renderer, runtime.WithLifecycleHooks(mgr.Hooks()))
}

func greeting() domain.Flow {
	return domain.NewTemplate("greeting", func(g *domain.CallFlow) error {
		g.AddState(domain.NewState("hello", domain.Ask(domain.DigitsGrammar(1), domain.Text("Hello"))))
		return nil
	})
}

func TestManager_DialAndHangup(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	rendered := make(chan string, 1)
	engine := blockingEngine(mgr, rendered)
	ctx := context.Background()

	call, err := mgr.Dial(ctx, engine, domain.NewSession("call-1", "u-ada"), greeting())
	require.NoError(t, err)

	select {
	case text := <-rendered:
		assert.Equal(t, "Hello", text)
	case <-time.After(time.Second):
		t.Fatal("prompt was never rendered")
	}
	assert.Equal(t, []string{"call-1"}, mgr.Active())

	snap, err := mgr.Load(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "greeting/hello", snap.Current())

	_, err = mgr.Dial(ctx, engine, domain.NewSession("call-1", "u-ada"), greeting())
	assert.ErrorIs(t, err, session.ErrCallActive)

	require.NoError(t, mgr.Hangup("call-1"))
	select {
	case <-call.Done():
	case <-time.After(time.Second):
		t.Fatal("call did not end after hangup")
	}
	assert.NoError(t, call.Err())
	assert.Empty(t, mgr.Active())

	snap, err = mgr.Load(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTerminated, snap.Status)
	assert.Equal(t, domain.ReasonCancelled, snap.Reason)

	assert.ErrorIs(t, mgr.Hangup("call-1"), domain.ErrSessionNotFound)
}

func TestManager_RunRecordsFault(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	engine := runtime.NewEngine(ports.RendererFunc(func(ctx context.Context, id string, p domain.Prompt) (string, error) {
		return "9", nil
	}), runtime.WithLifecycleHooks(mgr.Hooks()))

	err := mgr.Run(context.Background(), engine, domain.NewSession("call-2", ""), domain.NewTemplate("menu", func(g *domain.CallFlow) error {
		done := domain.NewState("done", domain.Say(domain.Text("bye")))
		g.AddState(domain.NewState("menu", domain.Ask(domain.DigitsGrammar(1), domain.Text("press 1"))).AddChoice(1, done))
		g.AddState(done)
		return nil
	}))
	require.ErrorIs(t, err, domain.ErrNoMatchingTransition)

	snap, err := mgr.Load(context.Background(), "call-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFaulted, snap.Status)
	assert.Contains(t, snap.Error, "routing fault")
}

func TestManager_WatchReceivesCheckpoints(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := mgr.Watch(ctx, "call-3")
	engine := blockingEngine(mgr, make(chan string, 1))
	call, err := mgr.Dial(ctx, engine, domain.NewSession("call-3", ""), greeting())
	require.NoError(t, err)

	var seen []string
	deadline := time.After(time.Second)
	for len(seen) < 2 {
		select {
		case snap := <-updates:
			seen = append(seen, snap.Current())
		case <-deadline:
			t.Fatalf("only saw %v", seen)
		}
	}
	assert.Equal(t, []string{"", "greeting/hello"}, seen)

	call.Hangup()
	<-call.Done()
}

func TestManager_Shutdown(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	engine := blockingEngine(mgr, make(chan string, 2))
	ctx := context.Background()

	a, err := mgr.Dial(ctx, engine, domain.NewSession("a", ""), greeting())
	require.NoError(t, err)
	b, err := mgr.Dial(ctx, engine, domain.NewSession("b", ""), greeting())
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, mgr.Shutdown(shutdownCtx))

	for _, c := range []*session.Call{a, b} {
		select {
		case <-c.Done():
		default:
			t.Fatalf("call %s still running", c.ID)
		}
	}
}
