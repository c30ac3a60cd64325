package switchboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/ports/tests"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSwitchboard(t *testing.T, opts ...switchboard.Option) (*switchboard.Switchboard, *memory.Reservations) {
	t.Helper()
	flights, users := tests.Fixture()
	service := memory.NewReservations(flights, users)
	sb := switchboard.New(service, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sb.Shutdown(ctx)
	})
	return sb, service
}

func TestSwitchboard_RunPersistsFinalSnapshot(t *testing.T) {
	store := memory.NewStore()
	sb, service := newSwitchboard(t,
		switchboard.WithSessionStore(store),
		switchboard.WithCallHistory(true),
		switchboard.WithIDGenerator(func() string { return "call-1" }),
	)

	keys := []string{"3", "2", "5"}
	keypad := ports.RendererFunc(func(ctx context.Context, sessionID string, p domain.Prompt) (string, error) {
		if !p.ExpectsInput() {
			return "", nil
		}
		k := keys[0]
		keys = keys[1:]
		return k, nil
	})

	snap, err := sb.Run(context.Background(), keypad, "u-ada")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonCompleted, snap.Reason)

	stored, err := store.Load(context.Background(), "call-1")
	require.NoError(t, err)
	assert.True(t, stored.Terminated())
	assert.Equal(t, snap.History, stored.History)

	history := service.CallHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "call-1", history[0].SessionID)
	assert.NotNil(t, history[0].EndTime)
}

func TestSwitchboard_DialPressAndHangup(t *testing.T) {
	sb, service := newSwitchboard(t)
	ctx := context.Background()

	call, err := sb.Dial(ctx, "u-ada")
	require.NoError(t, err)
	assert.Equal(t, []string{call.ID}, sb.Active())

	line, ok := sb.Line(call.ID)
	require.True(t, ok)

	view, err := line.Wait(ctx, 0, call.Done())
	require.NoError(t, err)
	require.NotNil(t, view.Awaiting)
	assert.Equal(t, "Hello, Ada Lovelace.", view.Prompts[0].Text())

	// cancel all, confirm
	require.NoError(t, line.Press("3"))
	view, err = line.Wait(ctx, view.Cursor, call.Done())
	require.NoError(t, err)
	require.NoError(t, line.Press("1"))
	view, err = line.Wait(ctx, view.Cursor, call.Done())
	require.NoError(t, err)
	require.NotNil(t, view.Awaiting, "back in the main menu")

	require.NoError(t, sb.Hangup(ctx, call.ID))
	require.NoError(t, call.Err())

	snap, err := sb.Snapshot(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonCancelled, snap.Reason)
	assert.Contains(t, snap.History, "cancelAll/cancelOk")

	list, err := service.ListReservations(ctx, "u-ada")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Eventually(t, func() bool {
		return line.View(0).Closed
	}, time.Second, 10*time.Millisecond, "line is closed when the call ends")
	assert.ErrorIs(t, line.Press("1"), runner.ErrLineClosed)
	assert.ErrorIs(t, sb.Press(ctx, call.ID, "1"), runner.ErrLineClosed)
	assert.ErrorIs(t, sb.Press(ctx, "missing", "1"), domain.ErrSessionNotFound)

	view, err = sb.Await(ctx, call.ID, 0)
	require.NoError(t, err)
	assert.True(t, view.Closed)
}

func TestSwitchboard_LineRetention(t *testing.T) {
	sb, _ := newSwitchboard(t, switchboard.WithLineRetention(10*time.Millisecond))
	ctx := context.Background()

	call, err := sb.Dial(ctx, "u-nobody")
	require.NoError(t, err)
	<-call.Done()

	assert.Eventually(t, func() bool {
		_, ok := sb.Line(call.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)

	view, err := sb.Await(ctx, call.ID, 0)
	require.NoError(t, err)
	assert.True(t, view.Closed, "ended calls still answer from the store")
}

func TestSwitchboard_HangupUnknownCall(t *testing.T) {
	sb, _ := newSwitchboard(t)
	assert.ErrorIs(t, sb.Hangup(context.Background(), "missing"), domain.ErrSessionNotFound)
}

func TestSwitchboard_Watch(t *testing.T) {
	sb, _ := newSwitchboard(t, switchboard.WithIDGenerator(func() string { return "call-w" }))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := sb.Watch(ctx, "call-w")
	call, err := sb.Dial(ctx, "u-bob")
	require.NoError(t, err)

	seen := map[string]bool{}
	deadline := time.After(time.Second)
	for !seen["portal/mainMenu"] {
		select {
		case snap := <-updates:
			seen[snap.Current()] = true
		case <-deadline:
			t.Fatalf("no checkpoint for the main menu, saw %v", seen)
		}
	}
	require.NoError(t, sb.Hangup(ctx, call.ID))
}

func TestSwitchboard_InspectAndFlows(t *testing.T) {
	sb, _ := newSwitchboard(t)

	assert.Equal(t, []string{"cancelAll", "listActive", "portal", "search"}, sb.Flows())

	g, err := sb.Inspect(context.Background(), "portal", "u-ada")
	require.NoError(t, err)
	_, ok := g.Vertex("mainMenu")
	assert.True(t, ok)

	g, err = sb.Inspect(context.Background(), "listActive", "u-ada")
	require.NoError(t, err)
	_, ok = g.Vertex("reservationsCount")
	assert.True(t, ok)

	_, err = sb.Inspect(context.Background(), "nope", "u-ada")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestSwitchboard_LifecycleHooksCompose(t *testing.T) {
	var ended []domain.EndReason
	var entered int
	sb, _ := newSwitchboard(t,
		switchboard.WithLifecycleHooks(domain.LifecycleHooks{
			OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) { ended = append(ended, e.Reason) },
		}),
		switchboard.WithLifecycleHooks(domain.LifecycleHooks{
			OnStateEnter: func(ctx context.Context, e *domain.StateEvent) { entered++ },
		}),
	)

	hangup := ports.RendererFunc(func(ctx context.Context, sessionID string, p domain.Prompt) (string, error) {
		if p.ExpectsInput() {
			return "", errors.New("hangup")
		}
		return "", nil
	})
	snap, err := sb.Run(context.Background(), hangup, "u-bob")
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonCancelled, snap.Reason)
	assert.Equal(t, []domain.EndReason{domain.ReasonCancelled}, ended)
	assert.Equal(t, 2, entered, "dashboard and main menu")
}

// brokenStore rejects every checkpoint.
type brokenStore struct{ *memory.Store }

func (brokenStore) Save(context.Context, string, *domain.Snapshot) error {
	return errors.New("disk full")
}

func TestSwitchboard_AwaitRunningCall(t *testing.T) {
	sb, _ := newSwitchboard(t)
	ctx := context.Background()

	call, err := sb.Dial(ctx, "u-bob")
	require.NoError(t, err)

	view, err := sb.Await(ctx, call.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, view.Awaiting)
	assert.False(t, view.Closed)
	assert.Contains(t, view.Prompts[0].Text(), "Bob")

	require.NoError(t, sb.Press(ctx, call.ID, "5"))
	<-call.Done()
	view, err = sb.Await(ctx, call.ID, view.Cursor)
	require.NoError(t, err)
	assert.True(t, view.Closed)
}

func TestSwitchboard_DialFailureReleasesLine(t *testing.T) {
	sb, _ := newSwitchboard(t,
		switchboard.WithSessionStore(brokenStore{memory.NewStore()}),
		switchboard.WithIDGenerator(func() string { return "call-1" }),
	)

	_, err := sb.Dial(context.Background(), "u-ada")
	require.ErrorContains(t, err, "disk full")

	_, ok := sb.Line("call-1")
	assert.False(t, ok, "a call that never started leaves no line behind")
	assert.Empty(t, sb.Active())
}

func TestSwitchboard_DuplicateDialKeepsRunningLine(t *testing.T) {
	sb, _ := newSwitchboard(t, switchboard.WithIDGenerator(func() string { return "call-1" }))
	ctx := context.Background()

	call, err := sb.Dial(ctx, "u-ada")
	require.NoError(t, err)
	_, err = sb.Dial(ctx, "u-bob")
	require.Error(t, err)

	_, ok := sb.Line(call.ID)
	require.True(t, ok)
	view, err := sb.Await(ctx, call.ID, 0)
	require.NoError(t, err)
	assert.False(t, view.Closed)
	require.NoError(t, sb.Hangup(ctx, call.ID))
}
