package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/adapters/file"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func nopLogger() *slog.Logger { return logging.NewNop() }

func defaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Log.Level = "error"
	cfg.Store.Backend = config.BackendMemory
	cfg.Reservations.SQLitePath = ""
	return cfg
}

func TestExecute_JSONCall(t *testing.T) {
	var out, transcript bytes.Buffer
	err := Execute(context.Background(), defaults(t), RunOptions{
		CallerID:   "1001",
		JSON:       true,
		Input:      strings.NewReader("\"5\"\n"),
		Output:     &out,
		Transcript: &transcript,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"type":"prompt"`)
	assert.Contains(t, transcript.String(), "portal: Hello, Ada Lovelace.")
	assert.Contains(t, transcript.String(), "caller: 5")
	assert.Contains(t, transcript.String(), "portal: Thank you for calling. Goodbye.")
}

func TestExecute_PlainHangupOnEOF(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), defaults(t), RunOptions{
		CallerID: "1002",
		Plain:    true,
		Input:    strings.NewReader(""),
		Output:   &out,
	})
	require.NoError(t, err, "hanging up is not a failure")

	assert.Contains(t, out.String(), "Hello, Alan Turing.")
	assert.Contains(t, out.String(), ">>> Caller hung up at 'portal/mainMenu'.")
}

func TestExecute_UnknownCaller(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), defaults(t), RunOptions{
		CallerID: "nobody",
		Plain:    true,
		Input:    strings.NewReader(""),
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "We could not identify your account. Goodbye.")
	assert.Contains(t, out.String(), ">>> Call completed")
}

func TestOpenBackends_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := defaults(t)
	b, err := OpenBackends(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Store{}, b.Store)
	assert.Nil(t, b.Locker)
	user, err := b.Service.FindUser(ctx, "1003")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", user.FullName())
	assert.NotEmpty(t, b.Options(cfg, nopLogger()))
}

func TestOpenBackends_File(t *testing.T) {
	ctx := context.Background()
	cfg := defaults(t)
	cfg.Store.Backend = config.BackendFile
	cfg.Store.Dir = t.TempDir()
	b, err := OpenBackends(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &file.Store{}, b.Store)
	require.NoError(t, b.Store.Save(ctx, "s1", &domain.Snapshot{SessionID: "s1"}))
	assert.FileExists(t, filepath.Join(cfg.Store.Dir, "s1.json"))
}

func TestOpenBackends_ProtectedStore(t *testing.T) {
	ctx := context.Background()
	cfg := defaults(t)
	cfg.Store.PIIKeys = []string{"(?i)phone"}
	cfg.Store.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	b, err := OpenBackends(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, reflect.TypeOf(&memory.Store{}), reflect.TypeOf(b.Store))
	snap := &domain.Snapshot{SessionID: "s1", Status: domain.StatusActive, Data: map[string]any{"phone": "555"}}
	require.NoError(t, b.Store.Save(ctx, "s1", snap))
	loaded, err := b.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Data["phone"])

	cfg.Store.PIIKeys = []string{"("}
	_, err = OpenBackends(ctx, cfg, nopLogger())
	assert.ErrorContains(t, err, "invalid PII pattern")
}

func TestOpenBackends_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := defaults(t)
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.RedisAddr = mr.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := OpenBackends(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &redis.Store{}, b.Store)
	assert.NotNil(t, b.Locker)

	require.NoError(t, b.Store.Save(ctx, "s1", &domain.Snapshot{SessionID: "s1", Status: domain.StatusActive}))
	ids, err := b.Store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- WatchFlights(ctx, b.Events, &out) }()
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Waiting") }, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publisher.Publish(ctx, ports.EventFlightChanged))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), ports.EventFlightChanged) }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestOpenBackends_RedisUnreachable(t *testing.T) {
	cfg := defaults(t)
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := OpenBackends(ctx, cfg, nopLogger())
	assert.ErrorContains(t, err, "error connecting to redis")
}

func TestOpenBackends_SQLiteSeeded(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flights.db")

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, Seed(ctx, db, 12, 7))
	require.NoError(t, db.Close())

	cfg := defaults(t)
	cfg.Reservations.SQLitePath = path
	b, err := OpenBackends(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer b.Close()

	reservations, err := b.Service.ListReservations(ctx, "1001")
	require.NoError(t, err)
	assert.NotEmpty(t, reservations)
}

func TestDemoData(t *testing.T) {
	flights, users := DemoData(20, 3)
	require.Len(t, flights, 20)
	require.Len(t, users, len(DemoUsers))

	for _, u := range users {
		booked := 0
		for _, f := range flights {
			if f.HasPassenger(u.ID) {
				booked++
			}
		}
		assert.Equal(t, 5, booked, "user %s", u.ID)
	}

	users[0].FirstName = "changed"
	assert.Equal(t, "Ada", DemoUsers[0].FirstName, "callers get copies")
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "b", &domain.Snapshot{SessionID: "b", Status: domain.StatusTerminated, Reason: domain.ReasonCompleted}))
	require.NoError(t, store.Save(ctx, "a", &domain.Snapshot{SessionID: "a", Status: domain.StatusActive}))

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, store, &out))
	assert.Equal(t, "Sessions:\n- a\n- b\n", out.String())

	out.Reset()
	require.NoError(t, InspectSession(ctx, store, "b", &out))
	assert.Contains(t, out.String(), `"reason": "completed"`)

	err := InspectSession(ctx, store, "missing", &out)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, store, []string{"a", "b"}, &out))
	assert.Contains(t, out.String(), "Removed session 'a'")

	out.Reset()
	require.NoError(t, ListSessions(ctx, store, &out))
	assert.Equal(t, "No sessions found.\n", out.String())
}
