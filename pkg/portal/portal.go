package portal

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Session data keys written by the portal.
const (
	// KeyUser holds the identified caller as a map with id, firstName and lastName.
	KeyUser = "user"
	// KeyCallHistory holds the id of the call history item opened for the call.
	KeyCallHistory = "callHistoryItem"
)

// DefaultPageSize bounds the number of search results read to the caller.
const DefaultPageSize = 5

// Portal builds the voice portal call flows on top of a reservation service.
// The flows are definitions shared by every session; per-call data lives in the session.
type Portal struct {
	service  ports.ReservationService
	pub      ports.Publisher
	notifier *ports.Notifier
	logger   *slog.Logger
	history  bool
	pageSize int
	now      func() time.Time

	root       *domain.Template
	listActive domain.Flow
	cancelAll  domain.Flow
	search     *domain.Template
}

// Option configures the Portal.
type Option func(*Portal)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Portal) {
		p.logger = logger
	}
}

// WithPublisher broadcasts flight changes after reservations are made or cancelled.
func WithPublisher(pub ports.Publisher) Option {
	return func(p *Portal) {
		p.pub = pub
	}
}

// WithCallHistory records a call history item for every identified call.
func WithCallHistory(enabled bool) Option {
	return func(p *Portal) {
		p.history = enabled
	}
}

// WithPageSize sets how many search results are read to the caller.
func WithPageSize(n int) Option {
	return func(p *Portal) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Portal) {
		p.now = now
	}
}

// New creates the portal flows.
func New(service ports.ReservationService, opts ...Option) *Portal {
	p := &Portal{
		service:  service,
		logger:   logging.NewNop(),
		pageSize: DefaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.notifier = ports.FireAndForget(p.pub, p.logger)
	p.listActive = p.newListActive()
	p.cancelAll = p.newCancelAll()
	p.search = p.newSearch()
	p.root = p.newDashboard()
	return p
}

// Root is the top-level flow every call starts in.
func (p *Portal) Root() domain.Flow { return p.root }

// ListActive reads the caller's upcoming reservations.
func (p *Portal) ListActive() domain.Flow { return p.listActive }

// CancelAllReservations cancels every reservation of the caller after confirmation.
func (p *Portal) CancelAllReservations() domain.Flow { return p.cancelAll }

// Search collects filter criteria and offers matching flights for booking.
func (p *Portal) Search() domain.Flow { return p.search }

// Flows returns the flow definitions by name, for tooling (graph, validate).
func (p *Portal) Flows() map[string]domain.Flow {
	return map[string]domain.Flow{
		p.root.Name():       p.root,
		p.listActive.Name(): p.listActive,
		p.cancelAll.Name():  p.cancelAll,
		p.search.Name():     p.search,
	}
}

// Hooks closes the call history item of a call when its session ends.
func (p *Portal) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			if e.Snapshot == nil {
				return
			}
			id, _ := e.Snapshot.Data[KeyCallHistory].(string)
			if id == "" {
				return
			}
			if err := p.service.FinishCallHistoryItem(ctx, id, p.now()); err != nil {
				p.logger.Warn("failed to finish call history item", "session_id", e.SessionID, "item_id", id, "error", err)
			}
		},
	}
}
