package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/switchboard/pkg/reservation"
	"github.com/google/uuid"
)

// Reservations implements ports.ReservationService in memory.
// Safe for concurrent use; every returned flight is a copy.
type Reservations struct {
	mu      sync.RWMutex
	flights map[string]*reservation.Flight
	order   []string
	users   map[string]*reservation.User
	history map[string]*reservation.CallHistoryItem
	now     func() time.Time
}

// NewReservations creates a service seeded with the given flights and users.
func NewReservations(flights []*reservation.Flight, users []*reservation.User) *Reservations {
	r := &Reservations{
		flights: make(map[string]*reservation.Flight),
		users:   make(map[string]*reservation.User),
		history: make(map[string]*reservation.CallHistoryItem),
		now:     time.Now,
	}
	for _, f := range flights {
		r.AddFlight(f)
	}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

// AddFlight stores a copy of the flight, replacing any flight with the same id.
func (r *Reservations) AddFlight(f *reservation.Flight) {
	cp := f.Clone()
	cp.Normalize()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.flights[cp.ID]; !exists {
		r.order = append(r.order, cp.ID)
	}
	r.flights[cp.ID] = cp
}

// AddUser stores a copy of the user.
func (r *Reservations) AddUser(u *reservation.User) {
	cp := *u
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = &cp
}

func (r *Reservations) FindByID(ctx context.Context, flightID string) (*reservation.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[flightID]
	if !ok {
		return nil, reservation.ErrFlightNotFound
	}
	return f.Clone(), nil
}

func (r *Reservations) Filter(ctx context.Context, filter reservation.Filter, page reservation.PageSort) (reservation.FlightPage, error) {
	if err := ctx.Err(); err != nil {
		return reservation.FlightPage{}, err
	}
	now := r.now()
	r.mu.RLock()
	var matched []*reservation.Flight
	for _, id := range r.order {
		if f := r.flights[id]; filter.Matches(f, now) {
			matched = append(matched, f.Clone())
		}
	}
	r.mu.RUnlock()

	return reservation.FlightPage{Items: page.Apply(matched), TotalCount: len(matched)}, nil
}

func (r *Reservations) AddReservation(ctx context.Context, flightID, userID string) (*reservation.Flight, error) {
	return r.mutate(flightID, func(f *reservation.Flight) error { return f.AddPassenger(userID) })
}

func (r *Reservations) CancelReservation(ctx context.Context, flightID, userID string) (*reservation.Flight, error) {
	return r.mutate(flightID, func(f *reservation.Flight) error { return f.RemovePassenger(userID) })
}

func (r *Reservations) mutate(flightID string, fn func(*reservation.Flight) error) (*reservation.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[flightID]
	if !ok {
		return nil, reservation.ErrFlightNotFound
	}
	next := f.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.flights[flightID] = next
	return next.Clone(), nil
}

func (r *Reservations) ListReservations(ctx context.Context, userID string) ([]*reservation.Flight, error) {
	page, err := r.Filter(ctx, reservation.Filter{UserID: userID}, reservation.PageSort{Sort: "departure_time", Dir: reservation.Asc})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Reservations) InsertCallHistoryItem(ctx context.Context, sessionID, userID string, start time.Time) (*reservation.CallHistoryItem, error) {
	item := &reservation.CallHistoryItem{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		StartTime: start,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[item.ID] = item
	cp := *item
	return &cp, nil
}

func (r *Reservations) FinishCallHistoryItem(ctx context.Context, id string, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.history[id]
	if !ok {
		return reservation.ErrHistoryNotFound
	}
	item.EndTime = &end
	return nil
}

// CallHistory returns the recorded calls ordered by start time.
func (r *Reservations) CallHistory() []reservation.CallHistoryItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reservation.CallHistoryItem, 0, len(r.history))
	for _, item := range r.history {
		out = append(out, *item)
	}
	slices.SortFunc(out, func(a, b reservation.CallHistoryItem) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

func (r *Reservations) FindUser(ctx context.Context, userID string) (*reservation.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, reservation.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
