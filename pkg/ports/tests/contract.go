package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a ReservationService seeded with the given flights and users.
type Factory func(t *testing.T, flights []*reservation.Flight, users []*reservation.User) ports.ReservationService

// Fixture returns the flights and users the contract suite is seeded with:
// three upcoming Prague departures, one past flight, and a full flight.
func Fixture() ([]*reservation.Flight, []*reservation.User) {
	base := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	leg := func(from, to string, dep time.Time, hours int) reservation.PathPart {
		return reservation.PathPart{FromDestination: from, ToDestination: to, DepartureTime: dep, ArrivalTime: dep.Add(time.Duration(hours) * time.Hour)}
	}
	mk := func(id string, price, capacity int, passengers []string, path ...reservation.PathPart) *reservation.Flight {
		f := &reservation.Flight{ID: id, Price: price, Capacity: capacity, Passengers: passengers, Path: path}
		f.Normalize()
		return f
	}
	flights := []*reservation.Flight{
		mk("f-oslo", 300, 10, []string{"u-ada"}, leg("Prague", "Oslo", base, 2)),
		mk("f-rome", 150, 10, nil, leg("Prague", "Vienna", base.Add(time.Hour), 1), leg("Vienna", "Rome", base.Add(3*time.Hour), 2)),
		mk("f-paris", 200, 10, []string{"u-ada"}, leg("Prague", "Paris", base.Add(2*time.Hour), 2)),
		mk("f-past", 100, 10, []string{"u-ada"}, leg("Prague", "Lisbon", time.Now().Add(-48*time.Hour), 3)),
		mk("f-full", 90, 1, []string{"u-bob"}, leg("Brno", "London", base, 2)),
	}
	users := []*reservation.User{
		{ID: "u-ada", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "u-bob", FirstName: "Bob"},
	}
	return flights, users
}

// ReservationServiceContractTest verifies that an adapter complies with ports.ReservationService.
func ReservationServiceContractTest(t *testing.T, factory Factory) {
	t.Helper()
	ctx := context.Background()

	newService := func(t *testing.T) ports.ReservationService {
		flights, users := Fixture()
		return factory(t, flights, users)
	}

	t.Run("FindByID", func(t *testing.T) {
		svc := newService(t)
		f, err := svc.FindByID(ctx, "f-rome")
		require.NoError(t, err)
		assert.Equal(t, "Prague", f.FromDestination)
		assert.Equal(t, "Rome", f.ToDestination)
		assert.Equal(t, 1, f.TransfersCount)
		require.Len(t, f.Path, 2)

		_, err = svc.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, reservation.ErrFlightNotFound)
	})

	t.Run("Filter", func(t *testing.T) {
		svc := newService(t)
		page, err := svc.Filter(ctx, reservation.Filter{FromDestination: "Prague"}, reservation.PageSort{Sort: "price", Dir: reservation.Asc, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount, "past departures are excluded")
		require.Len(t, page.Items, 2)
		assert.Equal(t, "f-rome", page.Items[0].ID)
		assert.Equal(t, "f-paris", page.Items[1].ID)

		zero := 0
		page, err = svc.Filter(ctx, reservation.Filter{MaxTransfersCount: &zero, UserID: "u-ada"}, reservation.PageSort{})
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalCount)
	})

	t.Run("ListReservations", func(t *testing.T) {
		svc := newService(t)
		items, err := svc.ListReservations(ctx, "u-ada")
		require.NoError(t, err)
		ids := make([]string, 0, len(items))
		for _, f := range items {
			ids = append(ids, f.ID)
		}
		assert.Equal(t, []string{"f-oslo", "f-paris"}, ids, "upcoming reservations ordered by departure")
	})

	t.Run("AddReservation", func(t *testing.T) {
		svc := newService(t)
		f, err := svc.AddReservation(ctx, "f-rome", "u-ada")
		require.NoError(t, err)
		assert.True(t, f.HasPassenger("u-ada"))
		assert.Equal(t, 9, f.FreeCapacity)

		_, err = svc.AddReservation(ctx, "f-rome", "u-ada")
		assert.ErrorIs(t, err, reservation.ErrAlreadyReserved)

		_, err = svc.AddReservation(ctx, "f-full", "u-ada")
		assert.ErrorIs(t, err, reservation.ErrFullyBooked)

		_, err = svc.AddReservation(ctx, "missing", "u-ada")
		assert.ErrorIs(t, err, reservation.ErrFlightNotFound)

		stored, err := svc.FindByID(ctx, "f-rome")
		require.NoError(t, err)
		assert.True(t, stored.HasPassenger("u-ada"))
	})

	t.Run("CancelReservation", func(t *testing.T) {
		svc := newService(t)
		f, err := svc.CancelReservation(ctx, "f-oslo", "u-ada")
		require.NoError(t, err)
		assert.False(t, f.HasPassenger("u-ada"))

		_, err = svc.CancelReservation(ctx, "f-oslo", "u-ada")
		assert.ErrorIs(t, err, reservation.ErrNotReserved)

		items, err := svc.ListReservations(ctx, "u-ada")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("CallHistory", func(t *testing.T) {
		svc := newService(t)
		start := time.Now().Truncate(time.Second)
		item, err := svc.InsertCallHistoryItem(ctx, "call-1", "u-ada", start)
		require.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "call-1", item.SessionID)
		assert.Zero(t, item.Duration())

		require.NoError(t, svc.FinishCallHistoryItem(ctx, item.ID, start.Add(time.Minute)))
		assert.ErrorIs(t, svc.FinishCallHistoryItem(ctx, "missing", start), reservation.ErrHistoryNotFound)
	})

	t.Run("FindUser", func(t *testing.T) {
		svc := newService(t)
		u, err := svc.FindUser(ctx, "u-ada")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", u.FullName())

		_, err = svc.FindUser(ctx, "nobody")
		assert.ErrorIs(t, err, reservation.ErrUserNotFound)
	})
}
