package reservation

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlight(id string, legs ...PathPart) *Flight {
	f := &Flight{ID: id, Price: 100, Capacity: 2, Path: legs}
	f.Normalize()
	return f
}

func TestFlight_Normalize(t *testing.T) {
	dep := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	f := testFlight("f1",
		PathPart{FromDestination: "Prague", ToDestination: "Vienna", DepartureTime: dep, ArrivalTime: dep.Add(time.Hour)},
		PathPart{FromDestination: "Vienna", ToDestination: "Rome", DepartureTime: dep.Add(2 * time.Hour), ArrivalTime: dep.Add(4 * time.Hour)},
	)

	assert.Equal(t, "Prague", f.FromDestination)
	assert.Equal(t, "Rome", f.ToDestination)
	assert.Equal(t, 1, f.TransfersCount)
	assert.Equal(t, 240, f.TotalFlightDuration)
	assert.Equal(t, 2, f.FreeCapacity)
}

func TestFlight_Reservations(t *testing.T) {
	f := testFlight("f1")

	require.NoError(t, f.AddPassenger("u1"))
	assert.ErrorIs(t, f.AddPassenger("u1"), ErrAlreadyReserved)
	require.NoError(t, f.AddPassenger("u2"))
	assert.ErrorIs(t, f.AddPassenger("u3"), ErrFullyBooked)
	assert.Equal(t, 0, f.FreeCapacity)

	require.NoError(t, f.RemovePassenger("u1"))
	assert.ErrorIs(t, f.RemovePassenger("u1"), ErrNotReserved)
	assert.Equal(t, 1, f.FreeCapacity)
	assert.False(t, f.HasPassenger("u1"))
}

func TestFilter_Matches(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	past := testFlight("past", PathPart{FromDestination: "Prague", ToDestination: "Oslo", DepartureTime: now.Add(-time.Hour), ArrivalTime: now})
	future := testFlight("future", PathPart{FromDestination: "Prague", ToDestination: "Oslo", DepartureTime: now.Add(time.Hour), ArrivalTime: now.Add(3 * time.Hour)})
	future.Passengers = []string{"u1"}

	assert.False(t, Filter{}.Matches(past, now), "departures before now are excluded by default")
	assert.True(t, Filter{}.Matches(future, now))

	from := now.Add(-2 * time.Hour)
	assert.True(t, Filter{DepartureTimeFrom: &from}.Matches(past, now))

	assert.True(t, Filter{ToDestination: "Oslo", UserID: "u1"}.Matches(future, now))
	assert.False(t, Filter{UserID: "u2"}.Matches(future, now))
	assert.False(t, Filter{PriceTo: 50}.Matches(future, now))

	zero := 0
	assert.True(t, Filter{MaxTransfersCount: &zero}.Matches(future, now))
}

func TestPageSort_Apply(t *testing.T) {
	items := []*Flight{{ID: "a", Price: 30}, {ID: "b", Price: 10}, {ID: "c", Price: 20}}

	page := PageSort{Sort: "price", Dir: Asc, Limit: 2}.Apply(items)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].ID)
	assert.Equal(t, "c", page[1].ID)

	page = PageSort{Sort: "price", Dir: Desc, Offset: 1}.Apply(items)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)

	assert.Empty(t, PageSort{Offset: 5}.Apply(items))
}

func TestGenerator_Flights(t *testing.T) {
	g := NewGenerator(rand.NewPCG(1, 2))
	flights := g.Flights(20)
	require.Len(t, flights, 20)

	ids := make(map[string]bool)
	for _, f := range flights {
		assert.Regexp(t, `^\d{6}$`, f.ID, "ids can be keyed in")
		assert.False(t, ids[f.ID], "duplicate id %s", f.ID)
		ids[f.ID] = true
		assert.GreaterOrEqual(t, len(f.Path), 1)
		assert.LessOrEqual(t, len(f.Path), 4)
		assert.NotEqual(t, f.FromDestination, f.ToDestination)
		assert.Equal(t, f.Capacity, f.FreeCapacity)
		for i := 1; i < len(f.Path); i++ {
			assert.Equal(t, f.Path[i-1].ToDestination, f.Path[i].FromDestination)
			assert.True(t, f.Path[i].DepartureTime.After(f.Path[i-1].ArrivalTime))
		}
	}
}
