package cli

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/reservation"
)

// DemoUsers are the callers known to the demo data set.
var DemoUsers = []*reservation.User{
	{ID: "1001", FirstName: "Ada", LastName: "Lovelace", Phone: "+420 601 000 001"},
	{ID: "1002", FirstName: "Alan", LastName: "Turing", Phone: "+420 601 000 002"},
	{ID: "1003", FirstName: "Grace", LastName: "Hopper", Phone: "+420 601 000 003"},
}

// DemoData generates count flights from seed and books every demo user on a
// few of them. Routes repeat for a seed; flight ids are random.
func DemoData(count int, seed uint64) ([]*reservation.Flight, []*reservation.User) {
	gen := reservation.NewGenerator(rand.NewPCG(seed, seed^0x5b0a4d))
	flights := gen.Flights(count)
	for i, f := range flights {
		for j, u := range DemoUsers {
			if (i+j)%4 == 0 {
				_ = f.AddPassenger(u.ID)
			}
		}
	}
	users := make([]*reservation.User, len(DemoUsers))
	for i, u := range DemoUsers {
		cp := *u
		users[i] = &cp
	}
	return flights, users
}

// DemoReservations serves the demo data set from memory.
func DemoReservations() *memory.Reservations {
	return memory.NewReservations(DemoData(40, 1))
}

// Seeder stores generated data, e.g. the sqlite adapter.
type Seeder interface {
	SaveFlight(ctx context.Context, f *reservation.Flight) error
	SaveUser(ctx context.Context, u *reservation.User) error
}

// Seed writes count generated flights and the demo users to dst.
func Seed(ctx context.Context, dst Seeder, count int, seed uint64) error {
	flights, users := DemoData(count, seed)
	for _, u := range users {
		if err := dst.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("error saving user %s: %w", u.ID, err)
		}
	}
	for _, f := range flights {
		if err := dst.SaveFlight(ctx, f); err != nil {
			return fmt.Errorf("error saving flight %s: %w", f.ID, err)
		}
	}
	return nil
}
