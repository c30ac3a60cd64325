package reservation

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Destinations is the catalogue of airports used by the generator.
var Destinations = []string{
	"Prague", "Brno", "Vienna", "Berlin", "London", "Paris", "Madrid",
	"Rome", "Amsterdam", "Warsaw", "Budapest", "Lisbon", "Oslo", "Dublin",
}

// Carriers is the catalogue of airlines used by the generator.
var Carriers = []string{"CSA", "Lufthansa", "Austrian", "KLM", "Ryanair"}

// Generator produces random flights for seeding a store.
type Generator struct {
	rnd    *rand.Rand
	now    func() time.Time
	issued map[string]bool
}

// NewGenerator creates a generator. A nil source uses a time-seeded one.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), 0)
	}
	return &Generator{rnd: rand.New(src), now: time.Now, issued: make(map[string]bool)}
}

// Flights generates count flights of one to four legs departing within the next year.
// Flight ids are six digit numbers so callers can key them in.
func (g *Generator) Flights(count int) []*Flight {
	out := make([]*Flight, 0, count)
	for i := 0; i < count; i++ {
		f := &Flight{
			ID:       g.flightID(),
			Price:    g.between(10, 999),
			Capacity: g.between(10, 200),
			Note:     fmt.Sprintf("Generated on %s", g.now().Format("Jan 2 2006, 15:04")),
			Path:     g.path(g.between(1, 4)),
		}
		f.Normalize()
		out = append(out, f)
	}
	return out
}

func (g *Generator) flightID() string {
	for {
		id := fmt.Sprintf("%06d", g.rnd.IntN(1000000))
		if !g.issued[id] {
			g.issued[id] = true
			return id
		}
	}
}

func (g *Generator) path(legs int) []PathPart {
	used := make(map[string]bool)
	start := g.now().
		AddDate(0, g.rnd.IntN(12), g.rnd.IntN(31)).
		Add(time.Duration(g.rnd.IntN(24))*time.Hour + time.Duration(g.rnd.IntN(60))*time.Minute)

	parts := make([]PathPart, 0, legs)
	var prev *PathPart
	for i := 0; i < legs; i++ {
		departure := start
		from := ""
		if prev != nil {
			departure = prev.ArrivalTime.Add(time.Duration(g.between(25, 360)) * time.Minute)
			from = prev.ToDestination
		} else {
			from = g.unused(used)
		}
		part := PathPart{
			FromDestination: from,
			ToDestination:   g.unused(used),
			DepartureTime:   departure,
			ArrivalTime:     departure.Add(time.Duration(g.between(150, 480)) * time.Minute),
			Carrier:         Carriers[g.rnd.IntN(len(Carriers))],
		}
		parts = append(parts, part)
		prev = &parts[len(parts)-1]
	}
	return parts
}

func (g *Generator) unused(used map[string]bool) string {
	for {
		city := Destinations[g.rnd.IntN(len(Destinations))]
		if !used[city] {
			used[city] = true
			return city
		}
	}
}

// between returns a random int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rnd.IntN(hi-lo+1)
}
