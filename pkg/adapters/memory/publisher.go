package memory

import (
	"context"
	"sync"
)

// Broker is an in-process ports.Publisher that fans events out to subscribers.
// Slow subscribers drop events rather than block publishers.
type Broker struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan string]struct{})}
}

// Publish delivers the event to every current subscriber.
func (b *Broker) Publish(ctx context.Context, event string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe streams events until ctx is done; the channel is then closed.
func (b *Broker) Subscribe(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
