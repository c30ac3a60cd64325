package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel notifications are published on.
const DefaultChannel = "switchboard:notifications"

// Publisher implements ports.Publisher with Redis pub/sub, so subscribers on
// any replica receive reservation changes.
type Publisher struct {
	client  *backend.Client
	channel string
}

// NewPublisher creates a publisher on the given channel (DefaultChannel when empty).
func NewPublisher(client *backend.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish sends the event name to the channel.
func (p *Publisher) Publish(ctx context.Context, event string) error {
	if err := p.client.Publish(ctx, p.channel, event).Err(); err != nil {
		return fmt.Errorf("failed to publish %q: %w", event, err)
	}
	return nil
}

// Subscribe streams published events until ctx is done.
// The returned channel is closed when the subscription ends.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan string, error) {
	sub := p.client.Subscribe(ctx, p.channel)
	// Wait for the subscription confirmation so no event published afterwards is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %q: %w", p.channel, err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
