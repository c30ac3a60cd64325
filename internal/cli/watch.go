package cli

import (
	"context"
	"fmt"
	"io"
	"time"
)

// WatchFlights prints every flight-change notification until ctx is done.
// With the redis backend it follows calls served by any replica.
func WatchFlights(ctx context.Context, events Subscriber, w io.Writer) error {
	ch, err := events.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("error subscribing to notifications: %w", err)
	}
	printSystemMessage(w, "Waiting for reservation changes...")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s %s\n", time.Now().Format(time.TimeOnly), event)
		}
	}
}
