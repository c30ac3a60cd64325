package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// SessionStore persists session snapshots.
// Snapshots are checkpoints for inspection and audit; a built flow graph is never stored.
type SessionStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all stored session IDs.
	List(ctx context.Context) ([]string, error)
}
