package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a call lock. It is safe to call after the TTL lapsed.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one call across portal replicas, so two
// replicas never advance or checkpoint the same dialog at once. The session
// manager takes the lock around every load, save and delete of a call.
type DistributedLocker interface {
	// Lock blocks until the call's key is held or ctx is done. The lock lapses
	// after ttl if the holder dies without releasing it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// LockerFunc adapts a function to DistributedLocker.
type LockerFunc func(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)

func (f LockerFunc) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	return f(ctx, key, ttl)
}

// CallLockKey is the lock key guarding a call.
func CallLockKey(sessionID string) string {
	return "call:" + sessionID
}
