package locking

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when a lock could not be acquired before the wait timeout ran out
var ErrNotObtained = errors.New("lock not obtained")

// LockerInterface represents a Locker
type LockerInterface interface {
	// Acquire blocks until the lock for key is held, waitTimeout passed or ctx is done.
	// With tryOnlyOnce it gives up immediately when the key is taken.
	Acquire(ctx context.Context, key string, ttl time.Duration, tryOnlyOnce bool, waitTimeout time.Duration) (LockInterface, error)
}

// LockInterface represents a Lock
type LockInterface interface {
	Key() string
	Release(ctx context.Context) error
}
