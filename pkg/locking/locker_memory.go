package locking

import (
	"context"
	"sync"
	"time"
)

// LockerMemory is a type of LockerInterface for a single process
type LockerMemory struct {
	pool  sync.Pool
	locks sync.Map
}

// NewLockerMemory builds a new LockerMemory instance
func NewLockerMemory() *LockerMemory {
	locker := LockerMemory{}
	locker.pool = sync.Pool{
		New: func() interface{} {
			return make(chan struct{}, 1)
		},
	}

	return &locker
}

// Acquire acquires a LockInterface. The ttl is ignored, a memory lock lives until it is released.
func (l *LockerMemory) Acquire(ctx context.Context, key string, _ time.Duration, tryOnlyOnce bool, waitTimeout time.Duration) (LockInterface, error) {
	slot := l.getLock(key)

	select {
	case slot <- struct{}{}:
		return l.newLock(key, slot), nil
	default:
		if tryOnlyOnce {
			return nil, ErrNotObtained
		}
	}

	timer := time.NewTimer(waitTimeout)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return l.newLock(key, slot), nil
	case <-timer.C:
		return nil, ErrNotObtained
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *LockerMemory) newLock(key string, slot chan struct{}) *LockMemory {
	var once sync.Once

	return &LockMemory{
		key: key,
		release: func() {
			once.Do(func() {
				<-slot
			})
		},
	}
}

func (l *LockerMemory) getLock(key string) chan struct{} {
	newLock := l.pool.Get()
	lock, stored := l.locks.LoadOrStore(key, newLock)
	if stored {
		l.pool.Put(newLock)
	}
	return lock.(chan struct{})
}

// LockMemory is a memory implementation of a LockInterface
type LockMemory struct {
	key     string
	release func()
}

// Key returns a key
func (l *LockMemory) Key() string {
	return l.key
}

// Release releases a LockMemory, releasing twice is a no-op
func (l *LockMemory) Release(_ context.Context) error {
	l.release()
	return nil
}
