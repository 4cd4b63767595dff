package locking

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// LockerRedis is a type of LockerInterface shared by all processes using the same Redis
type LockerRedis struct {
	locker *redislock.Client
}

// NewLockerRedis builds a new LockerRedis instance
func NewLockerRedis(redisClient *redis.Client) *LockerRedis {
	lockerRedis := LockerRedis{}
	lockerRedis.locker = redislock.New(redisClient)

	return &lockerRedis
}

// Acquire acquires a lock
func (l *LockerRedis) Acquire(ctx context.Context, key string, ttl time.Duration, tryOnlyOnce bool, waitTimeout time.Duration) (LockInterface, error) {
	backoff := redislock.LinearBackoff(50 * time.Millisecond)
	if tryOnlyOnce {
		backoff = redislock.NoRetry()
	}

	obtainCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	obtain, err := l.locker.Obtain(obtainCtx, key, ttl, &redislock.Options{
		RetryStrategy: backoff,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNotObtained
		}

		return nil, errors.Wrapf(err, "could not obtain lock %s", key)
	}

	return &LockRedis{
		lock: obtain,
	}, nil
}

// LockRedis is a type of LockInterface
type LockRedis struct {
	lock *redislock.Lock
}

// Key Returns the key of the locking
func (l *LockRedis) Key() string {
	return l.lock.Key()
}

// Release will release the locking
func (l *LockRedis) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}

	return err
}
