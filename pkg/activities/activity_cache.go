package activities

import (
	"context"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
)

// ActivityCacheInterface caches activities for the read paths
type ActivityCacheInterface interface {
	Add(ctx context.Context, key string, activity *Activity) error
	Invalidate(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (*Activity, error)
}

// ActivityCacheRedis caches activities in Redis so that all instances share invalidations
type ActivityCacheRedis struct {
	Cache *cache.Cache
	TTL   time.Duration
}

// NewActivityCacheRedis initializes a new ActivityCacheRedis
func NewActivityCacheRedis(redisClient *redis.Client) *ActivityCacheRedis {
	redisCache := cache.New(&cache.Options{
		Redis: redisClient,
	})

	return &ActivityCacheRedis{
		Cache: redisCache,
		TTL:   time.Minute * 10,
	}
}

// Add adds an Activity
func (c *ActivityCacheRedis) Add(ctx context.Context, key string, activity *Activity) error {
	return c.Cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: activity,
		TTL:   c.TTL,
	})
}

// Invalidate invalidates an entry
func (c *ActivityCacheRedis) Invalidate(ctx context.Context, key string) error {
	err := c.Cache.Delete(ctx, key)
	if err == cache.ErrCacheMiss {
		return nil
	}

	return err
}

// Get retrieves an Activity
func (c *ActivityCacheRedis) Get(ctx context.Context, key string) (*Activity, error) {
	result := Activity{}
	err := c.Cache.Get(ctx, key, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
