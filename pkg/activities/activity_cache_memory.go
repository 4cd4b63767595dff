package activities

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// ActivityCacheMemory caches activities in a size bounded LRU
type ActivityCacheMemory struct {
	Cache *lru.Cache
}

// NewActivityCacheMemory initializes a new ActivityCacheMemory
func NewActivityCacheMemory(size int) (*ActivityCacheMemory, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &ActivityCacheMemory{
		Cache: cache,
	}, nil
}

// Add adds a copy of the Activity to the cache
func (c *ActivityCacheMemory) Add(_ context.Context, key string, activity *Activity) error {
	_ = c.Cache.Add(key, activity.Copy())
	return nil
}

// Invalidate removes an Activity from the cache
func (c *ActivityCacheMemory) Invalidate(_ context.Context, key string) error {
	c.Cache.Remove(key)
	return nil
}

// Get retrieves a copy of a cached Activity
func (c *ActivityCacheMemory) Get(_ context.Context, key string) (*Activity, error) {
	result, ok := c.Cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("could not find key %s in activity cache", key)
	}

	activity, ok := result.(*Activity)
	if !ok {
		return nil, fmt.Errorf("cache entry was not an activity")
	}

	return activity.Copy(), nil
}
