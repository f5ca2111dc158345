package provider

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ttlCache keeps fresh values for a TTL and the last value ever fetched per
// key, which is served when the upstream fails.
type ttlCache[T any] struct {
	fresh     *cache.Cache
	lastKnown *cache.Cache
	group     singleflight.Group
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{
		fresh:     cache.New(ttl, 2*ttl),
		lastKnown: cache.New(cache.NoExpiration, 0),
	}
}

// get returns the cached value for key or fetches it. When fetch fails and a
// previous value exists, that value is returned with stale set.
func (c *ttlCache[T]) get(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (value T, cached, stale bool, err error) {
	if v, ok := c.fresh.Get(key); ok {
		return v.(T), true, false, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err == nil {
		value = v.(T)
		c.fresh.Set(key, value, ttl)
		c.lastKnown.Set(key, value, cache.NoExpiration)
		return value, false, false, nil
	}

	if last, ok := c.lastKnown.Get(key); ok {
		return last.(T), true, true, nil
	}
	return value, false, false, err
}

// peek returns the last known value for key without fetching.
func (c *ttlCache[T]) peek(key string) (T, bool) {
	var zero T
	if v, ok := c.lastKnown.Get(key); ok {
		return v.(T), true
	}
	return zero, false
}

func (c *ttlCache[T]) flush() {
	c.fresh.Flush()
}
