// Package ttl provides an in-process TTL cache that satisfies the engine's
// invalidation contract. It is a read-through layer callers can put in
// front of expensive lookups (leaderboards, resolved settings) without the
// engine knowing anything beyond cache.Invalidator.
package ttl

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/xraph/economy/cache"
)

// Key addresses one cached entry. MemberID is empty for guild-level
// entries such as the currency list or resolved settings.
type Key struct {
	Partition cache.Partition
	GuildID   string
	MemberID  string
}

// Cache wraps a ttlcache instance keyed by partition and scope.
type Cache struct {
	inner *ttlcache.Cache[Key, any]
}

// New creates a cache whose entries expire after ttl. A zero capacity
// means unbounded. The expiration loop runs until Stop is called.
func New(ttl time.Duration, capacity uint64) *Cache {
	opts := []ttlcache.Option[Key, any]{
		ttlcache.WithTTL[Key, any](ttl),
		ttlcache.WithDisableTouchOnHit[Key, any](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[Key, any](capacity))
	}
	c := &Cache{inner: ttlcache.New(opts...)}
	go c.inner.Start()
	return c
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(key Key) (any, bool) {
	item := c.inner.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// GetOrLoad returns the cached value for key, calling load and caching
// its result on a miss. A load error is returned without caching.
func (c *Cache) GetOrLoad(ctx context.Context, key Key, load func(ctx context.Context) (any, error)) (any, error) {
	var loadErr error
	loader := ttlcache.LoaderFunc[Key, any](
		func(inner *ttlcache.Cache[Key, any], k Key) *ttlcache.Item[Key, any] {
			v, err := load(ctx)
			if err != nil {
				loadErr = err
				return nil
			}
			return inner.Set(k, v, ttlcache.DefaultTTL)
		},
	)
	item := c.inner.Get(key, ttlcache.WithLoader[Key, any](loader))
	if loadErr != nil {
		return nil, loadErr
	}
	if item == nil {
		return nil, nil
	}
	return item.Value(), nil
}

// Set stores a value under key with the default TTL.
func (c *Cache) Set(key Key, value any) {
	c.inner.Set(key, value, ttlcache.DefaultTTL)
}

// Delete removes one entry.
func (c *Cache) Delete(key Key) {
	c.inner.Delete(key)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}

// UpdateMany implements cache.Invalidator. It drops every entry whose
// partition is named and whose scope matches: guild-level entries always
// match their guild, member-level entries additionally match when the
// scope names no member or the same member.
func (c *Cache) UpdateMany(_ context.Context, partitions []cache.Partition, scope cache.Scope) error {
	named := make(map[cache.Partition]bool, len(partitions))
	for _, p := range partitions {
		named[p] = true
	}
	for _, key := range c.inner.Keys() {
		if !named[key.Partition] || key.GuildID != scope.GuildID {
			continue
		}
		if scope.MemberID != "" && key.MemberID != "" && key.MemberID != scope.MemberID {
			continue
		}
		c.inner.Delete(key)
	}
	return nil
}

// Stop halts the expiration loop.
func (c *Cache) Stop() {
	c.inner.Stop()
}

var _ cache.Invalidator = (*Cache)(nil)
