// Package tiered layers the per-instance cache over the shared one.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agendei/agendei/internal/port/cache"
)

// Cache reads the local level first and falls back to the shared level,
// copying shared hits into the local one. Concurrent misses for one key
// share a single shared-level read. An unreachable shared level reads as a
// miss so callers fall through to the store.
type Cache struct {
	local   cache.Cache
	shared  cache.Cache
	maxTTL  time.Duration
	lookups singleflight.Group
}

var _ cache.Cache = (*Cache)(nil)

// New creates a tiered cache. Local entries live at most localTTL. A nil
// shared level leaves the cache single-level.
func New(local, shared cache.Cache, localTTL time.Duration) *Cache {
	return &Cache{local: local, shared: shared, maxTTL: localTTL}
}

type sharedHit struct {
	value []byte
	found bool
}

// Get implements cache.Cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.local.Get(ctx, key)
	if err != nil || found || c.shared == nil {
		return val, found, err
	}

	res, _, _ := c.lookups.Do(key, func() (any, error) {
		val, found, err := c.shared.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "shared cache read failed", "error", err)
			return sharedHit{}, nil
		}
		if found {
			_ = c.local.Set(ctx, key, val, c.maxTTL)
		}
		return sharedHit{value: val, found: found}, nil
	})
	hit := res.(sharedHit)
	return hit.value, hit.found, nil
}

// Set writes both levels, capping the local lifetime at the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, c.localTTL(ttl)); err != nil {
		return err
	}
	if c.shared == nil {
		return nil
	}
	return c.shared.Set(ctx, key, value, ttl)
}

// Add reserves key on the level every replica sees. A successful shared Add
// drops any stale local copy; without a shared level the local one decides.
func (c *Cache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if c.shared == nil {
		return c.local.Add(ctx, key, value, c.localTTL(ttl))
	}
	added, err := c.shared.Add(ctx, key, value, ttl)
	if err != nil || !added {
		return added, err
	}
	_ = c.local.Delete(ctx, key)
	return true, nil
}

// Delete clears the shared level before the local one so a concurrent Get
// cannot copy the stale shared entry back in.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.shared != nil {
		if err := c.shared.Delete(ctx, key); err != nil {
			_ = c.local.Delete(ctx, key)
			return err
		}
	}
	return c.local.Delete(ctx, key)
}

func (c *Cache) localTTL(ttl time.Duration) time.Duration {
	if c.maxTTL > 0 && (ttl <= 0 || ttl > c.maxTTL) {
		return c.maxTTL
	}
	return ttl
}
