// Package ristretto is the in-process L1 cache in front of NATS KV.
package ristretto

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// averageEntry is the expected size of a cached slug resolution.
const averageEntry = 256

// Cache holds small hot values such as slug resolutions. Cost is charged
// per byte of key and value, and entries larger than a sixteenth of the
// budget are not admitted.
type Cache struct {
	c        *ristretto.Cache[string, []byte]
	maxEntry int64
	addMu    sync.Mutex
}

// New creates a cache with a budget of maxCostBytes.
func New(maxCostBytes int64) (*Cache, error) {
	counters := maxCostBytes / averageEntry * 10
	if counters < 1000 {
		counters = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, maxEntry: maxCostBytes / 16}, nil
}

// NewMB is New with the budget given in megabytes.
func NewMB(maxSizeMB int64) (*Cache, error) {
	return New(maxSizeMB << 20)
}

// Get never fails.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores value for ttl and waits until the next Get can see it. Values
// over the per-entry cap are dropped silently, leaving L2 to serve them.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(key) + len(value))
	if cost > c.maxEntry {
		c.c.Del(key)
		return nil
	}
	c.c.SetWithTTL(key, value, cost, ttl)
	c.c.Wait()
	return nil
}

// Add is Set guarded by a miss. Adds are serialized; a plain Set racing an
// Add may still overwrite it.
func (c *Cache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.addMu.Lock()
	defer c.addMu.Unlock()
	if _, found := c.c.Get(key); found {
		return false, nil
	}
	return true, c.Set(ctx, key, value, ttl)
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// HitRatio is the fraction of Gets answered since start.
func (c *Cache) HitRatio() float64 {
	return c.c.Metrics.Ratio()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
