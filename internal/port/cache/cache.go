// Package cache defines the byte-oriented cache port shared by the slug
// resolver and the idempotency store.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores opaque values under string keys. A miss is (nil, false, nil);
// an error means the backend could not answer and callers fall through to
// the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Add stores value only if key holds no live entry and reports whether
	// it did. Concurrent Adds for one key succeed at most once.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// GetJSON decodes the value under key into a T. An undecodable entry is
// reported as a miss so the caller reloads and overwrites it.
func GetJSON[T any](ctx context.Context, c Cache, key string) (*T, bool) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// AddJSON encodes v and adds it under key.
func AddJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return c.Add(ctx, key, data, ttl)
}
