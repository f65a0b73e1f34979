// Package natskv is the L2 cache shared by all replicas, stored in a NATS
// JetStream key-value bucket.
package natskv

import (
	"context"
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go/jetstream"
)

// headerLen is the size of the expiry prefix on every stored value.
const headerLen = 8

// Cache stores values in a KV bucket. The bucket TTL bounds every entry;
// a shorter per-entry ttl is enforced on read from an expiry prefix.
type Cache struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

// New wraps kv.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, Key(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	raw := entry.Value()
	if c.expired(raw) {
		return nil, false, nil
	}
	return raw[headerLen:], true, nil
}

// expired reports whether raw is unreadable or past its expiry prefix.
func (c *Cache) expired(raw []byte) bool {
	if len(raw) < headerLen {
		return true
	}
	exp := int64(binary.BigEndian.Uint64(raw[:headerLen]))
	return exp != 0 && c.now().UnixNano() >= exp
}

func (c *Cache) encode(value []byte, ttl time.Duration) []byte {
	raw := make([]byte, headerLen+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(raw[:headerLen], uint64(c.now().Add(ttl).UnixNano()))
	}
	copy(raw[headerLen:], value)
	return raw
}

// Set stores value. ttl <= 0 leaves expiry to the bucket.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.kv.Put(ctx, Key(key), c.encode(value, ttl))
	return err
}

// Add creates key through the bucket's create-if-absent write. An entry
// past its own ttl is replaced with a revision-checked update, so two
// callers racing over an expired entry still produce one winner.
func (c *Cache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	k, raw := Key(key), c.encode(value, ttl)
	_, err := c.kv.Create(ctx, k, raw)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, jetstream.ErrKeyExists) {
		return false, err
	}

	entry, err := c.kv.Get(ctx, k)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !c.expired(entry.Value()) {
		return false, nil
	}
	_, err = c.kv.Update(ctx, k, raw, entry.Revision())
	if errors.Is(err, jetstream.ErrKeyExists) {
		return false, nil
	}
	return err == nil, err
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, Key(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Key maps a cache key onto the KV key alphabet [-/_=.a-zA-Z0-9]. Keys
// already in the alphabet are kept. Otherwise the offending characters
// become '_' and a hash of the original is appended, so "slug:a b" and
// "slug:a_b" stay distinct.
func Key(key string) string {
	changed := false
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '/', r == '_', r == '=', r == '.':
			return r
		}
		changed = true
		return '_'
	}, key)
	trimmed := strings.Trim(mapped, ".")
	if trimmed != mapped || trimmed == "" {
		changed = true
	}
	if !changed {
		return mapped
	}
	return trimmed + "=" + strconv.FormatUint(xxhash.Sum64String(key), 36)
}
