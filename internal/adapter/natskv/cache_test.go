package natskv

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/agendei/agendei/internal/port/cache/cachetest"
)

// memKV implements the subset of jetstream.KeyValue the cache uses.
type memKV struct {
	jetstream.KeyValue
	mu   sync.Mutex
	seq  uint64
	data map[string]memEntry
}

type memEntry struct {
	jetstream.KeyValueEntry
	value []byte
	rev   uint64
}

func (e memEntry) Value() []byte    { return e.value }
func (e memEntry) Revision() uint64 { return e.rev }

func newMemKV() *memKV { return &memKV{data: map[string]memEntry{}} }

func (m *memKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return e, nil
}

func (m *memKV) put(key string, value []byte) uint64 {
	m.seq++
	m.data[key] = memEntry{value: append([]byte(nil), value...), rev: m.seq}
	return m.seq
}

func (m *memKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(key, value), nil
}

func (m *memKV) Create(_ context.Context, key string, value []byte, _ ...jetstream.KVCreateOpt) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	return m.put(key, value), nil
}

func (m *memKV) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key].rev != revision {
		return 0, jetstream.ErrKeyExists
	}
	return m.put(key, value), nil
}

func (m *memKV) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestCache_Compliance(t *testing.T) {
	cachetest.RunComplianceTests(t, New(newMemKV()))
}

func TestCache_EntryTTLEnforcedOnRead(t *testing.T) {
	c := New(newMemKV())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "idem:t1:k", []byte("resp"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "slug:salon-a", []byte("t1"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Second)
	if v, ok, _ := c.Get(ctx, "idem:t1:k"); !ok || string(v) != "resp" {
		t.Fatalf("before expiry: %q %v", v, ok)
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "idem:t1:k"); ok {
		t.Fatal("entry must expire after its ttl")
	}
	if _, ok, _ := c.Get(ctx, "slug:salon-a"); !ok {
		t.Fatal("entry without ttl is bounded by the bucket only")
	}
}

func TestCache_AddReplacesExpiredEntry(t *testing.T) {
	c := New(newMemKV())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if added, err := c.Add(ctx, "idem:t1:k", []byte("pending"), time.Minute); err != nil || !added {
		t.Fatalf("first add = %v %v", added, err)
	}
	if added, _ := c.Add(ctx, "idem:t1:k", []byte("retry"), time.Minute); added {
		t.Fatal("live entry must block Add")
	}

	now = now.Add(2 * time.Minute)
	if added, err := c.Add(ctx, "idem:t1:k", []byte("retry"), time.Minute); err != nil || !added {
		t.Fatalf("add over expired entry = %v %v", added, err)
	}
	if v, ok, _ := c.Get(ctx, "idem:t1:k"); !ok || string(v) != "retry" {
		t.Fatalf("get = %q %v", v, ok)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in, wantPrefix string
		kept           bool
	}{
		{"slug_my-salon", "slug_my-salon", true},
		{"slug:my-salon", "slug_my-salon=", false},
		{"idem:POST /x", "idem_POST_/x=", false},
		{".leading.dot.", "leading.dot=", false},
		{"", "=", false},
	}
	for _, tt := range tests {
		got := Key(tt.in)
		if tt.kept && got != tt.in {
			t.Errorf("Key(%q) = %q, want unchanged", tt.in, got)
		}
		if !strings.HasPrefix(got, tt.wantPrefix) {
			t.Errorf("Key(%q) = %q, want prefix %q", tt.in, got, tt.wantPrefix)
		}
	}
	if Key("slug:a b") == Key("slug:a_b") || Key("slug:a b") == Key("slug:a:b") {
		t.Fatal("distinct keys must not collide")
	}
}
