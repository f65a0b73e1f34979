package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/agendei/agendei/internal/adapter/ristretto"
	"github.com/agendei/agendei/internal/port/cache/cachetest"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.NewMB(1)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_Compliance(t *testing.T) {
	cachetest.RunComplianceTests(t, newCache(t))
}

func TestCache_TTLExpires(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	// ristretto sweeps expired items lazily; Get checks expiry on read
	time.Sleep(100 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "short"); found {
		t.Fatal("expected entry to expire")
	}
}

func TestCache_OversizedEntryNotAdmitted(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	big := make([]byte, 1<<17) // over 1/16 of a 1 MB budget
	if err := c.Set(ctx, "big", big, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "big"); found {
		t.Fatal("oversized value must not be cached")
	}
}

func TestCache_HitRatio(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "slug:salon-a", []byte(`{"id":"t1"}`), time.Minute)
	_, _, _ = c.Get(ctx, "slug:salon-a")
	_, _, _ = c.Get(ctx, "slug:unknown")

	if got := c.HitRatio(); got != 0.5 {
		t.Fatalf("hit ratio = %v, want 0.5", got)
	}
}
