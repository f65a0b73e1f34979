// Package cachetest holds a compliance suite shared by cache adapters.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/agendei/agendei/internal/port/cache"
)

type resolved struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// RunComplianceTests checks the behavior the slug resolver and the
// idempotency store rely on.
func RunComplianceTests(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "slug:salon-a", []byte(`{"id":"t1"}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "slug:salon-a")
		if err != nil || !found {
			t.Fatalf("get after set: found=%v err=%v", found, err)
		}
		if string(val) != `{"id":"t1"}` {
			t.Fatalf("value = %s", val)
		}
	})

	t.Run("MissIsNotAnError", func(t *testing.T) {
		_, found, err := c.Get(ctx, "slug:never-cached")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss")
		}
	})

	t.Run("DeleteForgets", func(t *testing.T) {
		_ = c.Set(ctx, "slug:salon-b", []byte("x"), time.Minute)
		if err := c.Delete(ctx, "slug:salon-b"); err != nil {
			t.Fatal(err)
		}
		if _, found, _ := c.Get(ctx, "slug:salon-b"); found {
			t.Fatal("expected miss after Delete")
		}
		if err := c.Delete(ctx, "slug:salon-b"); err != nil {
			t.Fatalf("second Delete: %v", err)
		}
	})

	t.Run("OverwriteReplaces", func(t *testing.T) {
		_ = c.Set(ctx, "idem:t1:u1:k1", []byte("v1"), time.Minute)
		_ = c.Set(ctx, "idem:t1:u1:k1", []byte("v2"), time.Minute)
		val, found, err := c.Get(ctx, "idem:t1:u1:k1")
		if err != nil || !found || string(val) != "v2" {
			t.Fatalf("got %q found=%v err=%v, want v2", val, found, err)
		}
	})

	t.Run("AddOnlyWhenAbsent", func(t *testing.T) {
		added, err := c.Add(ctx, "idem:t1:u1:k2", []byte("pending"), time.Minute)
		if err != nil || !added {
			t.Fatalf("first Add = %v err=%v", added, err)
		}
		added, err = c.Add(ctx, "idem:t1:u1:k2", []byte("other"), time.Minute)
		if err != nil || added {
			t.Fatalf("second Add = %v err=%v, want refused", added, err)
		}
		if val, _, _ := c.Get(ctx, "idem:t1:u1:k2"); string(val) != "pending" {
			t.Fatalf("value = %q, want the first Add's", val)
		}
		_ = c.Delete(ctx, "idem:t1:u1:k2")
		if added, _ := c.Add(ctx, "idem:t1:u1:k2", []byte("again"), time.Minute); !added {
			t.Fatal("Add after Delete refused")
		}
	})

	t.Run("JSONHelpers", func(t *testing.T) {
		if err := cache.SetJSON(ctx, c, "slug:salon-c", resolved{ID: "t3", Slug: "salon-c"}, time.Minute); err != nil {
			t.Fatal(err)
		}
		got, ok := cache.GetJSON[resolved](ctx, c, "slug:salon-c")
		if !ok || got.ID != "t3" || got.Slug != "salon-c" {
			t.Fatalf("GetJSON = %+v, %v", got, ok)
		}

		_ = c.Set(ctx, "slug:corrupt", []byte("{not json"), time.Minute)
		if _, ok := cache.GetJSON[resolved](ctx, c, "slug:corrupt"); ok {
			t.Fatal("undecodable entry must read as a miss")
		}
	})
}
