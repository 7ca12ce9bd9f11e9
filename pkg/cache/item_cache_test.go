package cache

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestItemCacheKey(t *testing.T) {
	id := uuid.MustParse("c6f1b5f5-9a70-4a6e-8c6e-2b50cf2f2f10")
	c := NewItemCache(nil)
	if got := c.key(id); got != "item:c6f1b5f5-9a70-4a6e-8c6e-2b50cf2f2f10" {
		t.Errorf("unexpected key: %q", got)
	}
}

func TestIsTombstone(t *testing.T) {
	if !isTombstone([]byte(tombstone)) {
		t.Error("tombstone marker not recognized")
	}
	for _, raw := range [][]byte{nil, {}, []byte(`{"id":"x"}`), []byte("__gone__ ")} {
		if isTombstone(raw) {
			t.Errorf("%q misread as tombstone", raw)
		}
	}
}

// Integration tests — skipped unless REDIS_URL is set.
func TestItemCacheIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	ctx := context.Background()
	c := NewItemCache(rc)

	item := &CachedItem{
		ID:        uuid.New(),
		Name:      "cached item",
		Data:      []byte("Hello World"),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	t.Run("MissReturnsRedisNil", func(t *testing.T) {
		if _, err := c.Get(ctx, uuid.New()); err != redis.Nil {
			t.Fatalf("expected redis.Nil on miss, got %v", err)
		}
	})

	t.Run("SetGetRoundTrip", func(t *testing.T) {
		if err := c.Set(ctx, item); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := c.Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != item.Name || !bytes.Equal(got.Data, item.Data) {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("InvalidateEvicts", func(t *testing.T) {
		if err := c.Invalidate(ctx, item.ID); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if _, err := c.Get(ctx, item.ID); err != redis.Nil {
			t.Fatalf("expected redis.Nil after invalidate, got %v", err)
		}
	})

	// A warm that raced a delete must not resurrect the row: the tombstone
	// written by Invalidate blocks the NX write, so the key still reads as
	// a miss.
	t.Run("WarmCannotResurrectInvalidated", func(t *testing.T) {
		stale := &CachedItem{ID: uuid.New(), Name: "stale read", Data: []byte{1, 2, 3}}
		if err := c.Invalidate(ctx, stale.ID); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if err := c.Set(ctx, stale); err != nil {
			t.Fatalf("set: %v", err)
		}
		if _, err := c.Get(ctx, stale.ID); err != redis.Nil {
			t.Fatalf("expected redis.Nil, stale warm re-inserted the item: %v", err)
		}
	})

	// Opposite interleaving: warm lands first, invalidation overwrites it.
	t.Run("InvalidateOverridesEarlierWarm", func(t *testing.T) {
		warmed := &CachedItem{ID: uuid.New(), Name: "warmed", Data: []byte{4}}
		if err := c.Set(ctx, warmed); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := c.Invalidate(ctx, warmed.ID); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if _, err := c.Get(ctx, warmed.ID); err != redis.Nil {
			t.Fatalf("expected redis.Nil after invalidate, got %v", err)
		}
	})

	t.Run("FlushEvictsAll", func(t *testing.T) {
		a := &CachedItem{ID: uuid.New(), Name: "a", Data: []byte{1}}
		b := &CachedItem{ID: uuid.New(), Name: "b", Data: []byte{2}}
		for _, it := range []*CachedItem{a, b} {
			if err := c.Set(ctx, it); err != nil {
				t.Fatalf("set: %v", err)
			}
		}
		if err := c.Flush(ctx); err != nil {
			t.Fatalf("flush: %v", err)
		}
		for _, it := range []*CachedItem{a, b} {
			if _, err := c.Get(ctx, it.ID); err != redis.Nil {
				t.Fatalf("expected redis.Nil after flush, got %v", err)
			}
		}
	})
}
