package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	// TombstoneTTL bounds how long warming is suppressed after an
	// invalidation. It only needs to outlive any in-flight read that started
	// before the mutation committed.
	TombstoneTTL = 30 * time.Second

	itemCacheKeyPrefix = "item"

	tombstone = "__gone__"
)

// CachedItem is the denormalized read model stored in Redis. It mirrors the
// full item including payload so GET-by-ID can be served without touching
// Postgres. Data marshals to base64 in the stored JSON.
type CachedItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemCache is a best-effort, TTL-bounded read model for single-item reads.
// It never owns durable state: every mutation invalidates the corresponding
// key, and clear-all flushes the whole namespace. List, count and stats
// always bypass it.
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached item by ID.
// Returns redis.Nil error when the key does not exist, has expired, or holds
// an invalidation tombstone.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*CachedItem, error) {
	raw, err := c.client.Client().Get(ctx, c.key(itemID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if isTombstone(raw) {
		return nil, redis.Nil
	}

	var item CachedItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &item, nil
}

// Set warms a cached item as JSON with a 24-hour TTL. The write is NX: it
// never overwrites an existing entry, in particular not a tombstone left by
// a concurrent invalidation. A warm that raced a mutation is therefore
// discarded instead of resurrecting a deleted or pre-update row.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Client().SetNX(ctx, c.key(item.ID), raw, ItemCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate replaces the cached item with a short-lived tombstone. Unlike a
// plain DEL, the tombstone also blocks in-flight warms (see Set), so a read
// that loaded the row before the mutation committed cannot re-insert it.
func (c *ItemCache) Invalidate(ctx context.Context, itemID uuid.UUID) error {
	if err := c.client.Client().Set(ctx, c.key(itemID), tombstone, TombstoneTTL).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Flush removes every cached item. Used after a confirmed clear-all so no
// reader can be served an item that no longer exists durably.
func (c *ItemCache) Flush(ctx context.Context) error {
	rdb := c.client.Client()
	iter := rdb.Scan(ctx, 0, itemCacheKeyPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache flush: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache flush scan: %w", err)
	}
	return nil
}

// key builds the Redis key: "item:{itemID}"
func (c *ItemCache) key(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}

func isTombstone(raw []byte) bool {
	return string(raw) == tombstone
}
