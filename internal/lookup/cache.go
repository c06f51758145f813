package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheEntry is one cached lookup outcome. Negative entries (LookupFailed)
// record a known-bad number so the upstream is not hammered on every call
// from it; their short TTL still allows an eventual retry.
type CacheEntry struct {
	CallerInfo
	LookupFailed bool      `json:"lookupFailed,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Cache stores lookup outcomes keyed by normalized E.164 number.
// Get returns (nil, nil) on miss.
type Cache interface {
	Get(ctx context.Context, e164 string) (*CacheEntry, error)
	Put(ctx context.Context, e164 string, entry CacheEntry, ttl time.Duration) error
}

const cacheKeyPrefix = "lookup:"

// RedisCache keeps entries under lookup:<e164> with a per-entry TTL.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, e164 string) (*CacheEntry, error) {
	payload, err := c.rdb.Get(ctx, cacheKeyPrefix+e164).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup: cache get: %w", err)
	}
	var entry CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		// A corrupt cache entry is just a miss.
		return nil, nil
	}
	return &entry, nil
}

func (c *RedisCache) Put(ctx context.Context, e164 string, entry CacheEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("lookup: cache marshal: %w", err)
	}
	return c.rdb.Set(ctx, cacheKeyPrefix+e164, payload, ttl).Err()
}

// MemoryCache is an in-memory Cache for tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry

	// Now is overridable in tests to exercise TTL expiry.
	Now func() time.Time
}

type memoryCacheEntry struct {
	entry     CacheEntry
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryCacheEntry{}}
}

func (c *MemoryCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *MemoryCache) Get(_ context.Context, e164 string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[e164]
	if !ok || !e.expiresAt.After(c.now()) {
		delete(c.entries, e164)
		return nil, nil
	}
	out := e.entry
	return &out, nil
}

func (c *MemoryCache) Put(_ context.Context, e164 string, entry CacheEntry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e164] = memoryCacheEntry{entry: entry, expiresAt: c.now().Add(ttl)}
	return nil
}
