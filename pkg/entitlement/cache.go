package entitlement

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved entitlement lists keyed by holder. Only the Resolve
// read path uses it; consume decisions always hit the ledger.
type Cache interface {
	Get(ctx context.Context, key string) ([]EffectiveEntitlement, bool)
	Set(ctx context.Context, key string, ents []EffectiveEntitlement, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type cacheItem struct {
	ents      []EffectiveEntitlement
	expiresAt time.Time
}

// memoryCache is the default single-process cache.
type memoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
}

// NewMemoryCache returns an in-process entitlement cache. Expired entries
// are dropped on read; there is no background sweeper because entries are
// few (one per recently active holder) and short-lived.
func NewMemoryCache() Cache {
	return &memoryCache{items: make(map[string]cacheItem)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]EffectiveEntitlement, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.Delete(context.Background(), key)
		return nil, false
	}
	return item.ents, true
}

func (c *memoryCache) Set(_ context.Context, key string, ents []EffectiveEntitlement, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{ents: ents, expiresAt: time.Now().Add(ttl)}
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}
