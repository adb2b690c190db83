package entitlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolved entitlements across instances. Failures degrade
// to a cache miss; the resolver recomputes from storage.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns a redis-backed entitlement cache.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client, prefix: "entitlements:"}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]EffectiveEntitlement, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var ents []EffectiveEntitlement
	if err := json.Unmarshal(raw, &ents); err != nil {
		return nil, false
	}
	return ents, true
}

func (c *redisCache) Set(ctx context.Context, key string, ents []EffectiveEntitlement, ttl time.Duration) {
	raw, err := json.Marshal(ents)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.prefix+key).Err()
}
