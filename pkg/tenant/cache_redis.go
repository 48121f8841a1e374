package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares tenant lookups across instances. Useful when several
// API replicas would otherwise each hit the registry for the same burst of
// first requests after a deploy.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed tenant cache. Keys are namespaced
// under "tenant:".
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client, prefix: "tenant:"}
}

func (c *redisCache) Get(ctx context.Context, database string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+database).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		// A corrupt entry is dropped rather than served.
		_ = c.client.Del(ctx, c.prefix+database).Err()
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, database string, t *Tenant, ttl time.Duration) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+database, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, database string) {
	_ = c.client.Del(ctx, c.prefix+database).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
