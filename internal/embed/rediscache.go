package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache is a Redis-backed embedding cache, an alternative to FileCache
// for multi-worker deployments that need a shared cache.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache connects to addr and pings it before returning. Returns nil
// (no error) when addr is empty, so callers can unconditionally wire this
// into New without a separate enabled flag check.
func NewRedisCache(addr string, ttl time.Duration) (*RedisCache, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("embed: redis cache ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) key(cacheKey string) string {
	return "embedding:" + cacheKey
}

// Get returns the cached embedding, or false if missing.
func (c *RedisCache) Get(ctx context.Context, cacheKey string) ([]float32, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, c.key(cacheKey)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", cacheKey).Msg("embed_rediscache_get_error")
		}
		return nil, false
	}
	var embedding []float32
	if err := json.Unmarshal([]byte(val), &embedding); err != nil {
		return nil, false
	}
	return embedding, true
}

// Set stores embedding under cacheKey with the cache's configured TTL.
func (c *RedisCache) Set(ctx context.Context, cacheKey string, embedding []float32) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(cacheKey), data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", cacheKey).Msg("embed_rediscache_set_error")
	}
}
