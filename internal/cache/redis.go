// Package cache provides an optional Redis-backed cache for the resolve hot
// path. The store remains the source of truth; every operation here is
// best-effort and a cache outage only costs latency.
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements shortener.ResolveCache on a Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis at redisURL (redis:// URL or host:port)
// and verifies the connection with a ping.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Not a URL; try as a plain host:port address.
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func key(slug string) string { return "link:" + slug }

// GetTarget returns the cached target URL for slug, if present.
func (c *RedisCache) GetTarget(ctx context.Context, slug string) (string, bool) {
	target, err := c.client.Get(ctx, key(slug)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("cache get %q: %v", slug, err)
		return "", false
	}
	return target, true
}

// SetTarget caches the target URL for slug. The caller caps ttl at the
// record's remaining lifetime so a cached entry can never outlive expiry.
func (c *RedisCache) SetTarget(ctx context.Context, slug, target string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, key(slug), target, ttl).Err(); err != nil {
		log.Printf("cache set %q: %v", slug, err)
	}
}

// DeleteTarget evicts slug, used when a link is deleted by its holder.
func (c *RedisCache) DeleteTarget(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, key(slug)).Err(); err != nil {
		log.Printf("cache delete %q: %v", slug, err)
	}
}

// Close releases the underlying client.
func (c *RedisCache) Close() error { return c.client.Close() }
