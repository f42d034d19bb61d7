// Package cache provides an optional read-through cache for content
// documents, keeping public page reads off the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: "content:", ttl: ttl}, nil
}

// NewRedisCacheWithClient creates a cache from an existing Redis client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: "content:", ttl: ttl}
}

func (c *RedisCache) key(kind string) string {
	return c.prefix + kind
}

// GetDocument returns a cached body. Any Redis error counts as a miss; the
// store remains the source of truth.
func (c *RedisCache) GetDocument(ctx context.Context, kind string) (map[string]any, bool) {
	raw, err := c.client.Get(ctx, c.key(kind)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache get %s: %v", kind, err)
		return nil, false
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		log.Printf("cache decode %s: %v", kind, err)
		return nil, false
	}
	return body, true
}

func (c *RedisCache) SetDocument(ctx context.Context, kind string, body map[string]any) {
	raw, err := json.Marshal(body)
	if err != nil {
		log.Printf("cache encode %s: %v", kind, err)
		return
	}
	if err := c.client.Set(ctx, c.key(kind), raw, c.ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", kind, err)
	}
}

func (c *RedisCache) InvalidateDocument(ctx context.Context, kind string) {
	if err := c.client.Del(ctx, c.key(kind)).Err(); err != nil {
		log.Printf("cache invalidate %s: %v", kind, err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
