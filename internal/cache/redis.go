package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefix for cached summaries
const summaryKeyPrefix = "summary:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client and checks the connection.
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

// GetSummary retrieves a cached summary by key
func (c *RedisCache) GetSummary(ctx context.Context, key string) (string, bool, error) {
	summary, err := c.client.Get(ctx, summaryKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return summary, true, nil
}

// SetSummary stores a summary with TTL
func (c *RedisCache) SetSummary(ctx context.Context, key, summary string, ttl time.Duration) error {
	return c.client.Set(ctx, summaryKeyPrefix+key, summary, ttl).Err()
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
