package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when no cache backend is configured: every lookup is a miss.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetSummary always misses
func (c *NoOpCache) GetSummary(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

// SetSummary does nothing and always succeeds
func (c *NoOpCache) SetSummary(ctx context.Context, key, summary string, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
