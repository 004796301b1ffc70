package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores generated summaries between runs.
type Cache interface {
	// GetSummary retrieves a cached summary by key.
	// Returns ok=false on a miss.
	GetSummary(ctx context.Context, key string) (summary string, ok bool, err error)

	// SetSummary stores a summary with TTL
	SetSummary(ctx context.Context, key, summary string, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// GenerateCacheKey derives a stable key for the summary of articleURL by model.
func GenerateCacheKey(model, articleURL string) string {
	sum := sha256.Sum256([]byte(model + "|" + articleURL))
	return hex.EncodeToString(sum[:])
}
