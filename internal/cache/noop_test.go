package cache

import (
	"context"
	"testing"
	"time"
)

// TestNoOpCache verifies that NoOpCache never stores anything
func TestNoOpCache(t *testing.T) {
	cache := NewNoOpCache()
	ctx := context.Background()

	summary, ok, err := cache.GetSummary(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if ok || summary != "" {
		t.Errorf("Expected cache miss, got %q", summary)
	}

	if err := cache.SetSummary(ctx, "test-key", "a summary", time.Hour); err != nil {
		t.Errorf("Expected no error on SetSummary, got %v", err)
	}

	// Still a miss: nothing was actually cached
	if _, ok, _ := cache.GetSummary(ctx, "test-key"); ok {
		t.Error("Expected miss after SetSummary on no-op cache")
	}

	if err := cache.Close(); err != nil {
		t.Errorf("Expected no error on Close, got %v", err)
	}
}

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("gpt-4o-mini", "https://example.com/a")
	if len(a) != 64 {
		t.Errorf("expected hex sha256 key, got %q", a)
	}
	if a != GenerateCacheKey("gpt-4o-mini", "https://example.com/a") {
		t.Error("expected key to be deterministic")
	}
	if a == GenerateCacheKey("gpt-4o", "https://example.com/a") {
		t.Error("expected model to change the key")
	}
	if a == GenerateCacheKey("gpt-4o-mini", "https://example.com/b") {
		t.Error("expected url to change the key")
	}
}
