package queue

import (
	"context"
	"time"

	"news-digest/internal/news"
	"news-digest/internal/retry"
)

// Publisher hands summarized articles to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, article news.SummarizedArticle) error
	Close() error
}

// PublishWithRetry attempts to publish with retries and exponential backoff.
func PublishWithRetry(ctx context.Context, p Publisher, article news.SummarizedArticle, attempts int, base time.Duration) error {
	return retry.Do(ctx, attempts, base, func(ctx context.Context) error {
		return p.Publish(ctx, article)
	})
}

// NoOpPublisher drops everything. Used when no queue is configured.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(context.Context, news.SummarizedArticle) error { return nil }
func (NoOpPublisher) Close() error                                         { return nil }
