package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"news-digest/internal/news"
)

const flushTimeout = 5 * time.Second

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NewNATS constructs a publisher writing JSON articles to subject.
func NewNATS(log *slog.Logger, nc *nats.Conn, subject string) Publisher {
	return newNATS(log, nc, subject)
}

func newNATS(log *slog.Logger, nc conn, subject string) *natsPublisher {
	return &natsPublisher{log: log, nc: nc, subject: subject}
}

type natsPublisher struct {
	log     *slog.Logger
	nc      conn
	subject string
}

func (p *natsPublisher) Publish(ctx context.Context, article news.SummarizedArticle) error {
	if p.subject == "" {
		return errors.New("publish subject required")
	}
	body, err := json.Marshal(article)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, body); err != nil {
		return err
	}
	p.log.Debug("published article", "subject", p.subject, "url", article.URL)
	return nil
}

// Close flushes pending messages and drains the connection.
func (p *natsPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := p.nc.FlushWithContext(ctx); err != nil {
		p.log.Warn("failed to flush nats connection", "err", err)
	}
	return p.nc.Drain()
}
