package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"news-digest/internal/cache"
	"news-digest/internal/llm"
	"news-digest/internal/news"
)

// ErrSummarize wraps the failure of a single article. It never aborts a batch.
var ErrSummarize = errors.New("failed to summarize article")

const systemPrompt = "You are a helpful assistant."

// Mode selects how a batch is processed.
type Mode string

const (
	// ModeParallel summarizes every article concurrently; output keeps input order.
	ModeParallel Mode = "parallel"
	// ModeSequential summarizes one article at a time and logs progress after each success.
	ModeSequential Mode = "sequential"
)

// Summarizer turns articles into summaries through an LLM.
type Summarizer struct {
	llm         llm.Client
	cache       cache.Cache
	cacheTTL    time.Duration
	log         *slog.Logger
	mode        Mode
	concurrency int
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithCache looks summaries up in c before calling the LLM and stores new ones for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Summarizer) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithMode sets the batch mode.
func WithMode(m Mode) Option {
	return func(s *Summarizer) { s.mode = m }
}

// WithConcurrency caps in-flight requests in parallel mode. Zero means no cap.
func WithConcurrency(n int) Option {
	return func(s *Summarizer) { s.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Summarizer) { s.log = log }
}

// New creates a Summarizer backed by client.
func New(client llm.Client, opts ...Option) *Summarizer {
	s := &Summarizer{
		llm:   client,
		cache: cache.NewNoOpCache(),
		log:   slog.Default(),
		mode:  ModeParallel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt returns the user message sent for a.
func BuildPrompt(a news.Article) string {
	return fmt.Sprintf("Summarize this news article: %s\n\n%s", a.Title, a.Description)
}

// SummarizeOne summarizes a single article. Errors wrap ErrSummarize.
func (s *Summarizer) SummarizeOne(ctx context.Context, a news.Article) (news.SummarizedArticle, error) {
	key := cache.GenerateCacheKey(s.llm.Model(), a.URL)
	if summary, ok, err := s.cache.GetSummary(ctx, key); err != nil {
		s.log.Warn("summary cache lookup failed", "url", a.URL, "err", err)
	} else if ok {
		s.log.Debug("summary cache hit", "url", a.URL)
		return news.SummarizedArticle{Title: a.Title, URL: a.URL, Summary: summary}, nil
	}

	summary, err := s.llm.Complete(ctx, systemPrompt, BuildPrompt(a))
	if err != nil {
		return news.SummarizedArticle{}, fmt.Errorf("%w %q: %w", ErrSummarize, a.Title, err)
	}

	if err := s.cache.SetSummary(ctx, key, summary, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache summary", "url", a.URL, "err", err)
	}
	return news.SummarizedArticle{Title: a.Title, URL: a.URL, Summary: summary}, nil
}

// Summarize processes the batch according to the configured mode and returns
// only the articles that were summarized. Failures are logged and dropped.
func (s *Summarizer) Summarize(ctx context.Context, articles []news.Article) []news.SummarizedArticle {
	if s.mode == ModeSequential {
		return s.sequential(ctx, articles)
	}
	return s.parallel(ctx, articles)
}

func (s *Summarizer) parallel(ctx context.Context, articles []news.Article) []news.SummarizedArticle {
	// One slot per input; each task writes only its own index.
	slots := make([]*news.SummarizedArticle, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, a := range articles {
		if gctx.Err() != nil {
			s.log.Warn("summarization interrupted", "launched", i, "total", len(articles))
			break
		}
		g.Go(func() error {
			res, err := s.SummarizeOne(gctx, a)
			if err != nil {
				s.log.Error("error summarizing article", "title", a.Title, "err", err)
				return nil
			}
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]news.SummarizedArticle, 0, len(articles))
	for _, res := range slots {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out
}

func (s *Summarizer) sequential(ctx context.Context, articles []news.Article) []news.SummarizedArticle {
	out := make([]news.SummarizedArticle, 0, len(articles))
	for i, a := range articles {
		if ctx.Err() != nil {
			s.log.Warn("summarization interrupted", "processed", i, "total", len(articles))
			break
		}
		res, err := s.SummarizeOne(ctx, a)
		if err != nil {
			s.log.Error("error summarizing article", "title", a.Title, "err", err)
			continue
		}
		out = append(out, res)
		s.log.Info("summarized articles so far", "count", len(out), "titles", titles(out))
	}
	return out
}

func titles(articles []news.SummarizedArticle) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}
