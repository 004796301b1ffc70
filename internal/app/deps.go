package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"news-digest/internal/cache"
	"news-digest/internal/config"
	"news-digest/internal/httputil"
	"news-digest/internal/llm"
	"news-digest/internal/logger"
	"news-digest/internal/news"
	"news-digest/internal/queue"
	"news-digest/internal/summarizer"
)

const retryBase = 500 * time.Millisecond

// Deps bundles the runtime dependencies of one digest run.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Fetcher    news.Fetcher
	Summarizer *summarizer.Summarizer
	Cache      cache.Cache
	Publisher  queue.Publisher
}

// Close releases the optional backends.
func (d Deps) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Log.Warn("failed to close publisher", "err", err)
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("failed to close cache", "err", err)
		}
	}
}

// Build loads the env file, config, and shared components.
func Build() (Deps, error) {
	if err := loadEnvFile(); err != nil {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return Deps{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Deps{}, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel).With("run_id", uuid.NewString())
	return BuildWith(cfg, log)
}

// BuildWith wires components from an already loaded configuration.
func BuildWith(cfg config.Config, log *slog.Logger) (Deps, error) {
	httpClient := httputil.NewClient(log, cfg.RequestTimeout)

	fetcher, err := buildFetcher(cfg, log, httpClient)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize news client: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	pub, err := buildPublisher(cfg, log)
	if err != nil {
		_ = c.Close()
		return Deps{}, fmt.Errorf("failed to initialize publisher: %w", err)
	}

	sum := summarizer.New(llmClient,
		summarizer.WithMode(summarizer.Mode(cfg.SummarizeMode)),
		summarizer.WithConcurrency(cfg.SummarizeConcurrency),
		summarizer.WithCache(c, cfg.CacheTTL),
		summarizer.WithLogger(log),
	)
	return Deps{
		Config:     cfg,
		Log:        log,
		Fetcher:    fetcher,
		Summarizer: sum,
		Cache:      c,
		Publisher:  pub,
	}, nil
}

// loadEnvFile reads ENV_FILE (default .env). A missing file is not an error.
func loadEnvFile() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func buildFetcher(cfg config.Config, log *slog.Logger, hc *http.Client) (news.Fetcher, error) {
	pattern, err := news.CompilePattern(cfg.KeywordPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid KEYWORD_PATTERN: %w", err)
	}
	client, err := news.NewClient(cfg.NewsAPIKey,
		news.WithBaseURL(cfg.NewsAPIURL),
		news.WithHTTPClient(hc),
		news.WithLogger(log),
		news.WithQuery(cfg.NewsQuery, cfg.NewsSortBy),
		news.WithPageSize(cfg.NewsPageSize),
		news.WithLanguage(cfg.NewsLanguage),
		news.WithPattern(pattern),
		news.WithRetry(cfg.NewsMaxAttempts, retryBase),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(httputil.NewClient(log, cfg.RequestTimeout)),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel), cfg.RequestTimeout, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
	return client, nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "", "none":
		return cache.NewNoOpCache(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis summary cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		return c, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: none, redis)", cfg.CacheProvider)
	}
}

func buildPublisher(cfg config.Config, log *slog.Logger) (queue.Publisher, error) {
	switch cfg.QueueProvider {
	case "", "none":
		return queue.NoOpPublisher{}, nil
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("publishing summaries to NATS", "subject", cfg.PublishSubject)
		return queue.NewNATS(log, nc, cfg.PublishSubject), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: none, nats)", cfg.QueueProvider)
	}
}
