package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	ModeParallel   = "parallel"
	ModeSequential = "sequential"
)

// Config holds runtime configuration for a single digest run.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// News search
	NewsAPIKey      string `env:"NEWS_API_KEY"`
	NewsAPIURL      string `env:"NEWS_API_URL" envDefault:"https://newsapi.org/v2/everything"`
	NewsQuery       string `env:"NEWS_QUERY" envDefault:"LLM AI \"Large Language Models\""`
	NewsSortBy      string `env:"NEWS_SORT_BY" envDefault:"popularity"`
	NewsPageSize    int    `env:"NEWS_PAGE_SIZE" envDefault:"0"` // omitted from the request when 0
	NewsLanguage    string `env:"NEWS_LANGUAGE"`
	NewsMaxAttempts int    `env:"NEWS_MAX_ATTEMPTS" envDefault:"3"`
	KeywordPattern  string `env:"KEYWORD_PATTERN" envDefault:"AI|LLM|Large Language Model|Artificial Intelligence"`

	// LLM
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	LLMModel      string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	// Summarizer
	SummarizeMode        string        `env:"SUMMARIZE_MODE" envDefault:"parallel"` // "parallel" or "sequential"
	SummarizeConcurrency int           `env:"SUMMARIZE_CONCURRENCY" envDefault:"0"` // 0 means one goroutine per article
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Cache
	CacheProvider string        `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	// Publisher
	QueueProvider  string `env:"QUEUE_PROVIDER" envDefault:"none"` // "none" or "nats"
	QueueURL       string `env:"QUEUE_URL"`
	PublishSubject string `env:"PUBLISH_SUBJECT" envDefault:"digest.articles"`
}

// Load reads configuration from environment variables with defaults.
// A value that does not parse for its field is an error.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the values a run cannot start without.
func (c Config) Validate() error {
	if c.NewsAPIKey == "" {
		return fmt.Errorf("NEWS_API_KEY is required")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if _, err := regexp.Compile(c.KeywordPattern); err != nil {
		return fmt.Errorf("invalid KEYWORD_PATTERN: %w", err)
	}
	switch c.SummarizeMode {
	case ModeParallel, ModeSequential:
	default:
		return fmt.Errorf("invalid SUMMARIZE_MODE: %s (valid options: parallel, sequential)", c.SummarizeMode)
	}
	if c.SummarizeConcurrency < 0 {
		return fmt.Errorf("SUMMARIZE_CONCURRENCY cannot be negative")
	}
	if c.NewsMaxAttempts <= 0 {
		return fmt.Errorf("NEWS_MAX_ATTEMPTS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}
