package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"news-digest/internal/retry"
)

const (
	defaultBaseURL   = "https://newsapi.org/v2/everything"
	defaultQuery     = `LLM AI "Large Language Models"`
	defaultSortBy    = "popularity"
	defaultRetryBase = 500 * time.Millisecond
	maxErrorBody     = 4 << 10
)

// DefaultPattern matches titles about AI and large language models.
var DefaultPattern = regexp.MustCompile(`(?i)AI|LLM|Large Language Model|Artificial Intelligence`)

// StatusError reports a non-2xx answer from the search API.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d (%s: %s)", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether the request is worth repeating.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type searchResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

// Client queries the NewsAPI "everything" endpoint and keeps relevant titles.
type Client struct {
	httpClient  *http.Client
	log         *slog.Logger
	validate    *validator.Validate
	apiKey      string
	baseURL     string
	query       string
	sortBy      string
	language    string
	pageSize    int
	pattern     *regexp.Regexp
	maxAttempts int
	retryBase   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithQuery overrides the search query and sort order.
func WithQuery(query, sortBy string) Option {
	return func(c *Client) {
		if query != "" {
			c.query = query
		}
		if sortBy != "" {
			c.sortBy = sortBy
		}
	}
}

// WithPageSize sets pageSize on the request. Zero leaves it to the API.
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithLanguage restricts results to one language code.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithPattern replaces the title filter.
func WithPattern(p *regexp.Regexp) Option {
	return func(c *Client) { c.pattern = p }
}

// WithRetry sets how many attempts a fetch makes and the first backoff delay.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.retryBase = base
	}
}

// NewClient creates a search client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		log:         slog.Default(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		query:       defaultQuery,
		sortBy:      defaultSortBy,
		pattern:     DefaultPattern,
		maxAttempts: 1,
		retryBase:   defaultRetryBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompilePattern builds a case-insensitive title filter from expr.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + expr)
}

// Fetch runs the search and returns the valid articles whose title matches
// the pattern, in the order the API returned them. A response without
// articles yields an empty slice and no error.
func (c *Client) Fetch(ctx context.Context) ([]Article, error) {
	var resp searchResponse
	err := retry.Do(ctx, c.maxAttempts, c.retryBase, func(ctx context.Context) error {
		var err error
		resp, err = c.search(ctx)
		if err != nil {
			c.log.Warn("news search attempt failed", "err", err)
		}
		return err
	})
	if err != nil {
		c.log.Error("error fetching news articles", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	articles := c.filter(resp.Articles)
	c.log.Info("fetched articles", "total", len(resp.Articles), "relevant", len(articles))
	return articles, nil
}

func (c *Client) search(ctx context.Context) (searchResponse, error) {
	endpoint, err := c.searchURL()
	if err != nil {
		return searchResponse{}, retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return searchResponse{}, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("search request: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := readStatusError(resp)
		if statusErr.Temporary() {
			return searchResponse{}, statusErr
		}
		return searchResponse{}, retry.Permanent(statusErr)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return searchResponse{}, retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if body.Status == "error" {
		return searchResponse{}, retry.Permanent(&StatusError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Message})
	}
	return body, nil
}

func (c *Client) searchURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", c.query)
	q.Set("sortBy", c.sortBy)
	q.Set("apiKey", c.apiKey)
	if c.pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	if c.language != "" {
		q.Set("language", c.language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// filter drops records that fail validation, then keeps matching titles.
func (c *Client) filter(in []Article) []Article {
	out := make([]Article, 0, len(in))
	for i, a := range in {
		if err := c.validate.Struct(a); err != nil {
			c.log.Warn("skipping invalid article", "index", i, "err", err)
			continue
		}
		if c.pattern.MatchString(a.Title) {
			out = append(out, a)
		}
	}
	return out
}

func readStatusError(resp *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return statusErr
	}
	var body searchResponse
	if json.Unmarshal(data, &body) == nil {
		statusErr.Code = body.Code
		statusErr.Message = body.Message
	}
	return statusErr
}

// redactURLError strips the query string, which carries the api key, from
// the URL embedded in transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		u.RawQuery = ""
		urlErr.URL = u.String()
	} else {
		urlErr.URL = "<redacted>"
	}
	return err
}
