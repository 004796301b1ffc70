package news

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithBaseURL(url), WithLogger(discardLogger()), WithRetry(1, time.Millisecond)}
	c, err := NewClient("test-key", append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func article(title string) Article {
	return Article{
		Source:      Source{Name: "Example"},
		Title:       title,
		Description: "desc of " + title,
		URL:         "https://example.com/" + title,
	}
}

func TestFetchSendsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != `LLM AI "Large Language Models"` {
			t.Errorf("unexpected q: %q", got)
		}
		if got := q.Get("sortBy"); got != "popularity" {
			t.Errorf("unexpected sortBy: %q", got)
		}
		if got := q.Get("apiKey"); got != "test-key" {
			t.Errorf("unexpected apiKey: %q", got)
		}
		if q.Has("pageSize") || q.Has("language") {
			t.Errorf("optional params should be omitted: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "articles": []Article{}})
	}))
	defer server.Close()

	articles, err := newTestClient(t, server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, articles)
}

func TestFetchOptionalParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pageSize") != "50" || q.Get("language") != "en" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithPageSize(50), WithLanguage("en"))
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
}

func TestFetchFiltersByTitle(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		want   []string
	}{
		{
			name:   "keeps only matching titles",
			titles: []string{"New AI model released", "Weather forecast for Tuesday"},
			want:   []string{"New AI model released"},
		},
		{
			name:   "case insensitive and order preserved",
			titles: []string{"llm benchmarks", "Sports results", "Artificial intelligence in schools", "large language model costs"},
			want:   []string{"llm benchmarks", "Artificial intelligence in schools", "large language model costs"},
		},
		{
			name:   "none match",
			titles: []string{"Sports results", "Stock market update"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []Article
			for _, title := range tt.titles {
				in = append(in, article(title))
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"status": "ok", "totalResults": len(in), "articles": in})
			}))
			defer server.Close()

			articles, err := newTestClient(t, server.URL).Fetch(context.Background())
			require.NoError(t, err)

			got := make([]string, 0, len(articles))
			for _, a := range articles {
				got = append(got, a.Title)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFetchDecodesArticleFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ok","articles":[{
			"source":{"id":null,"name":"Wired"},
			"author":"Jane",
			"title":"LLM news",
			"description":"d",
			"url":"https://wired.com/a",
			"urlToImage":"https://wired.com/a.png",
			"publishedAt":"2024-05-01T10:00:00Z",
			"content":"c"
		}]}`)
	}))
	defer server.Close()

	articles, err := newTestClient(t, server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	require.Nil(t, a.Source.ID)
	require.Equal(t, "Wired", a.Source.Name)
	require.Equal(t, "Jane", a.Author)
	require.Equal(t, "https://wired.com/a.png", a.URLToImage)
	require.Equal(t, "2024-05-01T10:00:00Z", a.PublishedAt)
}

func TestFetchMissingArticlesField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	articles, err := newTestClient(t, server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, articles)
}

func TestFetchSkipsInvalidRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ok","articles":[
			{"title":"AI without url"},
			{"url":"https://example.com/untitled"},
			{"title":"AI with url","url":"https://example.com/ok"}
		]}`)
	}))
	defer server.Close()

	articles, err := newTestClient(t, server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "AI with url", articles[0].Title)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
		wantCode  string
	}{
		{
			name:      "unauthorized is not retried",
			status:    http.StatusUnauthorized,
			body:      `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`,
			wantCalls: 1,
			wantCode:  "apiKeyInvalid",
		},
		{
			name:      "server error is retried",
			status:    http.StatusServiceUnavailable,
			body:      `oops`,
			wantCalls: 3,
		},
		{
			name:      "malformed body",
			status:    http.StatusOK,
			body:      `{"articles":`,
			wantCalls: 1,
		},
		{
			name:      "error document with 200",
			status:    http.StatusOK,
			body:      `{"status":"error","code":"rateLimited","message":"slow down"}`,
			wantCalls: 1,
			wantCode:  "rateLimited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, WithRetry(3, time.Millisecond))
			articles, err := c.Fetch(context.Background())
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrFetch), "expected ErrFetch, got %v", err)
			require.Nil(t, articles)
			require.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantCode != "" {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				require.Equal(t, tt.wantCode, statusErr.Code)
			}
		})
	}
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "articles": []Article{article("AI wins")}})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithRetry(3, time.Millisecond))
	articles, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, int32(2), calls.Load())
}

func TestFetchNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
}

func TestFetchNetworkFailureHidesAPIKey(t *testing.T) {
	const key = "SUPERSECRETKEY"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var logs bytes.Buffer
	c, err := NewClient(key,
		WithBaseURL(url),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithRetry(2, time.Millisecond),
	)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	require.NotContains(t, err.Error(), key)
	require.NotContains(t, logs.String(), key)
	require.Contains(t, logs.String(), "news search attempt failed")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestCompilePattern(t *testing.T) {
	p, err := CompilePattern("robotics|drones")
	require.NoError(t, err)
	require.True(t, p.MatchString("ROBOTICS today"))
	require.False(t, p.MatchString("AI today"))

	_, err = CompilePattern("(unclosed")
	require.Error(t, err)
}
