package httputil

import (
	"log/slog"
	"net/http"
	"time"
)

// NewClient returns an HTTP client whose requests are logged through log.
func NewClient(log *slog.Logger, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: RequestLogger(log, http.DefaultTransport),
	}
}

// RequestLogger wraps next so every outbound request is logged with slog.
// The query string is never logged since it may carry an API key.
func RequestLogger(log *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		attrs := []any{
			"method", r.Method,
			"host", r.URL.Host,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Warn("request failed", append(attrs, "err", err)...)
			return nil, err
		}
		log.Debug("request", append(attrs, "status", resp.StatusCode)...)
		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
