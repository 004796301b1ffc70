package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-digest/internal/app"
	"news-digest/internal/news"
	"news-digest/internal/queue"
)

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Pipeline failures are logged only; the exit status stays zero.
	if err := run(ctx, deps, os.Stdout); err != nil {
		deps.Log.Error("digest run failed", "err", err)
	}
}

// run fetches, summarizes and prints one digest to out.
func run(ctx context.Context, deps app.Deps, out io.Writer) error {
	articles, err := deps.Fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Fprintln(out, "No articles found related to AI or LLM.")
		return nil
	}

	fmt.Fprintf(out, "Fetched %d articles. Summarizing...\n", len(articles))

	summarized := deps.Summarizer.Summarize(ctx, articles)
	for _, a := range summarized {
		printArticle(out, a)
	}
	deps.Log.Info("digest complete", "fetched", len(articles), "summarized", len(summarized))

	publish(ctx, deps, summarized)
	return nil
}

func printArticle(out io.Writer, a news.SummarizedArticle) {
	fmt.Fprintf(out, "\nTitle: %s\nURL: %s\nSummary: %s\n", a.Title, a.URL, a.Summary)
}

// publish offers every result to the configured publisher. Failures are logged.
func publish(ctx context.Context, deps app.Deps, articles []news.SummarizedArticle) {
	if deps.Publisher == nil {
		return
	}
	for _, a := range articles {
		if err := queue.PublishWithRetry(ctx, deps.Publisher, a, publishAttempts, publishBackoff); err != nil {
			deps.Log.Error("failed to publish article", "url", a.URL, "err", err)
		}
	}
}
