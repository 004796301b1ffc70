package news

import (
	"context"
	"errors"
)

// ErrFetch wraps every failure of a search call.
var ErrFetch = errors.New("failed to fetch articles")

// Source identifies the outlet that published an article.
type Source struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// Article is a news item as returned by the search API.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// SummarizedArticle is an article reduced to its title, url and a generated summary.
type SummarizedArticle struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Fetcher returns the articles relevant to the digest.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Article, error)
}
