package queue

import (
	"context"

	"github.com/stretchr/testify/mock"

	"news-digest/internal/news"
)

// MockPublisher is a mock implementation of Publisher using testify/mock.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, article news.SummarizedArticle) error {
	args := m.Called(ctx, article)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
