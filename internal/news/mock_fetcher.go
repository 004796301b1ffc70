package news

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of Fetcher using testify/mock.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) ([]Article, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Article), args.Error(1)
}
