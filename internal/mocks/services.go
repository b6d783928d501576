package mocks

import (
	"context"

	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/service"
)

// MockMostReadService is a mock implementation of MostReadService
type MockMostReadService struct {
	BuildFunc func(ctx context.Context, req models.MostReadRequest) (*models.FeedResult, error)
	Requests  []models.MostReadRequest
}

// Verify interface compliance
var _ service.MostReadService = (*MockMostReadService)(nil)

func NewMockMostReadService() *MockMostReadService {
	return &MockMostReadService{}
}

func (m *MockMostReadService) Build(ctx context.Context, req models.MostReadRequest) (*models.FeedResult, error) {
	m.Requests = append(m.Requests, req)
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, req)
	}
	return &models.FeedResult{}, nil
}

// MockFeedService is a mock implementation of FeedService
type MockFeedService struct {
	AggregatedFunc func(ctx context.Context, req models.FeedRequest) (*models.AggregatedResult, error)
	Requests       []models.FeedRequest
}

// Verify interface compliance
var _ service.FeedService = (*MockFeedService)(nil)

func NewMockFeedService() *MockFeedService {
	return &MockFeedService{}
}

func (m *MockFeedService) Aggregated(ctx context.Context, req models.FeedRequest) (*models.AggregatedResult, error) {
	m.Requests = append(m.Requests, req)
	if m.AggregatedFunc != nil {
		return m.AggregatedFunc(ctx, req)
	}
	return &models.AggregatedResult{Payload: &models.AggregatedFeed{}}, nil
}
