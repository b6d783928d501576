package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wikifeeds-api/internal/config"
	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/mostread"
)

// MostReadService defines the interface for the most-read feed
type MostReadService interface {
	Build(ctx context.Context, req models.MostReadRequest) (*models.FeedResult, error)
}

// FeedService defines the interface for the aggregated featured feed
type FeedService interface {
	Aggregated(ctx context.Context, req models.FeedRequest) (*models.AggregatedResult, error)
}

// Services holds all service interfaces
type Services struct {
	MostRead MostReadService
	Feed     FeedService
}

// NewServices creates all services
func NewServices(deps mostread.Deps, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	mostReadSvc, err := mostread.NewAggregator(deps, cfg.MostRead, log)
	if err != nil {
		return nil, err
	}

	return &Services{
		MostRead: mostReadSvc,
		Feed:     newFeedService(mostReadSvc, deps.Validator, log),
	}, nil
}
