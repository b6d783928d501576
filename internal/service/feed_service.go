package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/mostread"
	"github.com/wikifeeds-api/internal/validation"
)

// feedService is the concrete implementation of FeedService
type feedService struct {
	mostRead  MostReadService
	validator *validation.Validator
	log       zerolog.Logger
}

func newFeedService(mostRead MostReadService, validator *validation.Validator, log zerolog.Logger) *feedService {
	if validator == nil {
		validator = validation.NewValidator()
	}
	return &feedService{
		mostRead:  mostRead,
		validator: validator,
		log:       log.With().Str("service", "feed").Logger(),
	}
}

// Aggregated composes the featured feed for a date. The date is validated up
// front; the parts themselves are built best-effort and left out when empty.
func (s *feedService) Aggregated(ctx context.Context, req models.FeedRequest) (*models.AggregatedResult, error) {
	date, err := s.validator.ValidateDate(req.Year, req.Month, req.Day)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mostread.ErrInvalidDate, err)
	}

	result := &models.AggregatedResult{
		Payload: &models.AggregatedFeed{},
		Meta:    models.FeedMeta{Revision: validation.Revision(date)},
	}

	mostRead, err := s.mostRead.Build(ctx, models.MostReadRequest{
		Domain:         req.Domain,
		Year:           req.Year,
		Month:          req.Month,
		Day:            req.Day,
		Aggregated:     true,
		AcceptLanguage: req.AcceptLanguage,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("domain", req.Domain).Msg("Dropping mostread from aggregated feed")
	} else if !mostRead.Empty() {
		result.Payload.MostRead = mostRead.Payload
		result.Meta.Vary = mostRead.Meta.Vary
	}

	return result, nil
}
