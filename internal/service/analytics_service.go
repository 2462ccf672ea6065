package service

import (
	"context"
	"time"

	"comics-store/internal/model"
	"comics-store/internal/repository"

	"github.com/rs/zerolog"
)

// analyticsService implements AnalyticsService.
type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	visitorRepo   repository.VisitorRepository
	logger        zerolog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	visitorRepo repository.VisitorRepository,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		visitorRepo:   visitorRepo,
		logger:        logger.With().Str("service", "analytics").Logger(),
	}
}

// Stats reports totals over paid orders since the cutoff (nil = all time).
func (s *analyticsService) Stats(ctx context.Context, since *time.Time) (*model.SalesStats, error) {
	return s.analyticsRepo.SalesStats(ctx, since)
}

// StatusSummary counts orders per status since the cutoff.
func (s *analyticsService) StatusSummary(ctx context.Context, since *time.Time) (map[model.OrderStatus]int, error) {
	return s.analyticsRepo.StatusSummary(ctx, since)
}

// Visitors reports trailing-day and trailing-month traffic.
func (s *analyticsService) Visitors(ctx context.Context) (*model.VisitorCounts, error) {
	now := time.Now().UTC()

	daily, err := s.visitorRepo.CountSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	monthly, err := s.visitorRepo.CountSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	return &model.VisitorCounts{Daily: daily, Monthly: monthly}, nil
}
