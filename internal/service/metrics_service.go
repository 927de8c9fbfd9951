package service

import (
	"context"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

// MetricsRepository is the read side of the usage rollup
type MetricsRepository interface {
	Daily(ctx context.Context, projectID string, filter domain.DailyMetricsFilter, params pagination.Params) ([]domain.DailyMetricsRow, int64, error)
}

// MetricsService serves the daily rollup scoped to the default project
type MetricsService struct {
	repo      MetricsRepository
	projectID string
}

// NewMetricsService creates a metrics query service
func NewMetricsService(repo MetricsRepository, projectID string) *MetricsService {
	return &MetricsService{repo: repo, projectID: projectID}
}

// Daily returns one page of the per-day usage rollup plus the total day count
func (s *MetricsService) Daily(ctx context.Context, filter domain.DailyMetricsFilter, params pagination.Params) ([]domain.DailyMetricsRow, int64, error) {
	return s.repo.Daily(ctx, s.projectID, filter, params)
}
