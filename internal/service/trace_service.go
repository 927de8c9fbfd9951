package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

// TraceRepository is the read side of trace storage
type TraceRepository interface {
	List(ctx context.Context, projectID string, filter domain.TraceListFilter, order domain.OrderBy, params pagination.Params) ([]domain.TraceListRow, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trace, error)
	ListObservations(ctx context.Context, traceID uuid.UUID) ([]domain.Observation, error)
}

// TraceService serves the trace read APIs scoped to the default project
type TraceService struct {
	repo      TraceRepository
	projectID string
}

// NewTraceService creates a trace query service
func NewTraceService(repo TraceRepository, projectID string) *TraceService {
	return &TraceService{repo: repo, projectID: projectID}
}

// List returns one page of traces matching the filter plus the total count
func (s *TraceService) List(ctx context.Context, filter domain.TraceListFilter, order domain.OrderBy, params pagination.Params) ([]domain.TraceListRow, int64, error) {
	return s.repo.List(ctx, s.projectID, filter, order, params)
}

// Get returns a trace and its observations ordered by start time
func (s *TraceService) Get(ctx context.Context, id uuid.UUID) (*domain.Trace, []domain.Observation, error) {
	trace, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	observations, err := s.repo.ListObservations(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return trace, observations, nil
}
