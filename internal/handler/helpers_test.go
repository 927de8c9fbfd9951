package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/logger"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

func init() {
	_ = logger.Init(logger.Config{Level: "error", Format: "console"})
}

// MockEnqueuer mocks the ingest queue
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(batch domain.BatchIngest) error {
	args := m.Called(batch)
	return args.Error(0)
}

// MockTraceService mocks the trace query service
type MockTraceService struct {
	mock.Mock
}

func (m *MockTraceService) List(ctx context.Context, filter domain.TraceListFilter, order domain.OrderBy, params pagination.Params) ([]domain.TraceListRow, int64, error) {
	args := m.Called(ctx, filter, order, params)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.TraceListRow), args.Get(1).(int64), args.Error(2)
}

func (m *MockTraceService) Get(ctx context.Context, id uuid.UUID) (*domain.Trace, []domain.Observation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var observations []domain.Observation
	if args.Get(1) != nil {
		observations = args.Get(1).([]domain.Observation)
	}
	return args.Get(0).(*domain.Trace), observations, args.Error(2)
}

// MockMetricsService mocks the metrics query service
type MockMetricsService struct {
	mock.Mock
}

func (m *MockMetricsService) Daily(ctx context.Context, filter domain.DailyMetricsFilter, params pagination.Params) ([]domain.DailyMetricsRow, int64, error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.DailyMetricsRow), args.Get(1).(int64), args.Error(2)
}

func strPtr(s string) *string { return &s }

func newTestApp(register func(app *fiber.App)) *fiber.App {
	app := fiber.New()
	register(app)
	return app
}
