package main

import (
	"context"
	"fmt"

	"github.com/xtrace/xtrace/internal/config"
	"github.com/xtrace/xtrace/internal/handler"
	"github.com/xtrace/xtrace/internal/middleware"
	"github.com/xtrace/xtrace/internal/pkg/database"
	pgrepo "github.com/xtrace/xtrace/internal/repository/postgres"
	"github.com/xtrace/xtrace/internal/service"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config

	Postgres *database.PostgresDB

	// Repositories
	IngestRepo  *pgrepo.IngestRepository
	TraceRepo   *pgrepo.TraceRepository
	MetricsRepo *pgrepo.MetricsRepository

	// Services
	IngestionService *service.IngestionService
	TraceService     *service.TraceService
	MetricsService   *service.MetricsService
	OtelMapper       *service.OtelMapper

	// Handlers
	HealthHandler    *handler.HealthHandler
	ProjectsHandler  *handler.ProjectsHandler
	IngestionHandler *handler.IngestionHandler
	OtelHandler      *handler.OtelHandler
	TracesHandler    *handler.TracesHandler
	MetricsHandler   *handler.MetricsHandler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
}

// initDependencies runs schema migrations and wires the full object graph
func initDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	if err := database.Migrate(cfg.Postgres.URL); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pg, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	deps := &Dependencies{
		Config:   cfg,
		Postgres: pg,
	}

	deps.IngestRepo = pgrepo.NewIngestRepository(pg, cfg.DefaultProjectID)
	deps.TraceRepo = pgrepo.NewTraceRepository(pg)
	deps.MetricsRepo = pgrepo.NewMetricsRepository(pg)

	deps.IngestionService = service.NewIngestionService(deps.IngestRepo, cfg.Ingest)
	deps.TraceService = service.NewTraceService(deps.TraceRepo, cfg.DefaultProjectID)
	deps.MetricsService = service.NewMetricsService(deps.MetricsRepo, cfg.DefaultProjectID)
	deps.OtelMapper = service.NewOtelMapper(cfg.DefaultProjectID)

	deps.HealthHandler = handler.NewHealthHandler(pg)
	deps.ProjectsHandler = handler.NewProjectsHandler(cfg.DefaultProjectID)
	deps.IngestionHandler = handler.NewIngestionHandler(deps.IngestionService)
	deps.OtelHandler = handler.NewOtelHandler(deps.OtelMapper, deps.IngestionService)
	deps.TracesHandler = handler.NewTracesHandler(deps.TraceService)
	deps.MetricsHandler = handler.NewMetricsHandler(deps.MetricsService)

	deps.AuthMiddleware = middleware.NewAuthMiddleware(cfg.Auth)

	return deps, nil
}

// Close drains the ingest queue, then closes the connection pool
func (d *Dependencies) Close() {
	if d.IngestionService != nil {
		d.IngestionService.Close()
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
}
