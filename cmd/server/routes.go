package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	// Probes and telemetry are unauthenticated
	app.Get("/healthz", deps.HealthHandler.Healthz)
	app.Get("/readyz", deps.HealthHandler.Readyz)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := deps.AuthMiddleware.Handler()

	ingest := app.Group("/v1/l", auth)
	ingest.Post("/batch", deps.IngestionHandler.PostBatch)

	public := app.Group("/api/public", auth)
	public.Get("/projects", deps.ProjectsHandler.List)
	public.Post("/otel/v1/traces", deps.OtelHandler.PostTraces)
	public.Get("/metrics/daily", deps.MetricsHandler.Daily)
	public.Get("/traces", deps.TracesHandler.List)
	public.Get("/traces/:traceId", deps.TracesHandler.Get)
}
