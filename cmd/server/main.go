package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/xtrace/xtrace/internal/config"
	"github.com/xtrace/xtrace/internal/dto"
	"github.com/xtrace/xtrace/internal/middleware"
	"github.com/xtrace/xtrace/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	deps, err := initDependencies(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               "xtrace",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          errorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger.Log, middleware.HealthSkipper))
	app.Use(middleware.Recover(logger.Log))
	app.Use(middleware.Metrics())

	registerRoutes(app, deps)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.BindAddr))
		if err := app.Listen(cfg.Server.BindAddr); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	// Stops accepting batches and drains the ingest queue before the pool
	// goes away.
	deps.Close()

	logger.Info("server stopped")
}

// errorHandler renders errors that escape the handlers, such as routing
// failures, in the shared message envelope.
func errorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Error"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request error",
				zap.Int("status", code),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(dto.MessageResponse{Message: message})
	}
}
