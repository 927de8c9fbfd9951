package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xtrace/xtrace/internal/pkg/database"
)

// HealthHandler handles the liveness and readiness probes
type HealthHandler struct {
	db *database.PostgresDB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.PostgresDB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// Readyz handles GET /readyz, verifying database connectivity
func (h *HealthHandler) Readyz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"reason": "postgres unavailable",
		})
	}

	return c.JSON(fiber.Map{"status": "ready"})
}
