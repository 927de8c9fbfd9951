package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xtrace/xtrace/internal/dto"
)

// ProjectsHandler serves the synthetic project listing that SDK clients use
// as an auth check.
type ProjectsHandler struct {
	projectID string
}

// NewProjectsHandler creates a new projects handler
func NewProjectsHandler(projectID string) *ProjectsHandler {
	return &ProjectsHandler{projectID: projectID}
}

// List handles GET /api/public/projects
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	return c.JSON(dto.NewProjectsResponse(h.projectID, time.Now().UTC()))
}
