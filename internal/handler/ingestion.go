package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/dto"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
)

// BatchEnqueuer hands ingest batches to the background writer
type BatchEnqueuer interface {
	Enqueue(batch domain.BatchIngest) error
}

// IngestionHandler accepts native ingest batches
type IngestionHandler struct {
	ingest BatchEnqueuer
}

// NewIngestionHandler creates a new ingestion handler
func NewIngestionHandler(ingest BatchEnqueuer) *IngestionHandler {
	return &IngestionHandler{ingest: ingest}
}

// PostBatch handles POST /v1/l/batch. The batch is acknowledged as soon as
// it is queued; writes happen asynchronously.
func (h *IngestionHandler) PostBatch(c *fiber.Ctx) error {
	var payload domain.BatchIngest
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return respondError(c, apperrors.BadRequest("invalid json: "+err.Error()))
	}

	if err := h.ingest.Enqueue(payload); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Request Successful."})
}
