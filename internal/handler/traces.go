package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/dto"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

// TraceQueryService is the read API surface backing the trace endpoints
type TraceQueryService interface {
	List(ctx context.Context, filter domain.TraceListFilter, order domain.OrderBy, params pagination.Params) ([]domain.TraceListRow, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Trace, []domain.Observation, error)
}

// TracesHandler serves the trace read endpoints
type TracesHandler struct {
	traces TraceQueryService
}

// NewTracesHandler creates a new traces handler
func NewTracesHandler(traces TraceQueryService) *TracesHandler {
	return &TracesHandler{traces: traces}
}

// List handles GET /api/public/traces
func (h *TracesHandler) List(c *fiber.Ctx) error {
	params := parsePageParams(c)
	fields := domain.ParseTraceFields(queryString(c, "fields"))

	order, err := domain.ParseOrderBy(c.Query("orderBy"))
	if err != nil {
		return respondError(c, err)
	}

	filter, err := traceListFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	rows, totalItems, err := h.traces.List(c.Context(), filter, order, params)
	if err != nil {
		return respondError(c, err)
	}

	items := make([]dto.TraceListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewTraceListItem(row, fields))
	}

	return c.JSON(dto.Paged[dto.TraceListItem]{
		Data: items,
		Meta: pagination.NewMeta(params, totalItems),
	})
}

// Get handles GET /api/public/traces/:traceId
func (h *TracesHandler) Get(c *fiber.Ctx) error {
	traceID, err := uuid.Parse(c.Params("traceId"))
	if err != nil {
		return respondError(c, apperrors.BadRequest("invalid trace id"))
	}

	trace, observations, err := h.traces.Get(c.Context(), traceID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.NewTraceDetail(*trace, observations))
}

func traceListFilter(c *fiber.Ctx) (domain.TraceListFilter, error) {
	from, err := queryTime(c, "fromTimestamp")
	if err != nil {
		return domain.TraceListFilter{}, err
	}
	to, err := queryTime(c, "toTimestamp")
	if err != nil {
		return domain.TraceListFilter{}, err
	}

	return domain.TraceListFilter{
		UserID:        queryString(c, "userId"),
		Name:          queryString(c, "name"),
		SessionID:     queryString(c, "sessionId"),
		FromTimestamp: from,
		ToTimestamp:   to,
		Tags:          queryStrings(c, "tags"),
		Version:       queryString(c, "version"),
		Release:       queryString(c, "release"),
		Environment:   queryStrings(c, "environment"),
	}, nil
}
