package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/dto"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

// MetricsQueryService is the read API surface backing the metrics endpoints
type MetricsQueryService interface {
	Daily(ctx context.Context, filter domain.DailyMetricsFilter, params pagination.Params) ([]domain.DailyMetricsRow, int64, error)
}

// MetricsHandler serves the usage rollup endpoints
type MetricsHandler struct {
	metrics MetricsQueryService
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(metrics MetricsQueryService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Daily handles GET /api/public/metrics/daily. The window defaults to the
// thirty days ending now.
func (h *MetricsHandler) Daily(c *fiber.Ctx) error {
	params := parsePageParams(c)

	from, err := queryTime(c, "fromTimestamp")
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryTime(c, "toTimestamp")
	if err != nil {
		return respondError(c, err)
	}

	filter := domain.DailyMetricsFilter{
		TraceName: queryString(c, "traceName"),
		UserID:    queryString(c, "userId"),
		Tags:      queryStrings(c, "tags"),
	}
	if to != nil {
		filter.To = *to
	} else {
		filter.To = time.Now().UTC()
	}
	if from != nil {
		filter.From = *from
	} else {
		filter.From = filter.To.AddDate(0, 0, -30)
	}

	rows, totalItems, err := h.metrics.Daily(c.Context(), filter, params)
	if err != nil {
		return respondError(c, err)
	}

	items := make([]dto.DailyMetricsItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewDailyMetricsItem(row))
	}

	return c.JSON(dto.Paged[dto.DailyMetricsItem]{
		Data: items,
		Meta: pagination.NewMeta(params, totalItems),
	})
}
