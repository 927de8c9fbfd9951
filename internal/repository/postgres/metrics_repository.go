package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/database"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

const dailyMetricsBody = `
, daily AS (
  SELECT
    date_trunc('day', ft."timestamp")::date AS day,
    COUNT(*)::BIGINT AS count_traces,
    COALESCE(SUM(ft.total_cost), 0)::DOUBLE PRECISION AS total_cost
  FROM filtered_traces ft
  GROUP BY 1
)
, daily_obs AS (
  SELECT
    date_trunc('day', ft."timestamp")::date AS day,
    COUNT(o.id)::BIGINT AS count_observations
  FROM filtered_traces ft
  JOIN observations o ON o.trace_id = ft.id
  GROUP BY 1
)
, model_usage AS (
  SELECT
    date_trunc('day', ft."timestamp")::date AS day,
    COALESCE(o.model, 'unknown') AS model,
    COALESCE(SUM(o.prompt_tokens), 0)::BIGINT AS input_usage,
    COALESCE(SUM(o.completion_tokens), 0)::BIGINT AS output_usage,
    COALESCE(SUM(o.total_tokens), 0)::BIGINT AS total_usage,
    COUNT(DISTINCT ft.id)::BIGINT AS count_traces,
    COUNT(o.id)::BIGINT AS count_observations,
    COALESCE(SUM(o.calculated_total_cost), 0)::DOUBLE PRECISION AS total_cost
  FROM filtered_traces ft
  JOIN observations o ON o.trace_id = ft.id
  WHERE o.type = 'GENERATION'
  GROUP BY 1, 2
)
, daily_usage AS (
  SELECT
    mu.day,
    COALESCE(jsonb_agg(
      jsonb_build_object(
        'model', mu.model,
        'inputUsage', mu.input_usage,
        'outputUsage', mu.output_usage,
        'totalUsage', mu.total_usage,
        'countTraces', mu.count_traces,
        'countObservations', mu.count_observations,
        'totalCost', mu.total_cost
      ) ORDER BY mu.total_cost DESC
    ), '[]'::jsonb) AS usage
  FROM model_usage mu
  GROUP BY 1
)
SELECT
  d.day AS day,
  d.count_traces AS count_traces,
  COALESCE(dob.count_observations, 0) AS count_observations,
  d.total_cost AS total_cost,
  COALESCE(du.usage, '[]'::jsonb) AS usage
FROM daily d
LEFT JOIN daily_obs dob ON dob.day = d.day
LEFT JOIN daily_usage du ON du.day = d.day
ORDER BY d.day DESC`

// MetricsRepository computes daily usage rollups
type MetricsRepository struct {
	db *database.PostgresDB
}

// NewMetricsRepository creates a metrics repository
func NewMetricsRepository(db *database.PostgresDB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func dailyFilterClauses(projectID string, filter domain.DailyMetricsFilter) ([]string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	add(`t.project_id = $%d`, projectID)
	add(`t."timestamp" >= $%d`, filter.From)
	add(`t."timestamp" <= $%d`, filter.To)
	if filter.TraceName != nil {
		add("t.name = $%d", *filter.TraceName)
	}
	if filter.UserID != nil {
		add("t.user_id = $%d", *filter.UserID)
	}
	if len(filter.Tags) > 0 {
		add("t.tags @> $%d", filter.Tags)
	}

	return conditions, args
}

// Daily returns one page of per-day trace and generation usage aggregates,
// newest day first, and the total number of matching days.
func (r *MetricsRepository) Daily(ctx context.Context, projectID string, filter domain.DailyMetricsFilter, params pagination.Params) ([]domain.DailyMetricsRow, int64, error) {
	conditions, args := dailyFilterClauses(projectID, filter)
	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
SELECT COUNT(*)::BIGINT FROM (
  SELECT date_trunc('day', t."timestamp")::date AS day
  FROM traces t
  WHERE %s
  GROUP BY 1
) x`, where)
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Internal("failed to count metric days").WithError(err)
	}

	query := fmt.Sprintf("WITH filtered_traces AS (SELECT t.* FROM traces t WHERE %s)%s\nLIMIT $%d OFFSET $%d",
		where, dailyMetricsBody, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to query daily metrics").WithError(err)
	}
	defer rows.Close()

	var out []domain.DailyMetricsRow
	for rows.Next() {
		var row domain.DailyMetricsRow
		if err := rows.Scan(&row.Day, &row.CountTraces, &row.CountObservations, &row.TotalCost, &row.Usage); err != nil {
			return nil, 0, apperrors.Internal("failed to scan daily metrics row").WithError(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal("failed to read daily metrics rows").WithError(err)
	}

	return out, total, nil
}
