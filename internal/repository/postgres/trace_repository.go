package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/database"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

// TraceRepository serves the trace read queries
type TraceRepository struct {
	db *database.PostgresDB
}

// NewTraceRepository creates a trace repository
func NewTraceRepository(db *database.PostgresDB) *TraceRepository {
	return &TraceRepository{db: db}
}

// traceFilterClauses renders the filter into WHERE conditions with numbered
// placeholders continuing after the already collected args.
func traceFilterClauses(filter domain.TraceListFilter, conditions []string, args []interface{}) ([]string, []interface{}) {
	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.UserID != nil {
		add("t.user_id = $%d", *filter.UserID)
	}
	if filter.Name != nil {
		add("t.name = $%d", *filter.Name)
	}
	if filter.SessionID != nil {
		add("t.session_id = $%d", *filter.SessionID)
	}
	if filter.FromTimestamp != nil {
		add("t.timestamp >= $%d", *filter.FromTimestamp)
	}
	if filter.ToTimestamp != nil {
		add("t.timestamp <= $%d", *filter.ToTimestamp)
	}
	if len(filter.Tags) > 0 {
		add("t.tags @> $%d", filter.Tags)
	}
	if filter.Version != nil {
		add("t.version = $%d", *filter.Version)
	}
	if filter.Release != nil {
		add("t.release = $%d", *filter.Release)
	}
	if len(filter.Environment) > 0 {
		add("t.environment = ANY($%d)", filter.Environment)
	}

	return conditions, args
}

// List returns one page of the trace listing and the total match count.
// Each row aggregates the ids of its observations.
func (r *TraceRepository) List(ctx context.Context, projectID string, filter domain.TraceListFilter, order domain.OrderBy, params pagination.Params) ([]domain.TraceListRow, int64, error) {
	conditions := []string{"t.project_id = $1"}
	args := []interface{}{projectID}
	conditions, args = traceFilterClauses(filter, conditions, args)
	where := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*)::BIGINT FROM traces t WHERE " + where
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Internal("failed to count traces").WithError(err)
	}

	direction := "ASC"
	if order.Desc {
		direction = "DESC"
	}

	listQuery := fmt.Sprintf(`
SELECT
  t.id,
  t.project_id,
  t.timestamp,
  t.name,
  t.input,
  t.output,
  t.session_id,
  t.release,
  t.version,
  t.user_id,
  t.metadata,
  t.tags,
  t.public,
  t.environment,
  t.latency,
  t.total_cost,
  COALESCE(array_agg(o.id) FILTER (WHERE o.id IS NOT NULL), '{}') AS observations
FROM traces t
LEFT JOIN observations o ON o.trace_id = t.id
WHERE %s
GROUP BY t.id
ORDER BY %s %s
LIMIT $%d OFFSET $%d`, where, order.Column, direction, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := r.db.Pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list traces").WithError(err)
	}
	defer rows.Close()

	var out []domain.TraceListRow
	for rows.Next() {
		var row domain.TraceListRow
		if err := rows.Scan(
			&row.ID,
			&row.ProjectID,
			&row.Timestamp,
			&row.Name,
			&row.Input,
			&row.Output,
			&row.SessionID,
			&row.Release,
			&row.Version,
			&row.UserID,
			&row.Metadata,
			&row.Tags,
			&row.Public,
			&row.Environment,
			&row.Latency,
			&row.TotalCost,
			&row.Observations,
		); err != nil {
			return nil, 0, apperrors.Internal("failed to scan trace row").WithError(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal("failed to read trace rows").WithError(err)
	}

	return out, total, nil
}

// GetByID fetches a single trace
func (r *TraceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trace, error) {
	query := `
SELECT
  id,
  timestamp,
  name,
  input,
  output,
  session_id,
  release,
  version,
  user_id,
  metadata,
  tags,
  public,
  environment,
  latency,
  total_cost,
  external_id,
  bookmarked,
  project_id,
  created_at,
  updated_at
FROM traces
WHERE id = $1`

	var t domain.Trace
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Timestamp,
		&t.Name,
		&t.Input,
		&t.Output,
		&t.SessionID,
		&t.Release,
		&t.Version,
		&t.UserID,
		&t.Metadata,
		&t.Tags,
		&t.Public,
		&t.Environment,
		&t.Latency,
		&t.TotalCost,
		&t.ExternalID,
		&t.Bookmarked,
		&t.ProjectID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("trace")
		}
		return nil, apperrors.Internal("failed to get trace").WithError(err)
	}

	return &t, nil
}

// ListObservations returns the observations of a trace ordered by start time,
// rows without one last, ties broken by creation time.
func (r *TraceRepository) ListObservations(ctx context.Context, traceID uuid.UUID) ([]domain.Observation, error) {
	query := `
SELECT
  id,
  trace_id,
  type,
  name,
  start_time,
  end_time,
  completion_start_time,
  model,
  model_parameters,
  input,
  output,
  usage,
  level,
  status_message,
  parent_observation_id,
  prompt_id,
  prompt_name,
  prompt_version,
  model_id,
  input_price,
  output_price,
  total_price,
  calculated_input_cost,
  calculated_output_cost,
  calculated_total_cost,
  latency,
  time_to_first_token,
  completion_tokens,
  prompt_tokens,
  total_tokens,
  unit,
  metadata,
  environment,
  project_id,
  created_at,
  updated_at
FROM observations
WHERE trace_id = $1
ORDER BY start_time NULLS LAST, created_at`

	rows, err := r.db.Pool.Query(ctx, query, traceID)
	if err != nil {
		return nil, apperrors.Internal("failed to list observations").WithError(err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(
			&o.ID,
			&o.TraceID,
			&o.Type,
			&o.Name,
			&o.StartTime,
			&o.EndTime,
			&o.CompletionStartTime,
			&o.Model,
			&o.ModelParameters,
			&o.Input,
			&o.Output,
			&o.Usage,
			&o.Level,
			&o.StatusMessage,
			&o.ParentObservationID,
			&o.PromptID,
			&o.PromptName,
			&o.PromptVersion,
			&o.ModelID,
			&o.InputPrice,
			&o.OutputPrice,
			&o.TotalPrice,
			&o.CalculatedInputCost,
			&o.CalculatedOutputCost,
			&o.CalculatedTotalCost,
			&o.Latency,
			&o.TimeToFirstToken,
			&o.CompletionTokens,
			&o.PromptTokens,
			&o.TotalTokens,
			&o.Unit,
			&o.Metadata,
			&o.Environment,
			&o.ProjectID,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, apperrors.Internal("failed to scan observation row").WithError(err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to read observation rows").WithError(err)
	}

	return out, nil
}
