// Package postgres implements the storage layer on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/database"
)

const traceUpsertQuery = `
INSERT INTO traces (
  id, project_id, environment, timestamp, name, input, output, session_id, release, version, user_id,
  metadata, tags, public, external_id, bookmarked, latency, total_cost, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
  $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW()
)
ON CONFLICT (id) DO UPDATE SET
  project_id = EXCLUDED.project_id,
  environment = EXCLUDED.environment,
  timestamp = EXCLUDED.timestamp,
  name = EXCLUDED.name,
  input = EXCLUDED.input,
  output = EXCLUDED.output,
  session_id = EXCLUDED.session_id,
  release = EXCLUDED.release,
  version = EXCLUDED.version,
  user_id = EXCLUDED.user_id,
  metadata = EXCLUDED.metadata,
  tags = EXCLUDED.tags,
  public = EXCLUDED.public,
  external_id = EXCLUDED.external_id,
  bookmarked = EXCLUDED.bookmarked,
  latency = EXCLUDED.latency,
  total_cost = EXCLUDED.total_cost,
  updated_at = NOW()`

const traceStubQuery = `
INSERT INTO traces (id, project_id, environment, timestamp, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW(), NOW())
ON CONFLICT (id) DO NOTHING`

const observationUpsertQuery = `
INSERT INTO observations (
  id, trace_id, type, name, start_time, end_time, completion_start_time,
  model, model_parameters, input, output, usage, level, status_message,
  parent_observation_id, prompt_id, prompt_name, prompt_version, model_id,
  input_price, output_price, total_price,
  calculated_input_cost, calculated_output_cost, calculated_total_cost,
  latency, time_to_first_token,
  completion_tokens, prompt_tokens, total_tokens, unit,
  metadata, environment, project_id, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7,
  $8, $9, $10, $11, $12, $13, $14,
  $15, $16, $17, $18, $19,
  $20, $21, $22,
  $23, $24, $25,
  $26, $27,
  $28, $29, $30, $31,
  $32, $33, $34, NOW(), NOW()
)
ON CONFLICT (id) DO UPDATE SET
  trace_id = EXCLUDED.trace_id,
  type = EXCLUDED.type,
  name = EXCLUDED.name,
  start_time = EXCLUDED.start_time,
  end_time = EXCLUDED.end_time,
  completion_start_time = EXCLUDED.completion_start_time,
  model = EXCLUDED.model,
  model_parameters = EXCLUDED.model_parameters,
  input = EXCLUDED.input,
  output = EXCLUDED.output,
  usage = EXCLUDED.usage,
  level = EXCLUDED.level,
  status_message = EXCLUDED.status_message,
  parent_observation_id = EXCLUDED.parent_observation_id,
  prompt_id = EXCLUDED.prompt_id,
  prompt_name = EXCLUDED.prompt_name,
  prompt_version = EXCLUDED.prompt_version,
  model_id = EXCLUDED.model_id,
  input_price = EXCLUDED.input_price,
  output_price = EXCLUDED.output_price,
  total_price = EXCLUDED.total_price,
  calculated_input_cost = EXCLUDED.calculated_input_cost,
  calculated_output_cost = EXCLUDED.calculated_output_cost,
  calculated_total_cost = EXCLUDED.calculated_total_cost,
  latency = EXCLUDED.latency,
  time_to_first_token = EXCLUDED.time_to_first_token,
  completion_tokens = EXCLUDED.completion_tokens,
  prompt_tokens = EXCLUDED.prompt_tokens,
  total_tokens = EXCLUDED.total_tokens,
  unit = EXCLUDED.unit,
  metadata = EXCLUDED.metadata,
  environment = EXCLUDED.environment,
  project_id = EXCLUDED.project_id,
  updated_at = NOW()`

// IngestRepository persists ingest batches with idempotent upserts
type IngestRepository struct {
	db               *database.PostgresDB
	defaultProjectID string
}

// NewIngestRepository creates an ingest repository
func NewIngestRepository(db *database.PostgresDB, defaultProjectID string) *IngestRepository {
	return &IngestRepository{db: db, defaultProjectID: defaultProjectID}
}

// WriteBatches writes a window of batches in one transaction, in order
func (r *IngestRepository) WriteBatches(ctx context.Context, batches []domain.BatchIngest) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		for _, batch := range batches {
			if err := r.writeOne(ctx, tx, batch); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *IngestRepository) writeOne(ctx context.Context, tx pgx.Tx, batch domain.BatchIngest) error {
	now := time.Now().UTC()

	if trace := batch.Trace; trace != nil {
		timestamp := now
		if trace.Timestamp != nil {
			timestamp = *trace.Timestamp
		}

		_, err := tx.Exec(ctx, traceUpsertQuery,
			trace.ID,
			orDefault(trace.ProjectID, r.defaultProjectID),
			orDefault(trace.Environment, "default"),
			timestamp,
			trace.Name,
			jsonArg(trace.Input),
			jsonArg(trace.Output),
			trace.SessionID,
			trace.Release,
			trace.Version,
			trace.UserID,
			jsonArg(trace.Metadata),
			orEmptySlice(trace.Tags),
			trace.Public != nil && *trace.Public,
			trace.ExternalID,
			trace.Bookmarked != nil && *trace.Bookmarked,
			trace.Latency,
			trace.TotalCost,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert trace %s: %w", trace.ID, err)
		}
	}

	for _, obs := range batch.Observations {
		projectID := orDefault(obs.ProjectID, r.defaultProjectID)
		environment := orDefault(obs.Environment, "default")

		// The parent trace may not have been ingested yet; a stub row keeps
		// the observation queryable and is replaced by a later trace upsert.
		if _, err := tx.Exec(ctx, traceStubQuery, obs.TraceID, projectID, environment); err != nil {
			return fmt.Errorf("failed to insert trace stub %s: %w", obs.TraceID, err)
		}

		_, err := tx.Exec(ctx, observationUpsertQuery,
			obs.ID,
			obs.TraceID,
			orDefault(obs.Type, domain.ObservationTypeGeneration),
			obs.Name,
			obs.StartTime,
			obs.EndTime,
			obs.CompletionStartTime,
			obs.Model,
			jsonArg(obs.ModelParameters),
			jsonArg(obs.Input),
			jsonArg(obs.Output),
			jsonArg(obs.Usage),
			obs.Level,
			obs.StatusMessage,
			obs.ParentObservationID,
			obs.PromptID,
			obs.PromptName,
			obs.PromptVersion,
			obs.ModelID,
			obs.InputPrice,
			obs.OutputPrice,
			obs.TotalPrice,
			obs.CalculatedInputCost,
			obs.CalculatedOutputCost,
			obs.CalculatedTotalCost,
			obs.Latency,
			obs.TimeToFirstToken,
			obs.CompletionTokens,
			obs.PromptTokens,
			obs.TotalTokens,
			obs.Unit,
			jsonArg(obs.Metadata),
			environment,
			projectID,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert observation %s: %w", obs.ID, err)
		}
	}

	return nil
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func orEmptySlice(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// jsonArg binds a raw JSON document, mapping the absent value to SQL NULL.
func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
