package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Observation types
const (
	ObservationTypeGeneration = "GENERATION"
	ObservationTypeSpan       = "SPAN"
	ObservationTypeEvent      = "EVENT"
)

// ObservationLevelDefault is the level reported when a row has none stored.
const ObservationLevelDefault = "DEFAULT"

// Observation is a stored observation row
type Observation struct {
	ID                  uuid.UUID       `json:"id"`
	TraceID             uuid.UUID       `json:"traceId"`
	Type                string          `json:"type"`
	Name                *string         `json:"name"`
	StartTime           *time.Time      `json:"startTime"`
	EndTime             *time.Time      `json:"endTime"`
	CompletionStartTime *time.Time      `json:"completionStartTime"`
	Model               *string         `json:"model"`
	ModelParameters     json.RawMessage `json:"modelParameters"`
	Input               json.RawMessage `json:"input"`
	Output              json.RawMessage `json:"output"`
	Usage               json.RawMessage `json:"usage"`
	Level               *string         `json:"level"`
	StatusMessage       *string         `json:"statusMessage"`
	ParentObservationID *uuid.UUID      `json:"parentObservationId"`

	PromptID      *string `json:"promptId"`
	PromptName    *string `json:"promptName"`
	PromptVersion *string `json:"promptVersion"`
	ModelID       *string `json:"modelId"`

	InputPrice  *float64 `json:"inputPrice"`
	OutputPrice *float64 `json:"outputPrice"`
	TotalPrice  *float64 `json:"totalPrice"`

	CalculatedInputCost  *float64 `json:"calculatedInputCost"`
	CalculatedOutputCost *float64 `json:"calculatedOutputCost"`
	CalculatedTotalCost  *float64 `json:"calculatedTotalCost"`

	Latency          *float64 `json:"latency"`
	TimeToFirstToken *float64 `json:"timeToFirstToken"`

	CompletionTokens *int64  `json:"completionTokens"`
	PromptTokens     *int64  `json:"promptTokens"`
	TotalTokens      *int64  `json:"totalTokens"`
	Unit             *string `json:"unit"`

	Metadata    json.RawMessage `json:"metadata"`
	Environment string          `json:"environment"`
	ProjectID   string          `json:"projectId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
