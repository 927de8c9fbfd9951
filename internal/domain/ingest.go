package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BatchIngest is the unit queued for persistence: one optional trace plus any
// number of observations, written together in arrival order.
type BatchIngest struct {
	Trace        *TraceIngest        `json:"trace"`
	Observations []ObservationIngest `json:"observations"`
}

// TraceIngest is a trace row as submitted by clients. Field names follow the
// ingestion wire format, which mixes snake_case and camelCase.
type TraceIngest struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp *time.Time      `json:"timestamp"`
	Name      *string         `json:"name"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	SessionID *string         `json:"session_id"`
	Release   *string         `json:"release"`
	Version   *string         `json:"version"`
	UserID    *string         `json:"userId"`
	Metadata  json.RawMessage `json:"metadata"`
	Tags      []string        `json:"tags"`
	Public    *bool           `json:"public"`

	Environment *string `json:"environment"`
	ExternalID  *string `json:"externalId"`
	Bookmarked  *bool   `json:"bookmarked"`

	Latency   *float64 `json:"latency"`
	TotalCost *float64 `json:"totalCost"`

	ProjectID *string `json:"projectId"`
}

// ObservationIngest is an observation row as submitted by clients.
type ObservationIngest struct {
	ID      uuid.UUID `json:"id"`
	TraceID uuid.UUID `json:"traceId"`

	Type *string `json:"type"`
	Name *string `json:"name"`

	StartTime           *time.Time `json:"startTime"`
	EndTime             *time.Time `json:"endTime"`
	CompletionStartTime *time.Time `json:"completionStartTime"`

	Model           *string         `json:"model"`
	ModelParameters json.RawMessage `json:"modelParameters"`

	Input  json.RawMessage `json:"input"`
	Output json.RawMessage `json:"output"`
	Usage  json.RawMessage `json:"usage"`

	Level               *string    `json:"level"`
	StatusMessage       *string    `json:"statusMessage"`
	ParentObservationID *uuid.UUID `json:"parentObservationId"`

	PromptID      *string `json:"promptId"`
	PromptName    *string `json:"promptName"`
	PromptVersion *string `json:"promptVersion"`

	ModelID *string `json:"modelId"`

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

	Metadata json.RawMessage `json:"metadata"`

	Environment *string `json:"environment"`
	ProjectID   *string `json:"projectId"`
}
