package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/xtrace/xtrace/internal/domain"
)

// maskedMetric is serialized for latency and totalCost when the metrics
// field group is excluded, preserving the wire contract of clients that
// expect a number.
const maskedMetric = -1.0

var jsonNull = json.RawMessage("null")

// TraceListItem is one entry of the trace listing
type TraceListItem struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Name      *string         `json:"name"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	SessionID *string         `json:"sessionId"`
	Release   *string         `json:"release"`
	Version   *string         `json:"version"`
	UserID    *string         `json:"userId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Tags      []string        `json:"tags"`
	Public    bool            `json:"public"`

	Environment  string   `json:"environment"`
	HTMLPath     string   `json:"htmlPath"`
	Latency      *float64 `json:"latency"`
	TotalCost    *float64 `json:"totalCost"`
	Observations []string `json:"observations"`
	Scores       []string `json:"scores"`
}

// NewTraceListItem applies the field mask to a listing row. Masked io fields
// are omitted entirely; masked metrics serialize as -1.
func NewTraceListItem(row domain.TraceListRow, fields domain.TraceFields) TraceListItem {
	item := TraceListItem{
		ID:           row.ID,
		Timestamp:    row.Timestamp,
		Name:         row.Name,
		SessionID:    row.SessionID,
		Release:      row.Release,
		Version:      row.Version,
		UserID:       row.UserID,
		Tags:         orEmptyTags(row.Tags),
		Public:       row.Public,
		Environment:  row.Environment,
		HTMLPath:     htmlPath(row.ProjectID, row.ID),
		Observations: []string{},
		Scores:       []string{},
	}

	if fields.IO {
		item.Input = orNull(row.Input)
		item.Output = orNull(row.Output)
		item.Metadata = orNull(row.Metadata)
	}

	if fields.Metrics {
		item.Latency = row.Latency
		item.TotalCost = row.TotalCost
	} else {
		masked := maskedMetric
		item.Latency = &masked
		item.TotalCost = &masked
	}

	if fields.Observations {
		for _, id := range row.Observations {
			item.Observations = append(item.Observations, id.String())
		}
	}

	return item
}

// Usage is the aggregate token and cost block of an observation
type Usage struct {
	Input      int64    `json:"input"`
	Output     int64    `json:"output"`
	Total      int64    `json:"total"`
	Unit       *string  `json:"unit"`
	InputCost  *float64 `json:"inputCost"`
	OutputCost *float64 `json:"outputCost"`
	TotalCost  *float64 `json:"totalCost"`
}

// ObservationView is the detail rendering of one observation
type ObservationView struct {
	ID                  uuid.UUID       `json:"id"`
	TraceID             *uuid.UUID      `json:"traceId"`
	Type                string          `json:"type"`
	Name                *string         `json:"name"`
	StartTime           time.Time       `json:"startTime"`
	EndTime             *time.Time      `json:"endTime"`
	CompletionStartTime *time.Time      `json:"completionStartTime"`
	Model               *string         `json:"model"`
	ModelParameters     json.RawMessage `json:"modelParameters"`
	Input               json.RawMessage `json:"input"`
	Version             *string         `json:"version"`
	Metadata            json.RawMessage `json:"metadata"`
	Output              json.RawMessage `json:"output"`
	Usage               Usage           `json:"usage"`
	Level               string          `json:"level"`
	StatusMessage       *string         `json:"statusMessage"`
	ParentObservationID *uuid.UUID      `json:"parentObservationId"`

	PromptID      *string `json:"promptId"`
	PromptName    *string `json:"promptName"`
	PromptVersion *int64  `json:"promptVersion"`
	ModelID       *string `json:"modelId"`

	InputPrice  *float64 `json:"inputPrice"`
	OutputPrice *float64 `json:"outputPrice"`
	TotalPrice  *float64 `json:"totalPrice"`

	CalculatedInputCost  *float64 `json:"calculatedInputCost"`
	CalculatedOutputCost *float64 `json:"calculatedOutputCost"`
	CalculatedTotalCost  *float64 `json:"calculatedTotalCost"`

	Latency          *float64 `json:"latency"`
	TimeToFirstToken *float64 `json:"timeToFirstToken"`

	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`

	UsageDetails json.RawMessage `json:"usageDetails"`
	CostDetails  json.RawMessage `json:"costDetails"`
	Environment  string          `json:"environment"`
}

// NewObservationView renders a stored observation, substituting zeros for
// missing token counts and costs and defaulting the level.
func NewObservationView(o domain.Observation) ObservationView {
	promptTokens := orZeroInt(o.PromptTokens)
	completionTokens := orZeroInt(o.CompletionTokens)
	totalTokens := orZeroInt(o.TotalTokens)

	startTime := o.CreatedAt
	if o.StartTime != nil {
		startTime = *o.StartTime
	}

	level := domain.ObservationLevelDefault
	if o.Level != nil {
		level = *o.Level
	}

	traceID := o.TraceID

	return ObservationView{
		ID:                  o.ID,
		TraceID:             &traceID,
		Type:                o.Type,
		Name:                o.Name,
		StartTime:           startTime,
		EndTime:             o.EndTime,
		CompletionStartTime: o.CompletionStartTime,
		Model:               o.Model,
		ModelParameters:     orObject(o.ModelParameters),
		Input:               orNull(o.Input),
		Metadata:            orNull(o.Metadata),
		Output:              orNull(o.Output),
		Usage: Usage{
			Input:      promptTokens,
			Output:     completionTokens,
			Total:      totalTokens,
			Unit:       o.Unit,
			InputCost:  o.CalculatedInputCost,
			OutputCost: o.CalculatedOutputCost,
			TotalCost:  o.CalculatedTotalCost,
		},
		Level:               level,
		StatusMessage:       o.StatusMessage,
		ParentObservationID: o.ParentObservationID,
		PromptID:            o.PromptID,
		PromptName:          o.PromptName,
		PromptVersion:       parseIntOrNil(o.PromptVersion),
		ModelID:             o.ModelID,
		InputPrice:          o.InputPrice,
		OutputPrice:         o.OutputPrice,
		TotalPrice:          o.TotalPrice,

		CalculatedInputCost:  o.CalculatedInputCost,
		CalculatedOutputCost: o.CalculatedOutputCost,
		CalculatedTotalCost:  o.CalculatedTotalCost,

		Latency:          o.Latency,
		TimeToFirstToken: o.TimeToFirstToken,

		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,

		UsageDetails: tokenDetails(promptTokens, completionTokens, totalTokens),
		CostDetails: costDetails(
			orZeroFloat(o.CalculatedInputCost),
			orZeroFloat(o.CalculatedOutputCost),
			orZeroFloat(o.CalculatedTotalCost),
		),
		Environment: o.Environment,
	}
}

// TraceDetail is the full trace view with its observations
type TraceDetail struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Name      *string         `json:"name"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	SessionID *string         `json:"sessionId"`
	Release   *string         `json:"release"`
	Version   *string         `json:"version"`
	UserID    *string         `json:"userId"`
	Metadata  json.RawMessage `json:"metadata"`
	Tags      []string        `json:"tags"`
	Public    bool            `json:"public"`

	Environment  string            `json:"environment"`
	HTMLPath     string            `json:"htmlPath"`
	Latency      *float64          `json:"latency"`
	TotalCost    *float64          `json:"totalCost"`
	Observations []ObservationView `json:"observations"`
	Scores       []string          `json:"scores"`
}

// NewTraceDetail composes the trace detail view
func NewTraceDetail(trace domain.Trace, observations []domain.Observation) TraceDetail {
	views := make([]ObservationView, 0, len(observations))
	for _, o := range observations {
		views = append(views, NewObservationView(o))
	}

	return TraceDetail{
		ID:           trace.ID,
		Timestamp:    trace.Timestamp,
		Name:         trace.Name,
		Input:        orNull(trace.Input),
		Output:       orNull(trace.Output),
		SessionID:    trace.SessionID,
		Release:      trace.Release,
		Version:      trace.Version,
		UserID:       trace.UserID,
		Metadata:     orNull(trace.Metadata),
		Tags:         orEmptyTags(trace.Tags),
		Public:       trace.Public,
		Environment:  trace.Environment,
		HTMLPath:     htmlPath(trace.ProjectID, trace.ID),
		Latency:      trace.Latency,
		TotalCost:    trace.TotalCost,
		Observations: views,
		Scores:       []string{},
	}
}

func htmlPath(projectID string, traceID uuid.UUID) string {
	return fmt.Sprintf("/project/%s/traces/%s", projectID, traceID)
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return jsonNull
	}
	return raw
}

func orObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func orEmptyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func orZeroInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func orZeroFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func parseIntOrNil(s *string) *int64 {
	if s == nil {
		return nil
	}
	v, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func tokenDetails(input, output, total int64) json.RawMessage {
	b, _ := json.Marshal(map[string]int64{"input": input, "output": output, "total": total})
	return b
}

func costDetails(input, output, total float64) json.RawMessage {
	b, _ := json.Marshal(map[string]float64{"input": input, "output": output, "total": total})
	return b
}
