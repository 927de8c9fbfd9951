package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrace/xtrace/internal/domain"
)

func sampleListRow() domain.TraceListRow {
	name := "chat"
	latency := 1.25
	cost := 0.004
	return domain.TraceListRow{
		ID:           uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ProjectID:    "default",
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Name:         &name,
		Input:        json.RawMessage(`{"q":"hi"}`),
		Output:       json.RawMessage(`"ok"`),
		Tags:         []string{"a"},
		Environment:  "default",
		Latency:      &latency,
		TotalCost:    &cost,
		Observations: []uuid.UUID{uuid.MustParse("22222222-2222-2222-2222-222222222222")},
	}
}

func allFields() domain.TraceFields {
	return domain.TraceFields{IO: true, Scores: true, Observations: true, Metrics: true}
}

func TestNewTraceListItem(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		item := NewTraceListItem(sampleListRow(), allFields())
		assert.JSONEq(t, `{"q":"hi"}`, string(item.Input))
		assert.Equal(t, []string{"22222222-2222-2222-2222-222222222222"}, item.Observations)
		require.NotNil(t, item.Latency)
		assert.Equal(t, 1.25, *item.Latency)
		assert.Equal(t, "/project/default/traces/11111111-1111-1111-1111-111111111111", item.HTMLPath)
		assert.Equal(t, []string{}, item.Scores)
	})

	t.Run("io masked omits input output metadata", func(t *testing.T) {
		fields := allFields()
		fields.IO = false
		item := NewTraceListItem(sampleListRow(), fields)

		b, err := json.Marshal(item)
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &m))
		assert.NotContains(t, m, "input")
		assert.NotContains(t, m, "output")
		assert.NotContains(t, m, "metadata")
	})

	t.Run("null io stays present when unmasked", func(t *testing.T) {
		row := sampleListRow()
		row.Input = nil
		item := NewTraceListItem(row, allFields())
		assert.Equal(t, "null", string(item.Input))
	})

	t.Run("metrics masked serialize as -1", func(t *testing.T) {
		fields := allFields()
		fields.Metrics = false
		item := NewTraceListItem(sampleListRow(), fields)
		require.NotNil(t, item.Latency)
		assert.Equal(t, -1.0, *item.Latency)
		require.NotNil(t, item.TotalCost)
		assert.Equal(t, -1.0, *item.TotalCost)
	})

	t.Run("observations masked yields empty list", func(t *testing.T) {
		fields := allFields()
		fields.Observations = false
		item := NewTraceListItem(sampleListRow(), fields)
		assert.Equal(t, []string{}, item.Observations)
	})
}

func TestNewObservationView(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)

	base := domain.Observation{
		ID:          uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		TraceID:     uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Type:        domain.ObservationTypeGeneration,
		Environment: "default",
		CreatedAt:   created,
	}

	t.Run("defaults", func(t *testing.T) {
		view := NewObservationView(base)
		assert.Equal(t, created, view.StartTime)
		assert.Equal(t, "DEFAULT", view.Level)
		assert.Equal(t, "{}", string(view.ModelParameters))
		assert.Equal(t, "null", string(view.Input))
		assert.Equal(t, int64(0), view.Usage.Input)
		assert.JSONEq(t, `{"input":0,"output":0,"total":0}`, string(view.UsageDetails))
		assert.JSONEq(t, `{"input":0,"output":0,"total":0}`, string(view.CostDetails))
		assert.Nil(t, view.PromptVersion)
	})

	t.Run("start time preferred over created at", func(t *testing.T) {
		start := created.Add(time.Minute)
		o := base
		o.StartTime = &start
		view := NewObservationView(o)
		assert.Equal(t, start, view.StartTime)
	})

	t.Run("prompt version parses when numeric", func(t *testing.T) {
		v := "4"
		o := base
		o.PromptVersion = &v
		view := NewObservationView(o)
		require.NotNil(t, view.PromptVersion)
		assert.Equal(t, int64(4), *view.PromptVersion)

		bad := "v4"
		o.PromptVersion = &bad
		assert.Nil(t, NewObservationView(o).PromptVersion)
	})

	t.Run("usage block mirrors token and cost columns", func(t *testing.T) {
		pt, ct, tt := int64(10), int64(20), int64(30)
		ic, oc, tc := 0.1, 0.2, 0.3
		unit := "TOKENS"
		o := base
		o.PromptTokens, o.CompletionTokens, o.TotalTokens = &pt, &ct, &tt
		o.CalculatedInputCost, o.CalculatedOutputCost, o.CalculatedTotalCost = &ic, &oc, &tc
		o.Unit = &unit

		view := NewObservationView(o)
		assert.Equal(t, int64(10), view.Usage.Input)
		assert.Equal(t, int64(20), view.Usage.Output)
		assert.Equal(t, int64(30), view.Usage.Total)
		require.NotNil(t, view.Usage.TotalCost)
		assert.Equal(t, 0.3, *view.Usage.TotalCost)
		assert.JSONEq(t, `{"input":10,"output":20,"total":30}`, string(view.UsageDetails))
		assert.JSONEq(t, `{"input":0.1,"output":0.2,"total":0.3}`, string(view.CostDetails))
	})
}

func TestNewTraceDetail(t *testing.T) {
	trace := domain.Trace{
		ID:          uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ProjectID:   "default",
		Environment: "default",
	}

	detail := NewTraceDetail(trace, []domain.Observation{{
		ID:          uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		TraceID:     trace.ID,
		Type:        domain.ObservationTypeSpan,
		Environment: "default",
	}})

	assert.Equal(t, "null", string(detail.Input))
	assert.Equal(t, []string{}, detail.Scores)
	assert.Equal(t, []string{}, detail.Tags)
	require.Len(t, detail.Observations, 1)
	assert.Equal(t, "SPAN", detail.Observations[0].Type)
	assert.Equal(t, "/project/default/traces/11111111-1111-1111-1111-111111111111", detail.HTMLPath)
}
