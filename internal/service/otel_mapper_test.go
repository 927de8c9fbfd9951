package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrace/xtrace/internal/domain"
)

const (
	testTraceHex  = "0123456789abcdef0123456789abcdef"
	testSpanHex   = "0123456789abcdef"
	testSpanHex2  = "fedcba9876543210"
	testTraceHex2 = "ffffffffffffffff0123456789abcdef"
)

func strAttr(key, value string) domain.KeyValue {
	return domain.KeyValue{Key: key, Value: &domain.AnyValue{StringValue: &value}}
}

func arrAttr(key string, values ...string) domain.KeyValue {
	elems := make([]domain.AnyValue, 0, len(values))
	for i := range values {
		elems = append(elems, domain.AnyValue{StringValue: &values[i]})
	}
	return domain.KeyValue{Key: key, Value: &domain.AnyValue{ArrayValue: &domain.ArrayValue{Values: elems}}}
}

func exportWithSpans(resource *domain.Resource, spans ...domain.Span) domain.ExportTraceServiceRequest {
	return domain.ExportTraceServiceRequest{
		ResourceSpans: []domain.ResourceSpans{{
			Resource:   resource,
			ScopeSpans: []domain.ScopeSpans{{Spans: spans}},
		}},
	}
}

func TestMapExportSingleSpan(t *testing.T) {
	mapper := NewOtelMapper("default")

	span := domain.Span{
		TraceID:           testTraceHex,
		SpanID:            testSpanHex,
		Name:              "llm call",
		StartTimeUnixNano: "1700000000000000000",
		EndTimeUnixNano:   "1700000001000000000",
		Attributes: []domain.KeyValue{
			strAttr("langfuse.observation.type", "generation"),
			strAttr("langfuse.generation.model", "gpt-4o"),
			strAttr("langfuse.observation.input", `{"prompt":"hi"}`),
			strAttr("langfuse.observation.output", "plain text"),
			strAttr("langfuse.observation.usage_details", `{"promptTokens":10,"completionTokens":5,"totalTokens":15}`),
			strAttr("langfuse.trace.name", "chat"),
			strAttr("user.id", "u1"),
			strAttr("session.id", "s1"),
			arrAttr("langfuse.trace.tags", "prod", "beta"),
			strAttr("langfuse.trace.metadata.team", "ml"),
		},
	}

	batches := mapper.MapExport(exportWithSpans(&domain.Resource{
		Attributes: []domain.KeyValue{strAttr("service.name", "xinference")},
	}, span))

	require.Len(t, batches, 1)
	batch := batches[0]

	require.NotNil(t, batch.Trace)
	trace := batch.Trace
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", trace.ID.String())
	require.NotNil(t, trace.Timestamp)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), *trace.Timestamp)
	require.NotNil(t, trace.Name)
	assert.Equal(t, "chat", *trace.Name)
	require.NotNil(t, trace.UserID)
	assert.Equal(t, "u1", *trace.UserID)
	require.NotNil(t, trace.SessionID)
	assert.Equal(t, "s1", *trace.SessionID)
	assert.Equal(t, []string{"prod", "beta"}, trace.Tags)
	assert.JSONEq(t, `{"team":"ml"}`, string(trace.Metadata))
	require.NotNil(t, trace.Environment)
	assert.Equal(t, "default", *trace.Environment)
	require.NotNil(t, trace.ProjectID)
	assert.Equal(t, "default", *trace.ProjectID)

	require.Len(t, batch.Observations, 1)
	obs := batch.Observations[0]
	assert.Equal(t, "00000000-0000-0000-0123-456789abcdef", obs.ID.String())
	assert.Equal(t, trace.ID, obs.TraceID)
	require.NotNil(t, obs.Type)
	assert.Equal(t, "GENERATION", *obs.Type)
	require.NotNil(t, obs.Name)
	assert.Equal(t, "llm call", *obs.Name)
	require.NotNil(t, obs.Model)
	assert.Equal(t, "gpt-4o", *obs.Model)
	assert.JSONEq(t, `{"prompt":"hi"}`, string(obs.Input))
	assert.JSONEq(t, `"plain text"`, string(obs.Output))
	assert.JSONEq(t, `{"input":10,"output":5,"total":15}`, string(obs.Usage))
	require.NotNil(t, obs.PromptTokens)
	assert.Equal(t, int64(10), *obs.PromptTokens)
	require.NotNil(t, obs.CompletionTokens)
	assert.Equal(t, int64(5), *obs.CompletionTokens)
	require.NotNil(t, obs.TotalTokens)
	assert.Equal(t, int64(15), *obs.TotalTokens)
	assert.Nil(t, obs.ParentObservationID)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(obs.Metadata, &meta))
	assert.Equal(t, "gpt-4o", meta["langfuse.generation.model"])
	resource, ok := meta["otel.resource"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "xinference", resource["service.name"])
}

func TestMapExportModelFallback(t *testing.T) {
	mapper := NewOtelMapper("default")

	batches := mapper.MapExport(exportWithSpans(nil, domain.Span{
		TraceID:    testTraceHex,
		SpanID:     testSpanHex,
		Name:       "span",
		Attributes: []domain.KeyValue{strAttr("gen_ai.request.model", "claude")},
	}))

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Observations, 1)
	model := batches[0].Observations[0].Model
	require.NotNil(t, model)
	assert.Equal(t, "claude", *model)
}

func TestMapExportTracePromotionFirstWins(t *testing.T) {
	mapper := NewOtelMapper("default")

	batches := mapper.MapExport(exportWithSpans(nil,
		domain.Span{
			TraceID:           testTraceHex,
			SpanID:            testSpanHex,
			Name:              "first",
			StartTimeUnixNano: "1700000005000000000",
			Attributes:        []domain.KeyValue{strAttr("langfuse.trace.name", "winner")},
		},
		domain.Span{
			TraceID:           testTraceHex,
			SpanID:            testSpanHex2,
			Name:              "second",
			StartTimeUnixNano: "1700000001000000000",
			Attributes: []domain.KeyValue{
				strAttr("langfuse.trace.name", "loser"),
				strAttr("user.id", "u2"),
				strAttr("langfuse.trace.metadata.k", "v"),
			},
		},
	))

	require.Len(t, batches, 1)
	trace := batches[0].Trace
	require.NotNil(t, trace)

	require.NotNil(t, trace.Name)
	assert.Equal(t, "winner", *trace.Name)
	require.NotNil(t, trace.UserID)
	assert.Equal(t, "u2", *trace.UserID)
	assert.JSONEq(t, `{"k":"v"}`, string(trace.Metadata))

	// trace timestamp is the minimum span start time
	require.NotNil(t, trace.Timestamp)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 21, 0, time.UTC), *trace.Timestamp)

	assert.Len(t, batches[0].Observations, 2)
}

func TestMapExportSkipsMalformedSpans(t *testing.T) {
	mapper := NewOtelMapper("default")

	batches := mapper.MapExport(exportWithSpans(nil,
		domain.Span{TraceID: "not-hex", SpanID: testSpanHex, Name: "bad trace id"},
		domain.Span{TraceID: testTraceHex, SpanID: "beef", Name: "bad span id"},
		domain.Span{TraceID: testTraceHex, SpanID: testSpanHex, Name: "good"},
	))

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Observations, 1)
	assert.Equal(t, "good", *batches[0].Observations[0].Name)
}

func TestMapExportParentSpan(t *testing.T) {
	mapper := NewOtelMapper("default")

	t.Run("zero parent is dropped", func(t *testing.T) {
		batches := mapper.MapExport(exportWithSpans(nil, domain.Span{
			TraceID:      testTraceHex,
			SpanID:       testSpanHex,
			ParentSpanID: "0000000000000000",
			Name:         "root",
		}))
		require.Len(t, batches, 1)
		assert.Nil(t, batches[0].Observations[0].ParentObservationID)
	})

	t.Run("parent id is padded like span ids", func(t *testing.T) {
		batches := mapper.MapExport(exportWithSpans(nil, domain.Span{
			TraceID:      testTraceHex,
			SpanID:       testSpanHex2,
			ParentSpanID: testSpanHex,
			Name:         "child",
		}))
		require.Len(t, batches, 1)
		parent := batches[0].Observations[0].ParentObservationID
		require.NotNil(t, parent)
		assert.Equal(t, "00000000-0000-0000-0123-456789abcdef", parent.String())
	})
}

func TestMapExportGroupsPerTrace(t *testing.T) {
	mapper := NewOtelMapper("default")

	batches := mapper.MapExport(exportWithSpans(nil,
		domain.Span{TraceID: testTraceHex, SpanID: testSpanHex, Name: "a"},
		domain.Span{TraceID: testTraceHex2, SpanID: testSpanHex2, Name: "b"},
	))

	require.Len(t, batches, 2)
	// batches come out ordered by trace id bytes
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", batches[0].Trace.ID.String())
	assert.Equal(t, "ffffffff-ffff-ffff-0123-456789abcdef", batches[1].Trace.ID.String())
}

func TestParseUsageDetails(t *testing.T) {
	t.Run("absent attribute", func(t *testing.T) {
		c, p, total, usage := parseUsageDetails(nil)
		assert.Nil(t, c)
		assert.Nil(t, p)
		assert.Nil(t, total)
		assert.Nil(t, usage)
	})

	t.Run("invalid json", func(t *testing.T) {
		attrs := []domain.KeyValue{strAttr("langfuse.observation.usage_details", "{broken")}
		_, _, _, usage := parseUsageDetails(attrs)
		assert.Nil(t, usage)
	})

	t.Run("partial counts substitute zero in usage", func(t *testing.T) {
		attrs := []domain.KeyValue{strAttr("langfuse.observation.usage_details", `{"promptTokens":7}`)}
		completion, prompt, total, usage := parseUsageDetails(attrs)
		require.NotNil(t, prompt)
		assert.Equal(t, int64(7), *prompt)
		assert.Nil(t, completion)
		assert.Nil(t, total)
		assert.JSONEq(t, `{"input":7,"output":0,"total":0}`, string(usage))
	})

	t.Run("non-integer counts ignored", func(t *testing.T) {
		attrs := []domain.KeyValue{strAttr("langfuse.observation.usage_details", `{"promptTokens":1.5}`)}
		_, prompt, _, usage := parseUsageDetails(attrs)
		assert.Nil(t, prompt)
		assert.JSONEq(t, `{"input":0,"output":0,"total":0}`, string(usage))
	})
}

func TestJSONOrString(t *testing.T) {
	valid := `{"a":1}`
	assert.Equal(t, json.RawMessage(valid), jsonOrString(&valid))

	plain := "not json"
	assert.JSONEq(t, `"not json"`, string(jsonOrString(&plain)))

	assert.Nil(t, jsonOrString(nil))
}
