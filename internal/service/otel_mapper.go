package service

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xtrace/xtrace/internal/domain"
	"github.com/xtrace/xtrace/internal/pkg/otelid"
)

// Span attribute keys recognized by the mapper. The langfuse.* keys are what
// the Langfuse OTLP exporters emit; gen_ai.request.model is the semantic
// convention fallback.
const (
	attrObservationType  = "langfuse.observation.type"
	attrObservationInput = "langfuse.observation.input"
	attrObservationOut   = "langfuse.observation.output"
	attrUsageDetails     = "langfuse.observation.usage_details"
	attrGenerationModel  = "langfuse.generation.model"
	attrRequestModel     = "gen_ai.request.model"
	attrTraceName        = "langfuse.trace.name"
	attrTraceTags        = "langfuse.trace.tags"
	attrTraceMetadata    = "langfuse.trace.metadata."
	attrUserID           = "user.id"
	attrSessionID        = "session.id"

	resourceMetadataKey = "otel.resource"
	defaultEnvironment  = "default"
)

// OtelMapper converts decoded OTLP trace exports into ingest batches, one
// per distinct trace id.
type OtelMapper struct {
	defaultProjectID string
}

// NewOtelMapper creates an OTLP mapper
func NewOtelMapper(defaultProjectID string) *OtelMapper {
	return &OtelMapper{defaultProjectID: defaultProjectID}
}

// traceAcc accumulates trace-level promotions across the spans of one trace.
// Scalar fields are first-writer-wins; metadata keys merge with later spans
// overwriting earlier ones.
type traceAcc struct {
	name      *string
	userID    *string
	sessionID *string
	tags      []string
	metadata  map[string]interface{}
}

// MapExport maps an export request onto ingest batches. Spans with invalid
// trace or span ids are skipped. Batches are emitted in trace id byte order,
// so mapping is deterministic.
func (m *OtelMapper) MapExport(req domain.ExportTraceServiceRequest) []domain.BatchIngest {
	perTrace := make(map[uuid.UUID][]domain.ObservationIngest)
	firstTS := make(map[uuid.UUID]time.Time)
	accs := make(map[uuid.UUID]*traceAcc)

	for _, rs := range req.ResourceSpans {
		for _, ss := range rs.ScopeSpans {
			for _, span := range ss.Spans {
				traceID, err := otelid.TraceIDToUUID(span.TraceID)
				if err != nil {
					continue
				}
				spanID, err := otelid.SpanIDToUUID(span.SpanID)
				if err != nil {
					continue
				}
				parentID := parentSpanUUID(span.ParentSpanID)

				startTime := otelid.ParseUnixNano(span.StartTimeUnixNano)
				endTime := otelid.ParseUnixNano(span.EndTimeUnixNano)

				if startTime != nil {
					if cur, ok := firstTS[traceID]; !ok || startTime.Before(cur) {
						firstTS[traceID] = *startTime
					}
				}

				m.accumulateTrace(accs, traceID, span.Attributes)

				var obsType *string
				if t := domain.GetString(span.Attributes, attrObservationType); t != nil {
					upper := strings.ToUpper(*t)
					obsType = &upper
				}

				model := domain.GetString(span.Attributes, attrGenerationModel)
				if model == nil {
					model = domain.GetString(span.Attributes, attrRequestModel)
				}

				meta := domain.AttributesToMap(span.Attributes)
				if rs.Resource != nil {
					meta[resourceMetadataKey] = domain.AttributesToMap(rs.Resource.Attributes)
				}
				metaRaw, _ := json.Marshal(meta)

				completionTokens, promptTokens, totalTokens, usage := parseUsageDetails(span.Attributes)

				name := span.Name
				obs := domain.ObservationIngest{
					ID:                  spanID,
					TraceID:             traceID,
					Type:                obsType,
					Name:                &name,
					StartTime:           startTime,
					EndTime:             endTime,
					Model:               model,
					Input:               jsonOrString(domain.GetString(span.Attributes, attrObservationInput)),
					Output:              jsonOrString(domain.GetString(span.Attributes, attrObservationOut)),
					Usage:               usage,
					ParentObservationID: parentID,
					CompletionTokens:    completionTokens,
					PromptTokens:        promptTokens,
					TotalTokens:         totalTokens,
					Metadata:            metaRaw,
					ProjectID:           &m.defaultProjectID,
				}

				perTrace[traceID] = append(perTrace[traceID], obs)
			}
		}
	}

	traceIDs := make([]uuid.UUID, 0, len(perTrace))
	for id := range perTrace {
		traceIDs = append(traceIDs, id)
	}
	sort.Slice(traceIDs, func(i, j int) bool {
		return bytes.Compare(traceIDs[i][:], traceIDs[j][:]) < 0
	})

	out := make([]domain.BatchIngest, 0, len(traceIDs))
	for _, traceID := range traceIDs {
		trace := m.buildTrace(traceID, accs[traceID])
		if ts, ok := firstTS[traceID]; ok {
			t := ts
			trace.Timestamp = &t
		}
		out = append(out, domain.BatchIngest{
			Trace:        trace,
			Observations: perTrace[traceID],
		})
	}
	return out
}

func (m *OtelMapper) accumulateTrace(accs map[uuid.UUID]*traceAcc, traceID uuid.UUID, attrs []domain.KeyValue) {
	name := domain.GetString(attrs, attrTraceName)
	userID := domain.GetString(attrs, attrUserID)
	sessionID := domain.GetString(attrs, attrSessionID)
	tags := domain.GetStringArray(attrs, attrTraceTags)
	meta := domain.PrefixedMap(attrs, attrTraceMetadata)

	acc, ok := accs[traceID]
	if !ok {
		accs[traceID] = &traceAcc{
			name:      name,
			userID:    userID,
			sessionID: sessionID,
			tags:      tags,
			metadata:  meta,
		}
		return
	}

	if acc.name == nil {
		acc.name = name
	}
	if acc.userID == nil {
		acc.userID = userID
	}
	if acc.sessionID == nil {
		acc.sessionID = sessionID
	}
	if len(acc.tags) == 0 && tags != nil {
		acc.tags = tags
	}
	if len(meta) > 0 {
		if acc.metadata == nil {
			acc.metadata = make(map[string]interface{}, len(meta))
		}
		for k, v := range meta {
			acc.metadata[k] = v
		}
	}
}

func (m *OtelMapper) buildTrace(traceID uuid.UUID, acc *traceAcc) *domain.TraceIngest {
	env := defaultEnvironment
	projectID := m.defaultProjectID
	trace := &domain.TraceIngest{
		ID:          traceID,
		Environment: &env,
		ProjectID:   &projectID,
	}
	if acc == nil {
		return trace
	}

	trace.Name = acc.name
	trace.UserID = acc.userID
	trace.SessionID = acc.sessionID
	trace.Tags = acc.tags
	if len(acc.metadata) > 0 {
		raw, _ := json.Marshal(acc.metadata)
		trace.Metadata = raw
	}
	return trace
}

func parentSpanUUID(parentSpanID string) *uuid.UUID {
	if parentSpanID == "" || parentSpanID == "0000000000000000" {
		return nil
	}
	id, err := otelid.SpanIDToUUID(parentSpanID)
	if err != nil {
		return nil
	}
	return &id
}

// jsonOrString turns an attribute string into JSON: the value itself when it
// parses, otherwise a JSON string wrapping it.
func jsonOrString(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	if json.Valid([]byte(*s)) {
		return json.RawMessage(*s)
	}
	raw, _ := json.Marshal(*s)
	return raw
}

// parseUsageDetails reads the usage_details attribute, a JSON object with
// promptTokens/completionTokens/totalTokens. Token counts must be integer
// JSON numbers; anything else is treated as absent. The returned usage block
// substitutes zero for missing counts.
func parseUsageDetails(attrs []domain.KeyValue) (completion, prompt, total *int64, usage json.RawMessage) {
	raw := domain.GetString(attrs, attrUsageDetails)
	if raw == nil {
		return nil, nil, nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(*raw))
	dec.UseNumber()
	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		return nil, nil, nil, nil
	}
	details, _ := parsed.(map[string]interface{})

	prompt = asInt64(details["promptTokens"])
	completion = asInt64(details["completionTokens"])
	total = asInt64(details["totalTokens"])

	usage, _ = json.Marshal(map[string]int64{
		"input":  zeroIfNil(prompt),
		"output": zeroIfNil(completion),
		"total":  zeroIfNil(total),
	})
	return completion, prompt, total, usage
}

func asInt64(v interface{}) *int64 {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil
	}
	return &i
}

func zeroIfNil(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
