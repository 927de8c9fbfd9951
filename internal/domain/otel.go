package domain

import (
	"math"
	"strconv"
	"strings"
)

// OTLP/HTTP JSON trace export model. Only the fields the mapper consumes are
// declared; unknown fields are ignored on unmarshal.

// ExportTraceServiceRequest is the body of an OTLP/HTTP trace export
type ExportTraceServiceRequest struct {
	ResourceSpans []ResourceSpans `json:"resourceSpans"`
}

// ResourceSpans groups spans emitted by a single resource
type ResourceSpans struct {
	Resource   *Resource    `json:"resource"`
	ScopeSpans []ScopeSpans `json:"scopeSpans"`
}

// Resource carries resource-level attributes
type Resource struct {
	Attributes []KeyValue `json:"attributes"`
}

// ScopeSpans groups spans from one instrumentation scope
type ScopeSpans struct {
	Spans []Span `json:"spans"`
}

// Span is a single OTLP span
type Span struct {
	TraceID           string     `json:"traceId"`
	SpanID            string     `json:"spanId"`
	ParentSpanID      string     `json:"parentSpanId"`
	Name              string     `json:"name"`
	StartTimeUnixNano string     `json:"startTimeUnixNano"`
	EndTimeUnixNano   string     `json:"endTimeUnixNano"`
	Attributes        []KeyValue `json:"attributes"`
}

// KeyValue is a single attribute
type KeyValue struct {
	Key   string    `json:"key"`
	Value *AnyValue `json:"value"`
}

// AnyValue is the OTLP tagged value union. In the JSON encoding intValue is a
// decimal string.
type AnyValue struct {
	StringValue *string     `json:"stringValue"`
	IntValue    *string     `json:"intValue"`
	DoubleValue *float64    `json:"doubleValue"`
	BoolValue   *bool       `json:"boolValue"`
	ArrayValue  *ArrayValue `json:"arrayValue"`
}

// ArrayValue is a list of AnyValues
type ArrayValue struct {
	Values []AnyValue `json:"values"`
}

// JSON converts the value into its JSON-marshalable Go form. Int strings are
// promoted to numbers when they parse as int64, non-finite doubles collapse
// to null, and unrecognized variants are null.
func (v *AnyValue) JSON() interface{} {
	if v == nil {
		return nil
	}
	if v.StringValue != nil {
		return *v.StringValue
	}
	if v.IntValue != nil {
		if i, err := strconv.ParseInt(*v.IntValue, 10, 64); err == nil {
			return i
		}
		return *v.IntValue
	}
	if v.DoubleValue != nil {
		if f := *v.DoubleValue; !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
		return nil
	}
	if v.BoolValue != nil {
		return *v.BoolValue
	}
	if v.ArrayValue != nil {
		out := make([]interface{}, 0, len(v.ArrayValue.Values))
		for i := range v.ArrayValue.Values {
			out = append(out, v.ArrayValue.Values[i].JSON())
		}
		return out
	}
	return nil
}

// AttributesToMap converts an attribute list into a JSON object. Later keys
// overwrite earlier duplicates.
func AttributesToMap(attrs []KeyValue) map[string]interface{} {
	m := make(map[string]interface{}, len(attrs))
	for i := range attrs {
		m[attrs[i].Key] = attrs[i].Value.JSON()
	}
	return m
}

// GetString returns the string value of the named attribute, or nil when the
// attribute is absent or not a string.
func GetString(attrs []KeyValue, key string) *string {
	for i := range attrs {
		if attrs[i].Key == key && attrs[i].Value != nil && attrs[i].Value.StringValue != nil {
			s := *attrs[i].Value.StringValue
			return &s
		}
	}
	return nil
}

// GetStringArray returns the string elements of the named array attribute in
// order, dropping non-string elements. Nil when the attribute is absent or
// not an array.
func GetStringArray(attrs []KeyValue, key string) []string {
	for i := range attrs {
		if attrs[i].Key != key || attrs[i].Value == nil || attrs[i].Value.ArrayValue == nil {
			continue
		}
		values := attrs[i].Value.ArrayValue.Values
		out := make([]string, 0, len(values))
		for j := range values {
			if values[j].StringValue != nil {
				out = append(out, *values[j].StringValue)
			}
		}
		return out
	}
	return nil
}

// PrefixedMap collects attributes whose key starts with prefix into a JSON
// object keyed by the non-empty suffix.
func PrefixedMap(attrs []KeyValue, prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for i := range attrs {
		rest, ok := strings.CutPrefix(attrs[i].Key, prefix)
		if !ok || rest == "" || attrs[i].Value == nil {
			continue
		}
		out[rest] = attrs[i].Value.JSON()
	}
	return out
}
