package service

import (
	"encoding/hex"
	"strconv"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	"google.golang.org/protobuf/proto"

	"github.com/xtrace/xtrace/internal/domain"
)

// DecodeProtoExport unmarshals a binary OTLP export and converts it to the
// domain model shared with the JSON path. Ids are hex encoded and timestamps
// become decimal strings; zero timestamps and empty parent ids map to the
// absent value. Kvlist and bytes values, and arrays nested inside arrays, are
// dropped.
func DecodeProtoExport(data []byte) (domain.ExportTraceServiceRequest, error) {
	var pb coltracepb.ExportTraceServiceRequest
	if err := proto.Unmarshal(data, &pb); err != nil {
		return domain.ExportTraceServiceRequest{}, err
	}

	out := domain.ExportTraceServiceRequest{
		ResourceSpans: make([]domain.ResourceSpans, 0, len(pb.ResourceSpans)),
	}
	for _, rs := range pb.ResourceSpans {
		var resource *domain.Resource
		if rs.Resource != nil {
			resource = &domain.Resource{
				Attributes: fromProtoAttributes(rs.Resource.Attributes),
			}
		}

		scopeSpans := make([]domain.ScopeSpans, 0, len(rs.ScopeSpans))
		for _, ss := range rs.ScopeSpans {
			spans := make([]domain.Span, 0, len(ss.Spans))
			for _, s := range ss.Spans {
				spans = append(spans, domain.Span{
					TraceID:           hex.EncodeToString(s.TraceId),
					SpanID:            hex.EncodeToString(s.SpanId),
					ParentSpanID:      hex.EncodeToString(s.ParentSpanId),
					Name:              s.Name,
					StartTimeUnixNano: unixNanoString(s.StartTimeUnixNano),
					EndTimeUnixNano:   unixNanoString(s.EndTimeUnixNano),
					Attributes:        fromProtoAttributes(s.Attributes),
				})
			}
			scopeSpans = append(scopeSpans, domain.ScopeSpans{Spans: spans})
		}

		out.ResourceSpans = append(out.ResourceSpans, domain.ResourceSpans{
			Resource:   resource,
			ScopeSpans: scopeSpans,
		})
	}
	return out, nil
}

func fromProtoAttributes(attrs []*commonpb.KeyValue) []domain.KeyValue {
	out := make([]domain.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		if kv == nil {
			continue
		}
		out = append(out, domain.KeyValue{
			Key:   kv.Key,
			Value: fromProtoAnyValue(kv.Value, true),
		})
	}
	return out
}

func fromProtoAnyValue(av *commonpb.AnyValue, allowArray bool) *domain.AnyValue {
	if av == nil {
		return nil
	}
	switch v := av.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return &domain.AnyValue{StringValue: &v.StringValue}
	case *commonpb.AnyValue_IntValue:
		s := strconv.FormatInt(v.IntValue, 10)
		return &domain.AnyValue{IntValue: &s}
	case *commonpb.AnyValue_DoubleValue:
		return &domain.AnyValue{DoubleValue: &v.DoubleValue}
	case *commonpb.AnyValue_BoolValue:
		return &domain.AnyValue{BoolValue: &v.BoolValue}
	case *commonpb.AnyValue_ArrayValue:
		if !allowArray || v.ArrayValue == nil {
			return &domain.AnyValue{}
		}
		values := make([]domain.AnyValue, 0, len(v.ArrayValue.Values))
		for _, el := range v.ArrayValue.Values {
			if el == nil || el.Value == nil {
				continue
			}
			values = append(values, *fromProtoAnyValue(el, false))
		}
		return &domain.AnyValue{ArrayValue: &domain.ArrayValue{Values: values}}
	default:
		return &domain.AnyValue{}
	}
}

func unixNanoString(v uint64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatUint(v, 10)
}
