package handler

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/xtrace/xtrace/internal/domain"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
	"github.com/xtrace/xtrace/internal/service"
)

// OtelHandler accepts OTLP/HTTP trace exports
type OtelHandler struct {
	mapper *service.OtelMapper
	ingest BatchEnqueuer
}

// NewOtelHandler creates a new OTLP handler
func NewOtelHandler(mapper *service.OtelMapper, ingest BatchEnqueuer) *OtelHandler {
	return &OtelHandler{mapper: mapper, ingest: ingest}
}

// PostTraces handles POST /api/public/otel/v1/traces. Both the JSON and the
// binary protobuf encodings are accepted, optionally gzip compressed.
func (h *OtelHandler) PostTraces(c *fiber.Ctx) error {
	raw, err := bodyBytes(c)
	if err != nil {
		return respondError(c, err)
	}

	var export domain.ExportTraceServiceRequest
	switch ct := requestContentType(c); ct {
	case "application/json":
		if err := json.Unmarshal(raw, &export); err != nil {
			return respondError(c, apperrors.BadRequest("invalid json: "+err.Error()))
		}
	case "application/x-protobuf":
		export, err = service.DecodeProtoExport(raw)
		if err != nil {
			return respondError(c, apperrors.BadRequest("invalid protobuf: "+err.Error()))
		}
	default:
		return respondError(c, apperrors.BadRequest("unsupported content-type: "+ct))
	}

	for _, batch := range h.mapper.MapExport(export) {
		if err := h.ingest.Enqueue(batch); err != nil {
			return respondError(c, err)
		}
	}

	return c.JSON(struct{}{})
}

// bodyBytes returns the request body, decompressed when the client declared
// a gzip content encoding.
func bodyBytes(c *fiber.Ctx) ([]byte, error) {
	body := c.Body()
	if !strings.Contains(strings.ToLower(c.Get(fiber.HeaderContentEncoding)), "gzip") {
		return body, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.BadRequest("gzip decode failed: " + err.Error())
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, apperrors.BadRequest("gzip decode failed: " + err.Error())
	}
	return out, nil
}

// requestContentType normalizes the Content-Type header to its bare media
// type, defaulting to JSON when the header is missing.
func requestContentType(c *fiber.Ctx) string {
	value := c.Get(fiber.HeaderContentType)
	if value == "" {
		return "application/json"
	}
	media, _, _ := strings.Cut(value, ";")
	return strings.ToLower(strings.TrimSpace(media))
}
