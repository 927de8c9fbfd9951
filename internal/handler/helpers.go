// Package handler exposes the HTTP API.
package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/xtrace/xtrace/internal/dto"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
	"github.com/xtrace/xtrace/internal/pkg/logger"
	"github.com/xtrace/xtrace/internal/pkg/pagination"
)

// respondError renders an error as the message-only envelope. Internal
// failures are logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.Internal("unhandled error").WithError(err)
	}

	message := appErr.Message
	switch appErr.Code {
	case apperrors.CodeInternal:
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		message = "Internal Error"
	case apperrors.CodeNotFound:
		message = "Not Found"
	}

	return c.Status(appErr.StatusCode).JSON(dto.MessageResponse{Message: message})
}

// parsePageParams reads page and limit, applying the shared clamping rules
func parsePageParams(c *fiber.Ctx) pagination.Params {
	return pagination.Normalize(queryInt64(c, "page"), queryInt64(c, "limit"))
}

func queryInt64(c *fiber.Ctx, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// queryString returns the parameter value, or nil when it was not sent
func queryString(c *fiber.Ctx, key string) *string {
	if !c.Context().QueryArgs().Has(key) {
		return nil
	}
	v := c.Query(key)
	return &v
}

// queryStrings collects every occurrence of a repeatable parameter
func queryStrings(c *fiber.Ctx, key string) []string {
	values := c.Context().QueryArgs().PeekMulti(key)
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

// queryTime parses an RFC 3339 timestamp parameter
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := queryString(c, key)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, apperrors.BadRequest("invalid " + key)
	}
	t = t.UTC()
	return &t, nil
}
