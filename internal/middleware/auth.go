package middleware

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/xtrace/xtrace/internal/config"
	"github.com/xtrace/xtrace/internal/dto"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
)

// authKind classifies a parsed Authorization header
type authKind int

const (
	authNone authKind = iota
	authBearer
	authBasic
)

// compatPaths accept unauthenticated requests when no Basic credential pair
// is configured, so SDK clients can run against a bare deployment.
var compatPaths = map[string]struct{}{
	"/api/public/projects":       {},
	"/api/public/otel/v1/traces": {},
}

// AuthMiddleware guards the API routes
type AuthMiddleware struct {
	cfg config.AuthConfig
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(cfg config.AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// Handler authorizes a request by Bearer token or Basic credential pair.
// A Bearer token must match exactly; a Basic credential must match the
// configured public/secret key pair. Compatibility paths pass without valid
// credentials as long as no key pair is configured, unless the client sent a
// Bearer token, which is always checked.
func (m *AuthMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, token, username, password := parseAuthorization(c.Get(fiber.HeaderAuthorization))

		switch kind {
		case authBearer:
			if m.cfg.BearerToken != "" && token == m.cfg.BearerToken {
				return c.Next()
			}
		case authBasic:
			if m.cfg.PublicKey != "" && m.cfg.SecretKey != "" &&
				username == m.cfg.PublicKey && password == m.cfg.SecretKey {
				return c.Next()
			}
		}

		if _, compat := compatPaths[c.Path()]; compat && !m.cfg.KeysConfigured() {
			if kind == authNone || kind == authBasic {
				return c.Next()
			}
		}

		appErr := apperrors.Unauthorized("")
		return c.Status(appErr.StatusCode).JSON(dto.MessageResponse{Message: appErr.Message})
	}
}

// parseAuthorization splits an Authorization header into its scheme parts.
// Anything that does not decode cleanly is reported as authNone.
func parseAuthorization(value string) (kind authKind, token, username, password string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return authNone, "", "", ""
	}

	if rest, ok := strings.CutPrefix(value, "Bearer "); ok {
		return authBearer, strings.TrimSpace(rest), "", ""
	}

	if rest, ok := strings.CutPrefix(value, "Basic "); ok {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
		if err != nil || !utf8.Valid(decoded) {
			return authNone, "", "", ""
		}
		user, pass, found := strings.Cut(string(decoded), ":")
		if !found {
			return authNone, "", "", ""
		}
		return authBasic, "", user, pass
	}

	return authNone, "", "", ""
}
