package middleware

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrace/xtrace/internal/config"
)

func authTestApp(cfg config.AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg).Handler())
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/v1/l/batch", ok)
	app.Get("/api/public/projects", ok)
	app.Post("/api/public/otel/v1/traces", ok)
	app.Get("/api/public/traces", ok)
	return app
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAuthMiddleware(t *testing.T) {
	withKeys := config.AuthConfig{BearerToken: "token", PublicKey: "pk", SecretKey: "sk"}
	withoutKeys := config.AuthConfig{BearerToken: "token"}

	tests := []struct {
		name       string
		cfg        config.AuthConfig
		method     string
		path       string
		authHeader string
		wantStatus int
	}{
		{"valid bearer", withKeys, "POST", "/v1/l/batch", "Bearer token", 200},
		{"bearer with extra whitespace", withKeys, "POST", "/v1/l/batch", "Bearer  token ", 200},
		{"wrong bearer", withKeys, "POST", "/v1/l/batch", "Bearer nope", 401},
		{"missing header", withKeys, "POST", "/v1/l/batch", "", 401},
		{"valid basic", withKeys, "GET", "/api/public/traces", basicHeader("pk", "sk"), 200},
		{"wrong basic password", withKeys, "GET", "/api/public/traces", basicHeader("pk", "bad"), 401},
		{"basic without colon", withKeys, "GET", "/api/public/traces", "Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon")), 401},
		{"basic bad base64", withKeys, "GET", "/api/public/traces", "Basic %%%", 401},
		{"unknown scheme", withKeys, "GET", "/api/public/traces", "Digest abc", 401},

		// compatibility paths pass without credentials only when no key
		// pair is configured
		{"compat projects no header", withoutKeys, "GET", "/api/public/projects", "", 200},
		{"compat otel no header", withoutKeys, "POST", "/api/public/otel/v1/traces", "", 200},
		{"compat any basic accepted", withoutKeys, "GET", "/api/public/projects", basicHeader("anything", "goes"), 200},
		{"compat wrong bearer still rejected", withoutKeys, "GET", "/api/public/projects", "Bearer nope", 401},
		{"compat closed when keys configured", withKeys, "GET", "/api/public/projects", "", 401},
		{"non-compat path stays protected", withoutKeys, "GET", "/api/public/traces", "", 401},
		{"valid bearer on compat path", withoutKeys, "GET", "/api/public/projects", "Bearer token", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := authTestApp(tt.cfg)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusUnauthorized {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"message":"Unauthorized"}`, string(body))
			}
		})
	}
}

func TestParseAuthorization(t *testing.T) {
	kind, token, _, _ := parseAuthorization("Bearer abc")
	assert.Equal(t, authBearer, kind)
	assert.Equal(t, "abc", token)

	kind, _, user, pass := parseAuthorization(basicHeader("u", "p:with:colons"))
	assert.Equal(t, authBasic, kind)
	assert.Equal(t, "u", user)
	assert.Equal(t, "p:with:colons", pass)

	kind, _, _, _ = parseAuthorization("")
	assert.Equal(t, authNone, kind)
}
