package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newGatewayApp(token string) *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware(token))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/user/profile", func(c *fiber.Ctx) error { return c.SendString("profile") })
	return app
}

func TestGatewayAuth(t *testing.T) {
	app := newGatewayApp("s3cret")

	for _, tc := range []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing", "/user/profile", "", fiber.StatusUnauthorized},
		{"wrong", "/user/profile", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer", "/user/profile", "Bearer s3cret", fiber.StatusOK},
		{"raw", "/user/profile", "s3cret", fiber.StatusOK},
		{"health is open", "/health", "", fiber.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestGatewayAuthDisabledWithoutToken(t *testing.T) {
	resp, err := newGatewayApp("").Test(httptest.NewRequest("GET", "/user/profile", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
