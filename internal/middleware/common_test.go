package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newCORSApp() *fiber.App {
	logger := zerolog.Nop()
	app := fiber.New()
	Register(app, Config{Logger: &logger, AllowOrigins: "https://hub.example.edu"})

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	files := app.Group(FileProxyPrefix, FileCORS())
	files.Get("/view", ok)
	app.Get("/api/v1/activities/mine", ok)
	return app
}

func preflight(target, origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, target, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	return req
}

func TestFileRoutesPreflightAllowsAnyOrigin(t *testing.T) {
	app := newCORSApp()

	resp, err := app.Test(preflight("/api/v1/files/view", "https://elsewhere.example.com"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	methods := resp.Header.Get("Access-Control-Allow-Methods")
	require.Contains(t, methods, "GET")
	require.Contains(t, methods, "OPTIONS")
	require.NotContains(t, methods, "DELETE")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/view", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPIRoutesPreflightUsesConfiguredOrigins(t *testing.T) {
	app := newCORSApp()

	resp, err := app.Test(preflight("/api/v1/activities/mine", "https://hub.example.edu"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://hub.example.edu", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}
