package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    interface{}
		guard   fiber.Handler
		expects int
	}{
		{"faculty reviews", "faculty", RequireReviewer(), fiber.StatusOK},
		{"admin reviews", "Admin ", RequireReviewer(), fiber.StatusOK},
		{"student cannot review", "student", RequireReviewer(), fiber.StatusForbidden},
		{"faculty cannot manage users", "faculty", RequireRole("admin"), fiber.StatusForbidden},
		{"admin manages users", "admin", RequireRole("admin"), fiber.StatusOK},
		{"anonymous", nil, RequireRole("admin"), fiber.StatusUnauthorized},
		{"blank role", "  ", RequireReviewer(), fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.role != nil {
					c.Locals("user_role", tc.role)
				}
				return c.Next()
			})
			app.Use(tc.guard)
			app.Get("/reviews/pending", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reviews/pending", nil))
			require.NoError(t, err)
			require.Equal(t, tc.expects, resp.StatusCode)
		})
	}
}
