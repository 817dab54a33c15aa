package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arpanpramanik2003/smart-student-hub/internal/config"
	"github.com/arpanpramanik2003/smart-student-hub/internal/handler"
	"github.com/arpanpramanik2003/smart-student-hub/internal/middleware"
	"github.com/arpanpramanik2003/smart-student-hub/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler     *handler.ActivityHandler
	ReviewHandler       *handler.ReviewHandler
	ReportHandler       *handler.ReportHandler
	AdminUserHandler    *handler.AdminUserHandler
	AuditHandler        *handler.AuditHandler
	ProfileHandler      *handler.ProfileHandler
	FileHandler         *handler.FileHandler
	UploadHandler       *handler.UploadHandler
	NotificationHandler *handler.NotificationHandler
	HealthProbes        map[string]handler.HealthProbe
	JWTMiddleware       fiber.Handler
	// StreamJWTMiddleware also accepts ?token= for websocket and SSE clients.
	StreamJWTMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	streamMiddleware := deps.StreamJWTMiddleware
	if streamMiddleware == nil {
		streamMiddleware = jwtMiddleware
	}

	// Certificate proxy is opened in new browser tabs, which carry no bearer token.
	if deps.FileHandler != nil {
		files := api.Group("/files", middleware.FileCORS())
		deps.FileHandler.Register(files)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities", jwtMiddleware))
	}

	if deps.ReviewHandler != nil {
		reviews := api.Group("/reviews", jwtMiddleware, middleware.RequireReviewer())
		deps.ReviewHandler.Register(reviews)
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", jwtMiddleware))
	}

	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(api.Group("/profile", jwtMiddleware))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/uploads", jwtMiddleware))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", streamMiddleware))
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin"))
	if deps.AdminUserHandler != nil {
		deps.AdminUserHandler.Register(admin.Group("/users"))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(admin.Group("/audit-logs"))
	}
}
