package server

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	alerthandler "school-management/backend/internal/alert/handler"
	alertrepo "school-management/backend/internal/alert/repository"
	"school-management/backend/internal/audit"
	"school-management/backend/internal/auth"
	authhandler "school-management/backend/internal/auth/handler"
	"school-management/backend/internal/health"
	"school-management/backend/internal/platform/rbac"
	"school-management/backend/internal/security"
	"school-management/backend/internal/server/interceptors"
	"school-management/backend/internal/telemetry"
)

// HTTPDeps holds everything the HTTP API needs.
type HTTPDeps struct {
	Auth     *auth.Service
	Tokens   *security.TokenProvider
	Sessions interceptors.SessionAuthorizer
	Alerts   alertrepo.Repository
	Audit    audit.AuditLogger
	Metrics  *telemetry.Metrics
	// Health backs /healthz; nil always reports ok.
	Health *health.Checker

	RequestTimeout    time.Duration
	TrustProxyHeaders bool
}

// NewHTTPApp builds the fiber app serving /api/v1 and /healthz.
func NewHTTPApp(deps HTTPDeps) *fiber.App {
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(interceptors.RequestContext(deps.RequestTimeout, deps.TrustProxyHeaders))
	app.Use(interceptors.Telemetry(deps.Metrics))
	app.Use(interceptors.Audit(deps.Audit, map[string]bool{"/healthz": true}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if deps.Health != nil {
			if err := deps.Health.Check(c.UserContext()); err != nil {
				log.Printf("http: healthz: %v", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	requireAuth := interceptors.Auth(deps.Tokens, deps.Sessions)
	api := app.Group("/api/v1")
	authhandler.New(deps.Auth).Register(api.Group("/auth"), requireAuth)
	api.Get("/security-alerts", requireAuth, rbac.RequireOversight(), alerthandler.ListHandler(deps.Alerts))

	return app
}

// errorHandler keeps unmatched routes and framework errors in the {"error_code","message"} shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	errCode := "SERVER_ERROR"
	message := "Internal server error"
	switch code {
	case fiber.StatusNotFound:
		errCode, message = "NOT_FOUND", "Route not found"
	case fiber.StatusMethodNotAllowed:
		errCode, message = "METHOD_NOT_ALLOWED", "Method not allowed"
	case fiber.StatusRequestEntityTooLarge:
		errCode, message = "PAYLOAD_TOO_LARGE", "Request body too large"
	default:
		if code < fiber.StatusInternalServerError && fe != nil {
			errCode, message = "BAD_REQUEST", fe.Message
		} else {
			log.Printf("http: %s %s: %v", c.Method(), c.Path(), err)
		}
	}
	return c.Status(code).JSON(fiber.Map{"error_code": errCode, "message": message})
}
