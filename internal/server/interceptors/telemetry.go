package interceptors

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/telemetry"
)

// Telemetry returns middleware that records request count and duration per route.
// If m is nil, the middleware only passes through.
func Telemetry(m *telemetry.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if m == nil {
			return err
		}
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		m.HTTPRequest(c.UserContext(), c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
