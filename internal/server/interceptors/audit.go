package interceptors

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/audit"
)

// Audit returns middleware that records an audit entry after each authenticated request.
// skipRoutes holds route paths (as registered) that are not audited. Recording is best-effort.
func Audit(logger audit.AuditLogger, skipRoutes map[string]bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if logger == nil {
			return err
		}
		route := c.Route().Path
		if skipRoutes[route] {
			return err
		}
		ctx := c.UserContext()
		id, ok := IdentityFrom(ctx)
		if !ok {
			return err
		}
		ar := audit.ParseRoute(c.Method(), route)
		logger.LogEvent(ctx, id.TenantID, id.AccountID, ar.Action, ar.Resource,
			fmt.Sprintf("status=%d device=%s", c.Response().StatusCode(), id.DeviceID))
		return err
	}
}
