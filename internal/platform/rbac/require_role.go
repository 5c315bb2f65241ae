// Package rbac guards routes by the caller's role.
package rbac

import (
	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/role"
	"school-management/backend/internal/server/interceptors"
)

// RequireRole returns middleware that lets the request through only when the authenticated caller has one
// of roles. It must run after interceptors.Auth. Responds 401 without an identity and 403 for other roles.
func RequireRole(roles ...role.Role) fiber.Handler {
	allowed := make(map[role.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		id, ok := interceptors.IdentityFrom(c.UserContext())
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error_code": "UNAUTHORIZED",
				"message":    "Authentication required",
			})
		}
		if !allowed[id.Role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error_code": "FORBIDDEN",
				"message":    "Role " + string(id.Role) + " may not access this resource",
			})
		}
		return c.Next()
	}
}

// RequireOversight allows only the role that receives the tenant's security alerts.
func RequireOversight() fiber.Handler {
	return RequireRole(role.OversightRole())
}
