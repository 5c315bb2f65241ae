package interceptors

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/role"
	"school-management/backend/internal/security"
	"school-management/backend/internal/session"
)

const bearerPrefix = "bearer "

// SessionAuthorizer checks that a verified token still has a live session behind it.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, accountID, deviceID string, policy role.Policy) error
}

// Auth returns middleware that verifies the Bearer access token, checks the device session for
// device-bound roles and stores the caller's Identity in the request context.
// Revoking a session therefore rejects its unexpired access tokens on the next request.
func Auth(tokens *security.TokenProvider, sessions SessionAuthorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return reject(c, "UNAUTHORIZED", "Authentication required")
		}
		claims, err := tokens.Verify(token, security.KindAccess)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				return reject(c, "TOKEN_EXPIRED", "Token has expired")
			}
			return reject(c, "TOKEN_INVALID", "Token is invalid")
		}
		r := role.Role(claims.Role)
		ctx := c.UserContext()
		if err := sessions.Authorize(ctx, claims.AccountID(), claims.DeviceID, r.Policy()); err != nil {
			switch {
			case errors.Is(err, session.ErrDeviceBindingMissing):
				return reject(c, "DEVICE_BINDING_MISSING", "Token is not bound to a device")
			case errors.Is(err, session.ErrSessionRevoked):
				return reject(c, "SESSION_REVOKED", "Session has been revoked")
			}
			log.Printf("auth: session check failed for account %s: %v", claims.AccountID(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error_code": "SERVER_ERROR",
				"message":    "Internal server error",
			})
		}
		c.SetUserContext(WithIdentity(ctx, Identity{
			AccountID:  claims.AccountID(),
			TenantID:   claims.TenantID,
			TenantCode: claims.TenantCode,
			Email:      claims.Email,
			Role:       r,
			DeviceID:   claims.DeviceID,
		}))
		return c.Next()
	}
}

func reject(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error_code": code, "message": message})
}

// extractBearer returns the token of an "Authorization: Bearer <token>" header, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
