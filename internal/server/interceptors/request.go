package interceptors

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestContext returns middleware that gives every request a deadline of timeout and records the client
// IP in the request context. Forwarding headers are honoured only when trustProxy is set.
func RequestContext(timeout time.Duration, trustProxy bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(WithClientIP(ctx, clientIP(c, trustProxy)))
		return c.Next()
	}
}

// clientIP returns the first X-Forwarded-For hop or X-Real-IP when trusted, else the peer address.
func clientIP(c *fiber.Ctx, trustProxy bool) string {
	if trustProxy {
		if v := strings.TrimSpace(c.Get(fiber.HeaderXForwardedFor)); v != "" {
			if i := strings.Index(v, ","); i > 0 {
				v = strings.TrimSpace(v[:i])
			}
			return v
		}
		if v := strings.TrimSpace(c.Get("X-Real-IP")); v != "" {
			return v
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
