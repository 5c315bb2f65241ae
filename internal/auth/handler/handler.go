// Package handler exposes the auth service over HTTP (fiber).
package handler

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/auth"
	"school-management/backend/internal/geofence"
	"school-management/backend/internal/otp"
	"school-management/backend/internal/ratelimit"
	"school-management/backend/internal/security"
	"school-management/backend/internal/server/interceptors"
	"school-management/backend/internal/session"
)

var validate = validator.New()

// Generic bodies of the anti-enumeration endpoints. They never depend on whether the account exists.
const (
	forgotPasswordMessage = "If the account exists, a reset code has been sent to its email."
	resetPasswordMessage  = "If the code was valid, the password has been reset."
)

// Handler serves /api/v1/auth.
type Handler struct {
	svc *auth.Service
}

// New returns a Handler backed by svc.
func New(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the auth routes on r. requireAuth guards the routes that need an access token.
func (h *Handler) Register(r fiber.Router, requireAuth fiber.Handler) {
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-otp", h.VerifyOtp)
	r.Post("/reset-password", h.ResetPassword)

	r.Post("/logout", requireAuth, h.Logout)
	r.Post("/devices", requireAuth, h.RegisterDevice)
	r.Get("/sessions", requireAuth, h.ListSessions)
}

type errorResponse struct {
	status  int
	code    string
	message string
}

// errorTable maps service sentinels to responses. Order matters only for wrapped errors.
var errorTable = []struct {
	err  error
	resp errorResponse
}{
	{auth.ErrInvalidCredentials, errorResponse{fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"}},
	{auth.ErrAccountDisabled, errorResponse{fiber.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled"}},
	{auth.ErrPasswordMismatch, errorResponse{fiber.StatusBadRequest, "PASSWORD_MISMATCH", "Passwords do not match"}},
	{auth.ErrPasswordPolicyViolation, errorResponse{fiber.StatusBadRequest, "PASSWORD_POLICY_VIOLATION", "Password does not meet the policy"}},
	{session.ErrDeviceBindingMissing, errorResponse{fiber.StatusBadRequest, "DEVICE_BINDING_MISSING", "A device id is required"}},
	{session.ErrSessionRevoked, errorResponse{fiber.StatusUnauthorized, "SESSION_REVOKED", "Session has been revoked"}},
	{security.ErrTokenExpired, errorResponse{fiber.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired"}},
	{security.ErrTokenInvalid, errorResponse{fiber.StatusUnauthorized, "TOKEN_INVALID", "Token is invalid"}},
	{geofence.ErrGeoLocationMissing, errorResponse{fiber.StatusForbidden, "GEO_LOCATION_MISSING", "Location is required to log in"}},
	{geofence.ErrGeofenceNotConfigured, errorResponse{fiber.StatusForbidden, "GEOFENCE_NOT_CONFIGURED", "School geofence is not configured"}},
	{geofence.ErrOutsideGeofence, errorResponse{fiber.StatusForbidden, "OUTSIDE_GEOFENCE", "Login is only allowed on school premises"}},
	{otp.ErrOtpAttemptsExhausted, errorResponse{fiber.StatusBadRequest, "OTP_ATTEMPTS_EXHAUSTED", "Too many attempts; request a new code"}},
	{otp.ErrOtpInvalidOrExpired, errorResponse{fiber.StatusBadRequest, "OTP_INVALID_OR_EXPIRED", "Code is invalid or expired"}},
	{ratelimit.ErrRateLimited, errorResponse{fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts; try again later"}},
}

func writeError(c *fiber.Ctx, err error) error {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return c.Status(e.resp.status).JSON(fiber.Map{"error_code": e.resp.code, "message": e.resp.message})
		}
	}
	log.Printf("auth: %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error_code": "SERVER_ERROR",
		"message":    "Internal server error",
	})
}

// parse decodes the JSON body into req and validates it. It writes the 400 response itself and
// returns false when the request is rejected.
func parse(c *fiber.Ctx, req any) (bool, error) {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Malformed request body",
			})
		}
	}
	if err := validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "VALIDATION_ERROR",
			"message":    err.Error(),
		})
	}
	return true, nil
}

func clientIP(c *fiber.Ctx) string {
	if ip := interceptors.ClientIP(c.UserContext()); ip != "" {
		return ip
	}
	return c.IP()
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error_code": "UNAUTHORIZED",
		"message":    "Authentication required",
	})
}
