package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/auth"
	"school-management/backend/internal/otp"
)

type forgotReq struct {
	TenantCode string `json:"tenant_code" validate:"required,max=64"`
	Email      string `json:"email" validate:"required,email,max=254"`
}

// ForgotPassword handles POST /forgot-password. The response is the same whatever happened.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	h.svc.ForgotPassword(c.UserContext(), req.TenantCode, req.Email, clientIP(c))
	return c.JSON(fiber.Map{"message": forgotPasswordMessage})
}

type verifyReq struct {
	TenantCode string `json:"tenant_code" validate:"required,max=64"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Code       string `json:"code" validate:"required,numeric,max=10"`
}

// VerifyOtp handles POST /verify-otp. The code is not consumed.
func (h *Handler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	valid := h.svc.VerifyOtp(c.UserContext(), req.TenantCode, req.Email, req.Code)
	return c.JSON(fiber.Map{"valid": valid})
}

type resetReq struct {
	TenantCode         string `json:"tenant_code" validate:"required,max=64"`
	Email              string `json:"email" validate:"required,email,max=254"`
	Code               string `json:"code" validate:"required,numeric,max=10"`
	NewPassword        string `json:"new_password" validate:"required"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

// ResetPassword handles POST /reset-password. Only password input errors are reported; every code or
// account outcome gets the same generic body.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	err := h.svc.ResetPassword(c.UserContext(), auth.ResetPasswordInput{
		TenantCode:      req.TenantCode,
		Email:           req.Email,
		Code:            req.Code,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmNewPassword,
	})
	if err == nil || errors.Is(err, otp.ErrOtpInvalidOrExpired) || errors.Is(err, otp.ErrOtpAttemptsExhausted) {
		return c.JSON(fiber.Map{"message": resetPasswordMessage})
	}
	return writeError(c, err)
}
