package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/auth"
)

type loginReq struct {
	TenantCode string   `json:"tenant_code" validate:"required,max=64"`
	Email      string   `json:"email" validate:"required,email,max=254"`
	Password   string   `json:"password" validate:"required,max=128"`
	DeviceID   string   `json:"device_id" validate:"omitempty,max=128"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	PushToken  string   `json:"push_token" validate:"omitempty,max=512"`
	Platform   string   `json:"platform" validate:"omitempty,oneof=android ios web"`
}

type tokenResp struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type loginResp struct {
	tokenResp
	AccountID          string `json:"account_id"`
	TenantID           string `json:"tenant_id"`
	Role               string `json:"role"`
	DeviceID           string `json:"device_id"`
	MustChangePassword bool   `json:"must_change_password"`
}

func toTokenResp(p auth.TokenPair) tokenResp {
	return tokenResp{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(time.Until(p.AccessExpiresAt).Seconds()),
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

// Login handles POST /login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	res, err := h.svc.Login(c.UserContext(), auth.LoginInput{
		TenantCode: req.TenantCode,
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		PushToken:  req.PushToken,
		Platform:   req.Platform,
		IP:         clientIP(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(loginResp{
		tokenResp:          toTokenResp(res.TokenPair),
		AccountID:          res.AccountID,
		TenantID:           res.TenantID,
		Role:               string(res.Role),
		DeviceID:           res.DeviceID,
		MustChangePassword: res.MustChangePassword,
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	DeviceID     string `json:"device_id" validate:"omitempty,max=128"`
}

// Refresh handles POST /refresh.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	pair, err := h.svc.Refresh(c.UserContext(), req.RefreshToken, req.DeviceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTokenResp(*pair))
}
