package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/server/interceptors"
)

type logoutReq struct {
	DeviceID   string `json:"device_id" validate:"omitempty,max=128"`
	AllDevices bool   `json:"all_devices"`
}

// Logout handles POST /logout. An empty body logs out the caller's own device.
func (h *Handler) Logout(c *fiber.Ctx) error {
	id, ok := interceptors.IdentityFrom(c.UserContext())
	if !ok {
		return unauthorized(c)
	}
	var req logoutReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	if err := h.svc.Logout(c.UserContext(), id.AccountID, id.DeviceID, req.DeviceID, req.AllDevices); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

type deviceReq struct {
	DeviceID  string `json:"device_id" validate:"omitempty,max=128"`
	PushToken string `json:"push_token" validate:"required,max=512"`
	Platform  string `json:"platform" validate:"required,oneof=android ios web"`
}

// RegisterDevice handles POST /devices.
func (h *Handler) RegisterDevice(c *fiber.Ctx) error {
	id, ok := interceptors.IdentityFrom(c.UserContext())
	if !ok {
		return unauthorized(c)
	}
	var req deviceReq
	if ok, err := parse(c, &req); !ok {
		return err
	}
	t, err := h.svc.RegisterDevice(c.UserContext(), id.AccountID, id.DeviceID, req.DeviceID, req.PushToken, req.Platform)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"device_id": t.DeviceID, "platform": t.Platform})
}

type sessionResp struct {
	DeviceID   string     `json:"device_id"`
	Active     bool       `json:"active"`
	Current    bool       `json:"current"`
	IPAddress  string     `json:"ip_address,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(c *fiber.Ctx) error {
	id, ok := interceptors.IdentityFrom(c.UserContext())
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.ListSessions(c.UserContext(), id.AccountID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]sessionResp, 0, len(list))
	for _, s := range list {
		out = append(out, sessionResp{
			DeviceID:   s.DeviceID,
			Active:     s.Active,
			Current:    s.DeviceID == id.DeviceID,
			IPAddress:  s.IPAddress,
			CreatedAt:  s.CreatedAt,
			LastSeenAt: s.LastSeenAt,
			RevokedAt:  s.RevokedAt,
		})
	}
	return c.JSON(fiber.Map{"sessions": out})
}
