// Package handler serves the read-only security alert feed of a tenant.
package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/alert/repository"
	"school-management/backend/internal/server/interceptors"
)

type alertResp struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	DistanceM *int      `json:"distance_m"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListHandler handles GET /security-alerts for the caller's tenant, newest first.
// Query: limit (1..100, default 50), offset.
func ListHandler(repo repository.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := interceptors.IdentityFrom(c.UserContext())
		if !ok || id.TenantID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error_code": "UNAUTHORIZED",
				"message":    "Authentication required",
			})
		}
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 100 {
			limit = 50
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}
		list, err := repo.ListByTenant(c.UserContext(), id.TenantID, limit, offset)
		if err != nil {
			log.Printf("alert: list for tenant %s failed: %v", id.TenantID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error_code": "SERVER_ERROR",
				"message":    "Internal server error",
			})
		}
		out := make([]alertResp, 0, len(list))
		for _, a := range list {
			out = append(out, alertResp{
				ID:        a.ID,
				AccountID: a.AccountID,
				Type:      string(a.Type),
				Message:   a.Message,
				DistanceM: a.DistanceM,
				Latitude:  a.Latitude,
				Longitude: a.Longitude,
				Status:    a.Status,
				CreatedAt: a.CreatedAt,
			})
		}
		return c.JSON(fiber.Map{"alerts": out, "limit": limit, "offset": offset})
	}
}
