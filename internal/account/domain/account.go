package domain

import (
	"errors"
	"strings"
	"time"

	"school-management/backend/internal/role"
)

// Account is a login identity inside one school tenant.
type Account struct {
	ID                 string
	TenantID           string
	Email              string
	Name               string
	Role               role.Role
	PasswordHash       string
	Active             bool
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if !a.Role.Valid() {
		return errors.New("role is invalid")
	}
	if a.PasswordHash == "" {
		return errors.New("password_hash is required")
	}
	a.Email = NormalizeEmail(a.Email)
	return nil
}
