package domain

import "time"

// Session is the device-bound session of one account on one device. There is at most one row per
// (AccountID, DeviceID); a later login on the same pair reuses the row.
type Session struct {
	ID               string
	AccountID        string
	DeviceID         string
	RefreshTokenHash string // SHA-256 of the current refresh token; the raw token is never stored
	Active           bool
	IPAddress        string
	RevokedAt        *time.Time // nil while active
	LastSeenAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
