package domain

import (
	"errors"
	"time"
)

// Platforms accepted for push registration.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

// Token maps an account's device to the token the push gateway delivers to.
// There is at most one row per (AccountID, DeviceID).
type Token struct {
	ID         string
	AccountID  string
	DeviceID   string
	PushToken  string
	Platform   string
	LastSeenAt time.Time
	CreatedAt  time.Time
}

// Validate validates the token for persistence.
func (t *Token) Validate() error {
	if t.AccountID == "" || t.DeviceID == "" {
		return errors.New("account_id and device_id are required")
	}
	if t.PushToken == "" {
		return errors.New("push_token is required")
	}
	return nil
}
