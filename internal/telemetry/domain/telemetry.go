package domain

import "time"

// Event is a security-relevant auth event (login outcome, geofence denial, reset) shipped as an OTel log record.
// Attributes must never carry passwords, codes or tokens.
type Event struct {
	TenantID   string
	AccountID  string
	DeviceID   string
	EventType  string
	Source     string
	Attributes map[string]string
	CreatedAt  time.Time
}
