package domain

import "time"

// AuditLog is one recorded auth or session event. TenantID and AccountID are empty when the
// event could not be attributed (e.g. a login for an unknown email).
type AuditLog struct {
	ID        string
	TenantID  string
	AccountID string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
