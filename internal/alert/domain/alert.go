package domain

import "time"

// Type classifies a security alert.
type Type string

const (
	TypeGeoLocationMissing    Type = "geo_location_missing"
	TypeGeofenceNotConfigured Type = "geofence_not_configured"
	TypeOutsideGeofence       Type = "outside_geofence"
)

// StatusOpen is the status every alert is created with; a review workflow elsewhere may change it.
const StatusOpen = "open"

// Alert is an append-only security record written when a login is denied by the geofence.
type Alert struct {
	ID        string
	TenantID  string
	AccountID string
	Type      Type
	Message   string
	DistanceM *int // nil when no distance could be computed
	Latitude  *float64
	Longitude *float64
	Status    string
	CreatedAt time.Time
}
