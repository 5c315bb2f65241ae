package domain

import (
	"errors"
	"strings"
	"time"
)

// Tenant is one school. Geofence is nil when the school has not configured one.
type Tenant struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	Geofence  *Geofence
	CreatedAt time.Time
}

// Geofence is the circle a geofenced role must log in from.
type Geofence struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
}

// NormalizeCode lowercases and trims a tenant code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// GeofenceFrom builds a Geofence from nullable columns. Any missing part, or a non-positive radius,
// means the geofence is not configured.
func GeofenceFrom(lat, lng, radius *float64) *Geofence {
	if lat == nil || lng == nil || radius == nil || *radius <= 0 {
		return nil
	}
	return &Geofence{Latitude: *lat, Longitude: *lng, RadiusM: *radius}
}

// Validate validates the tenant for persistence.
func (t *Tenant) Validate() error {
	t.Code = NormalizeCode(t.Code)
	if t.Code == "" {
		return errors.New("code is required")
	}
	if t.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
