package geofence

import (
	"errors"
	"math"

	tenantdomain "school-management/backend/internal/tenant/domain"
)

var (
	// ErrGeoLocationMissing denies a geofenced login that carries no coordinates.
	ErrGeoLocationMissing = errors.New("geolocation missing")
	// ErrGeofenceNotConfigured denies a geofenced login when the school has no geofence.
	ErrGeofenceNotConfigured = errors.New("geofence not configured")
	// ErrOutsideGeofence denies a login from farther than the configured radius.
	ErrOutsideGeofence = errors.New("outside geofence")
)

// Decision is the outcome of Decide. Err is nil when the login is allowed.
type Decision struct {
	Err       error
	DistanceM *int // rounded meters; nil when no distance was computed
}

// Allowed reports whether the login may proceed.
func (d Decision) Allowed() bool { return d.Err == nil }

// Decide evaluates the geofence rules in order: missing location, missing geofence, distance over radius.
// A point outside the valid coordinate range counts as missing. A school without a geofence denies;
// it never allows by default.
func Decide(fence *tenantdomain.Geofence, at *Point) Decision {
	if at == nil || !at.Valid() {
		return Decision{Err: ErrGeoLocationMissing}
	}
	if fence == nil || fence.RadiusM <= 0 {
		return Decision{Err: ErrGeofenceNotConfigured}
	}
	d, err := Distance(Point{Latitude: fence.Latitude, Longitude: fence.Longitude}, *at)
	if err != nil {
		return Decision{Err: ErrGeofenceNotConfigured}
	}
	rounded := int(math.Round(d))
	if d > fence.RadiusM {
		return Decision{Err: ErrOutsideGeofence, DistanceM: &rounded}
	}
	return Decision{DistanceM: &rounded}
}
