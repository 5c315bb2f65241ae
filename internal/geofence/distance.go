// Package geofence decides whether a login location is inside a school's geofence and records denials.
package geofence

import (
	"errors"
	"math"
)

// EarthRadiusM is the mean Earth radius used by the spherical approximation.
const EarthRadiusM = 6_371_000.0

// ErrInvalidCoordinate is returned for non-finite or out-of-range latitude/longitude.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 position in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether p is finite with latitude in [-90,90] and longitude in [-180,180].
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) || math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance in meters between a and b using the haversine formula.
func Distance(a, b Point) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, ErrInvalidCoordinate
	}
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLng := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, h)
	return 2 * EarthRadiusM * math.Asin(math.Sqrt(h)), nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
