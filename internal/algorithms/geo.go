package algorithms

import (
	"errors"
	"fmt"
	"math"

	"ngo_connect_backend/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// DistanceKm returns the great-circle (haversine) distance between a and b.
// NaN or infinite input propagates to the result; validate at the boundary
// with ValidatePoint.
func DistanceKm(a, b models.GeoPoint) float64 {
	dLat := deg2rad(b.Latitude - a.Latitude)
	dLon := deg2rad(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat +
		math.Cos(deg2rad(a.Latitude))*math.Cos(deg2rad(b.Latitude))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// ValidatePoint rejects non-finite coordinates and values outside
// [-90, 90] / [-180, 180]. The error wraps ErrInvalidCoordinates.
func ValidatePoint(p models.GeoPoint) error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, p.Longitude)
	}
	return nil
}
