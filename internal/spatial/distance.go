package spatial

import (
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// CircleContains reports whether point lies within radius meters of center
func CircleContains(center Point, radiusMeters float64, point Point) bool {
	if radiusMeters <= 0 {
		return false
	}
	return HaversineDistance(center.Lat, center.Lon, point.Lat, point.Lon) <= radiusMeters
}
