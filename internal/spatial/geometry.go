package spatial

import (
	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// LatLng converts the point to an s2 coordinate
func (p Point) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// BoundingRect returns the lat/lng rectangle enclosing the points
func BoundingRect(points []Point) s2.Rect {
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(p.LatLng())
	}
	return rect
}

// PointInPolygon checks if a point is inside a polygon using ray casting.
// The polygon may be open or closed; the last edge wraps to the first vertex.
func PointInPolygon(point Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	// Cheap reject before walking the edges
	if !BoundingRect(polygon).ContainsLatLng(point.LatLng()) {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		if ((polygon[i].Lat > point.Lat) != (polygon[j].Lat > point.Lat)) &&
			(point.Lon < (polygon[j].Lon-polygon[i].Lon)*(point.Lat-polygon[i].Lat)/(polygon[j].Lat-polygon[i].Lat)+polygon[i].Lon) {
			inside = !inside
		}
		j = i
	}

	return inside
}
