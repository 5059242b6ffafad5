package spatial

import (
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// Contains reports whether (lat, lng) lies inside the perimeter.
// A malformed perimeter contains nothing.
func Contains(p models.Perimeter, lat, lng float64) bool {
	point := Point{Lat: lat, Lon: lng}
	switch p.Kind {
	case models.PerimeterCircle:
		if p.Center == nil {
			return false
		}
		return CircleContains(Point{Lat: p.Center.Lat, Lon: p.Center.Lng}, p.RadiusMeters, point)
	case models.PerimeterPolygon:
		polygon := make([]Point, len(p.Vertices))
		for i, v := range p.Vertices {
			polygon[i] = Point{Lat: v.Lat, Lon: v.Lng}
		}
		return PointInPolygon(point, polygon)
	}
	return false
}

// Agreement compares a device-reported perimeter flag with the server's own
// check. It returns nil when there is no perimeter to check against.
func Agreement(p *models.Perimeter, lat, lng float64, reported bool) *bool {
	if p == nil {
		return nil
	}
	agrees := Contains(*p, lat, lng) == reported
	return &agrees
}
