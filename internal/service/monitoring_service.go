package service

import (
	"context"
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/repository"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/spatial"
)

// MonitoringService serves the live map feeds. It never clusters; consumers
// cluster client-side with the radii from Settings.
type MonitoringService struct {
	positionRepo     *repository.PositionRepository
	catalogRepo      *repository.CatalogRepository
	settings         models.MonitoringSettings
	geohashPrecision int
}

// NewMonitoringService creates a new monitoring service
func NewMonitoringService(positionRepo *repository.PositionRepository, catalogRepo *repository.CatalogRepository,
	settings models.MonitoringSettings, geohashPrecision int) *MonitoringService {
	return &MonitoringService{
		positionRepo:     positionRepo,
		catalogRepo:      catalogRepo,
		settings:         settings,
		geohashPrecision: geohashPrecision,
	}
}

// Positions returns every current position as a flat list ordered by person
// id, each with its marker treatment, geohash and perimeter agreement flag.
// A geohash filter keeps only the points inside that cell.
func (s *MonitoringService) Positions(ctx context.Context, filter models.MonitoringFilter) ([]models.MonitoringPoint, error) {
	var cell s2.Rect
	if filter.Geohash != "" {
		var ok bool
		if cell, ok = spatial.GeohashBounds(filter.Geohash); !ok {
			return nil, fmt.Errorf("%w: invalid geohash %q", models.ErrInvalidInput, filter.Geohash)
		}
	}

	points, err := s.positionRepo.ListForMonitoring(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring positions: %w", err)
	}

	if filter.Geohash != "" {
		inside := points[:0]
		for _, p := range points {
			if cell.ContainsLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude)) {
				inside = append(inside, p)
			}
		}
		points = inside
	}

	for i := range points {
		p := &points[i]
		p.Marker = models.MarkerFor(p.RegistrationType, p.InsidePerimeter)
		p.Geohash = spatial.EncodeGeohash(p.Latitude, p.Longitude, s.geohashPrecision)
		p.PerimeterAgrees = spatial.Agreement(p.Perimeter, p.Latitude, p.Longitude, p.InsidePerimeter)
	}

	return points, nil
}

// Facilities returns the facility catalog with perimeters
func (s *MonitoringService) Facilities(ctx context.Context, filter models.MonitoringFilter) ([]models.Facility, error) {
	facilities, err := s.catalogRepo.ListFacilities(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get facilities: %w", err)
	}
	return facilities, nil
}

// Settings returns the shared consumer configuration
func (s *MonitoringService) Settings() models.MonitoringSettings {
	return s.settings
}
