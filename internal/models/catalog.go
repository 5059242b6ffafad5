package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// PerimeterKind is the shape of a facility's authorized area
type PerimeterKind string

const (
	PerimeterCircle  PerimeterKind = "circle"
	PerimeterPolygon PerimeterKind = "polygon"
)

// LatLng is a coordinate in decimal degrees
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate lies in the geographic range
func (p LatLng) Valid() bool {
	return ValidCoordinates(p.Lat, p.Lng)
}

// ValidCoordinates reports whether lat/lng lie in [-90,90] x [-180,180]
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Perimeter is the authorized area of a facility: either a circle
// (center + radius) or a closed polygon.
type Perimeter struct {
	Kind         PerimeterKind `json:"kind" yaml:"kind"`
	Center       *LatLng       `json:"center,omitempty" yaml:"center,omitempty"`
	RadiusMeters float64       `json:"radius_m,omitempty" yaml:"radius_m,omitempty"`
	Vertices     []LatLng      `json:"vertices,omitempty" yaml:"vertices,omitempty"`
}

// Validate checks the perimeter is well formed for its kind
func (p Perimeter) Validate() error {
	switch p.Kind {
	case PerimeterCircle:
		if p.Center == nil || !p.Center.Valid() {
			return invalidf("circle perimeter needs a valid center")
		}
		if p.RadiusMeters <= 0 {
			return invalidf("circle perimeter needs a positive radius")
		}
	case PerimeterPolygon:
		if len(p.Vertices) < 3 {
			return invalidf("polygon perimeter needs at least 3 vertices, got %d", len(p.Vertices))
		}
		for i, v := range p.Vertices {
			if !v.Valid() {
				return invalidf("polygon vertex %d out of range", i)
			}
		}
	default:
		return invalidf("unknown perimeter kind %q", p.Kind)
	}
	return nil
}

// Value stores the perimeter as JSON text
func (p Perimeter) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a perimeter stored as JSON text
func (p *Perimeter) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), p)
	case []byte:
		return json.Unmarshal(v, p)
	}
	return fmt.Errorf("cannot scan %T into Perimeter", src)
}

// State is a top-level geographic unit
type State struct {
	ID   int64  `json:"id" db:"id" yaml:"id"`
	Name string `json:"name" db:"name" yaml:"name"`
}

// Municipality belongs to exactly one state
type Municipality struct {
	ID      int64  `json:"id" db:"id" yaml:"id"`
	Name    string `json:"name" db:"name" yaml:"name"`
	StateID int64  `json:"state_id" db:"state_id" yaml:"state_id"`
}

// Facility is a hospital or clinic with an authorized perimeter
type Facility struct {
	ID             int64      `json:"id" db:"id" yaml:"id"`
	Name           string     `json:"name" db:"name" yaml:"name"`
	Latitude       float64    `json:"latitude" db:"latitude" yaml:"latitude"`
	Longitude      float64    `json:"longitude" db:"longitude" yaml:"longitude"`
	Perimeter      *Perimeter `json:"perimeter,omitempty" db:"perimeter" yaml:"perimeter,omitempty"`
	MunicipalityID int64      `json:"municipality_id" db:"municipality_id" yaml:"municipality_id"`
	StateID        int64      `json:"state_id" db:"state_id" yaml:"state_id"`
}

// Group is a work group assigned to one facility
type Group struct {
	ID         int64  `json:"id" db:"id" yaml:"id"`
	Name       string `json:"name" db:"name" yaml:"name"`
	FacilityID int64  `json:"facility_id" db:"facility_id" yaml:"facility_id"`
}

// Person is a tracked employee and their place in the organizational tree
type Person struct {
	ID             int64  `json:"id" db:"id" yaml:"id"`
	Name           string `json:"name" db:"name" yaml:"name"`
	GroupID        *int64 `json:"group_id,omitempty" db:"group_id" yaml:"group_id,omitempty"`
	FacilityID     int64  `json:"facility_id" db:"facility_id" yaml:"facility_id"`
	MunicipalityID int64  `json:"municipality_id" db:"municipality_id" yaml:"municipality_id"`
	StateID        int64  `json:"state_id" db:"state_id" yaml:"state_id"`
}
