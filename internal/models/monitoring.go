package models

// MarkerKind selects how a consumer draws a person on the live map
type MarkerKind string

const (
	MarkerClockedOut       MarkerKind = "clocked_out"
	MarkerOutsidePerimeter MarkerKind = "outside_perimeter"
	MarkerNormal           MarkerKind = "normal"
)

// MarkerFor picks the marker treatment. Clocked-out wins over the perimeter flag.
func MarkerFor(rt RegistrationType, inside bool) MarkerKind {
	if rt == ClockOut {
		return MarkerClockedOut
	}
	if !inside {
		return MarkerOutsidePerimeter
	}
	return MarkerNormal
}

// MonitoringPoint is one person on the live map
type MonitoringPoint struct {
	PersonID         int64            `json:"person_id" db:"person_id"`
	PersonName       string           `json:"person_name" db:"person_name"`
	Latitude         float64          `json:"latitude" db:"latitude"`
	Longitude        float64          `json:"longitude" db:"longitude"`
	ObservedAt       int64            `json:"observed_at" db:"observed_at"`
	InsidePerimeter  bool             `json:"inside_perimeter" db:"inside_perimeter"`
	RegistrationType RegistrationType `json:"registration_type" db:"registration_type"`
	Event            *EventCode       `json:"event" db:"event"`
	FacilityID       *int64           `json:"facility_id" db:"facility_id"`
	FacilityName     *string          `json:"facility_name" db:"facility_name"`
	MunicipalityID   *int64           `json:"municipality_id" db:"municipality_id"`
	StateID          *int64           `json:"state_id" db:"state_id"`
	Perimeter        *Perimeter       `json:"-" db:"perimeter"`

	// Derived
	Marker          MarkerKind `json:"marker" db:"-"`
	Geohash         string     `json:"geohash" db:"-"`
	PerimeterAgrees *bool      `json:"perimeter_agrees" db:"-"` // nil when the facility has no perimeter
}

// MonitoringSettings is the shared consumer configuration for the live map
type MonitoringSettings struct {
	RefreshSeconds         int `json:"refresh_seconds"`
	PersonnelClusterRadius int `json:"personnel_cluster_radius"`
	FacilityClusterRadius  int `json:"facility_cluster_radius"`
}
