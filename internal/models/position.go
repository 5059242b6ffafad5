package models

import "time"

// RegistrationType distinguishes an active (clocked-in) ping from an inactive one
type RegistrationType int

const (
	ClockOut RegistrationType = 0
	ClockIn  RegistrationType = 1
)

// Valid reports whether t is one of the two known registration types
func (t RegistrationType) Valid() bool {
	return t == ClockOut || t == ClockIn
}

// CurrentPosition is the single last-known position kept per tracked person
type CurrentPosition struct {
	PersonID         int64            `json:"person_id" db:"person_id"`
	Latitude         float64          `json:"latitude" db:"latitude"`
	Longitude        float64          `json:"longitude" db:"longitude"`
	ObservedAt       int64            `json:"observed_at" db:"observed_at"`           // Unix seconds, server clock
	CapturedAt       *int64           `json:"captured_at,omitempty" db:"captured_at"` // Unix seconds, device clock
	InsidePerimeter  bool             `json:"inside_perimeter" db:"inside_perimeter"`
	RegistrationType RegistrationType `json:"registration_type" db:"registration_type"`
	Event            *EventCode       `json:"event" db:"event"`
	Revision         int64            `json:"revision" db:"revision"` // bumped on every write
}

// PositionRequest is the body of POST /api/v1/positions.
// Pointers let the binding layer tell a missing field from a zero value.
type PositionRequest struct {
	PersonID         *int64     `json:"person_id" binding:"required"`
	Latitude         *float64   `json:"latitude" binding:"required"`
	Longitude        *float64   `json:"longitude" binding:"required"`
	InsidePerimeter  *bool      `json:"inside_perimeter" binding:"required"`
	RegistrationType *int       `json:"registration_type" binding:"required"`
	CapturedAt       *time.Time `json:"captured_at"` // optional, only consulted by the reject-stale policy
}

// Report converts a bound request into a PositionReport.
// Call only after binding succeeded.
func (r PositionRequest) Report() PositionReport {
	report := PositionReport{
		PersonID:         *r.PersonID,
		Latitude:         *r.Latitude,
		Longitude:        *r.Longitude,
		InsidePerimeter:  *r.InsidePerimeter,
		RegistrationType: RegistrationType(*r.RegistrationType),
	}
	if r.CapturedAt != nil {
		ts := r.CapturedAt.Unix()
		report.CapturedAt = &ts
	}
	return report
}

// PositionReport is one validated position ping
type PositionReport struct {
	PersonID         int64
	Latitude         float64
	Longitude        float64
	InsidePerimeter  bool
	RegistrationType RegistrationType
	CapturedAt       *int64
}

// PositionAck acknowledges a stored report
type PositionAck struct {
	Ack        bool  `json:"ack"`
	PersonID   int64 `json:"person_id"`
	ObservedAt int64 `json:"observed_at"`
	Revision   int64 `json:"revision"`
}

// OrderingPolicy decides what happens when a report arrives out of order
type OrderingPolicy string

const (
	// LastWriteWins stores whatever commits last, regardless of device time
	LastWriteWins OrderingPolicy = "last-write-wins"
	// RejectStale refuses reports whose captured_at is older than the stored one
	RejectStale OrderingPolicy = "reject-stale"
)

// ParseOrderingPolicy parses a configured policy name
func ParseOrderingPolicy(s string) (OrderingPolicy, error) {
	switch OrderingPolicy(s) {
	case LastWriteWins, RejectStale:
		return OrderingPolicy(s), nil
	}
	return "", invalidf("unknown ordering policy %q", s)
}
