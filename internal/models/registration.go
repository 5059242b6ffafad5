package models

import "fmt"

// EventCode is a perimeter-transition or break marker attached to a report
type EventCode int

const (
	EventExit       EventCode = 0 // left the authorized perimeter
	EventEntry      EventCode = 1 // entered the authorized perimeter
	EventBreakStart EventCode = 2
	EventBreakEnd   EventCode = 3
)

var eventLabels = map[EventCode]string{
	EventExit:       "Salió geocerca",
	EventEntry:      "Entró geocerca",
	EventBreakStart: "Inicio descanso",
	EventBreakEnd:   "Termino descanso",
}

// Label returns the display name of the event. Codes outside the
// fixed table render as "Evento {code}".
func (e EventCode) Label() string {
	if label, ok := eventLabels[e]; ok {
		return label
	}
	return fmt.Sprintf("Evento %d", int(e))
}

// Valid reports whether e is one of the four recognized codes
func (e EventCode) Valid() bool {
	_, ok := eventLabels[e]
	return ok
}

// EventRequest is the body of POST /api/v1/events
type EventRequest struct {
	PositionRequest
	Event *int `json:"event" binding:"required"`
}

// Report converts a bound request into an EventReport
func (r EventRequest) Report() EventReport {
	return EventReport{
		PositionReport: r.PositionRequest.Report(),
		Event:          EventCode(*r.Event),
	}
}

// EventReport is a position ping tagged with a perimeter/break event.
// Unlike a plain ping it is also appended to the registration history.
type EventReport struct {
	PositionReport
	Event EventCode
}

// Registration is one row of the event history that rollups aggregate
type Registration struct {
	ID               int64            `json:"id" db:"id"`
	PersonID         int64            `json:"person_id" db:"person_id"`
	GroupID          *int64           `json:"group_id,omitempty" db:"group_id"`
	FacilityID       int64            `json:"facility_id" db:"facility_id"`
	MunicipalityID   int64            `json:"municipality_id" db:"municipality_id"`
	StateID          int64            `json:"state_id" db:"state_id"`
	Latitude         float64          `json:"latitude" db:"latitude"`
	Longitude        float64          `json:"longitude" db:"longitude"`
	InsidePerimeter  bool             `json:"inside_perimeter" db:"inside_perimeter"`
	RegistrationType RegistrationType `json:"registration_type" db:"registration_type"`
	Event            EventCode        `json:"event" db:"event"`
	ObservedAt       int64            `json:"observed_at" db:"observed_at"` // Unix seconds
}

// EventHistory is what an event policy may consult about a person's past
type EventHistory struct {
	LastPerimeter *EventCode // last ENTRY or EXIT
	LastBreak     *EventCode // last BREAK_START or BREAK_END
}
