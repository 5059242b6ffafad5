package service

import (
	"fmt"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// EventPolicy decides whether an event may follow a person's history.
// A non-nil error rejects the report before anything is written.
type EventPolicy interface {
	Check(history models.EventHistory, next models.EventCode) error
}

// AnyTransition accepts every event in any order
type AnyTransition struct{}

// Check implements EventPolicy
func (AnyTransition) Check(models.EventHistory, models.EventCode) error {
	return nil
}

// AlternatingPerimeter requires ENTRY and EXIT to alternate and BREAK_END to
// close an open BREAK_START. A person's first event of each kind is free.
type AlternatingPerimeter struct{}

// Check implements EventPolicy
func (AlternatingPerimeter) Check(history models.EventHistory, next models.EventCode) error {
	switch next {
	case models.EventEntry, models.EventExit:
		if history.LastPerimeter != nil && *history.LastPerimeter == next {
			return fmt.Errorf("%w: %s twice in a row", models.ErrTransitionRejected, next.Label())
		}
	case models.EventBreakStart:
		if history.LastBreak != nil && *history.LastBreak == models.EventBreakStart {
			return fmt.Errorf("%w: break already started", models.ErrTransitionRejected)
		}
	case models.EventBreakEnd:
		if history.LastBreak == nil || *history.LastBreak != models.EventBreakStart {
			return fmt.Errorf("%w: no break to end", models.ErrTransitionRejected)
		}
	}
	return nil
}

// ParseEventPolicy resolves a configured policy name
func ParseEventPolicy(name string) (EventPolicy, error) {
	switch name {
	case "", "any":
		return AnyTransition{}, nil
	case "alternating":
		return AlternatingPerimeter{}, nil
	}
	return nil, fmt.Errorf("%w: unknown event policy %q", models.ErrInvalidInput, name)
}
