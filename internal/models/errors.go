package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a missing or malformed request field
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks an unresolved person, scope or unit id
	ErrNotFound = errors.New("not found")
	// ErrStaleReport marks a report rejected by the reject-stale policy
	ErrStaleReport = errors.New("stale report")
	// ErrForbidden marks a report for an identity other than the caller's
	ErrForbidden = errors.New("forbidden")
	// ErrTransitionRejected marks an event refused by the configured event policy
	ErrTransitionRejected = errors.New("event transition rejected")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
