package models

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateWindow is an inclusive range of calendar days resolved to instants in a
// location: Start is 00:00:00 of the first day, End is 23:59:59 of the last.
type DateWindow struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// ParseDateWindow parses a "YYYY-MM-DD" pair. Both bounds are required, start
// must not fall after end and the window may cover at most maxDays days
// (maxDays <= 0 means no limit).
func ParseDateWindow(start, end string, loc *time.Location, maxDays int) (DateWindow, error) {
	if start == "" || end == "" {
		return DateWindow{}, invalidf("start and end dates are required")
	}
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(dateLayout, start, loc)
	if err != nil {
		return DateWindow{}, invalidf("invalid start date %q", start)
	}
	e, err := time.ParseInLocation(dateLayout, end, loc)
	if err != nil {
		return DateWindow{}, invalidf("invalid end date %q", end)
	}
	if s.After(e) {
		return DateWindow{}, invalidf("start date %s is after end date %s", start, end)
	}
	if days := calendarDays(s, e); maxDays > 0 && days > int64(maxDays) {
		return DateWindow{}, invalidf("window %s..%s spans %d days, at most %d allowed", start, end, days, maxDays)
	}
	return DateWindow{
		Start:    s,
		End:      e.AddDate(0, 0, 1).Add(-time.Second),
		Location: loc,
	}, nil
}

// calendarDays counts the days from s to e inclusive by their wall dates
func calendarDays(s, e time.Time) int64 {
	sy, sm, sd := s.Date()
	ey, em, ed := e.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Unix()
	return (to-from)/86400 + 1
}

// Bounds returns the window as inclusive unix-second bounds
func (w DateWindow) Bounds() (int64, int64) {
	return w.Start.Unix(), w.End.Unix()
}

// Days returns the number of calendar days covered
func (w DateWindow) Days() int {
	return int(calendarDays(w.Start, w.End))
}

// DateOf returns the calendar date of a unix-second instant in the window's location
func (w DateWindow) DateOf(ts int64) string {
	return time.Unix(ts, 0).In(w.Location).Format(dateLayout)
}

func (w DateWindow) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(dateLayout), w.End.Format(dateLayout))
}
