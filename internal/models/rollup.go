package models

// DailyCount is one day of the entry/exit series
type DailyCount struct {
	Date    string `json:"date"` // YYYY-MM-DD in the configured timezone
	Entries int64  `json:"entries"`
	Exits   int64  `json:"exits"`
}

// EventCount is one bucket of the event distribution
type EventCount struct {
	EventCode EventCode `json:"event_code"`
	Label     string    `json:"label"`
	Count     int64     `json:"count"`
}

// FacilityRank is one row of the facility exit ranking
type FacilityRank struct {
	FacilityID   int64  `json:"facility_id" db:"facility_id"`
	FacilityName string `json:"facility_name" db:"facility_name"`
	Exits        int64  `json:"exits" db:"exits"`
}

// ChildRollup aggregates one child unit of a scope. Children sharing a display
// name are reported as one row.
type ChildRollup struct {
	UnitName      string `json:"unit_name"`
	FacilityCount int64  `json:"facility_count"`
	EmployeeCount int64  `json:"employee_count"`
	Entries       int64  `json:"entries"`
	Exits         int64  `json:"exits"`
	// ActivityUnits counts clock-in registrations in the window. It is exposed
	// as hours_worked but is not a duration.
	ActivityUnits int64 `json:"hours_worked"`
}

// UnitDetail is the headline numbers of a single unit
type UnitDetail struct {
	Level         ScopeLevel `json:"level"`
	UnitID        int64      `json:"unit_id"`
	UnitName      string     `json:"unit_name"`
	ParentName    string     `json:"parent_name,omitempty"`
	FacilityCount int64      `json:"facility_count"`
	EmployeeCount int64      `json:"employee_count"`
	Entries       int64      `json:"entries"`
	Exits         int64      `json:"exits"`
	ActivityUnits int64      `json:"hours_worked"` // clock-in count, see ChildRollup
}

// NamedCount is a count keyed by unit display name
type NamedCount struct {
	Name  string `db:"name"`
	Count int64  `db:"count"`
}

// NamedActivity is the windowed activity of units sharing a display name
type NamedActivity struct {
	Name          string `db:"name"`
	Entries       int64  `db:"entries"`
	Exits         int64  `db:"exits"`
	ActivityUnits int64  `db:"activity_units"`
}

// UnitRef is a resolved unit name with its parent's name
type UnitRef struct {
	Name       string `db:"name"`
	ParentName string `db:"parent_name"`
}
