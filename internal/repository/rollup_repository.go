package repository

import (
	"context"
	"fmt"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// RollupRepository runs the windowed aggregate queries behind the dashboards.
// Every method is read-only and safe to call concurrently.
type RollupRepository struct {
	db *database.DB
}

// NewRollupRepository creates a new rollup repository
func NewRollupRepository(db *database.DB) *RollupRepository {
	return &RollupRepository{db: db}
}

// DayCount is the entry/exit count of one local calendar day
type DayCount struct {
	Date    string // YYYY-MM-DD in the window's location
	Entries int64
	Exits   int64
}

// slotSeconds is the counting granularity of the daily series. Every UTC
// offset and DST transition in the tz database falls on a 15 minute boundary,
// so a slot never straddles two local days.
const slotSeconds = 900

type slotCount struct {
	Slot    int64 `db:"slot"`
	Entries int64 `db:"entries"`
	Exits   int64 `db:"exits"`
}

// DailySeries counts ENTRY and EXIT registrations per local calendar day,
// ordered by date. Days without events are absent.
func (r *RollupRepository) DailySeries(ctx context.Context, scope models.Scope, window models.DateWindow) ([]DayCount, error) {
	conditions := []string{"r.event IN (0, 1)"}
	var args []interface{}
	conditions, args = windowConditions("r", window, conditions, args)
	conditions, args, err := scopeConditions("r", scope, conditions, args)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT r.observed_at / %d AS slot,
		SUM(CASE WHEN r.event = 1 THEN 1 ELSE 0 END) AS entries,
		SUM(CASE WHEN r.event = 0 THEN 1 ELSE 0 END) AS exits
		FROM registrations r`, slotSeconds) + where(conditions) + `
		GROUP BY slot ORDER BY slot`

	slots := []slotCount{}
	if err := r.db.SelectContext(ctx, &slots, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query daily series: %w", err)
	}

	days := []DayCount{}
	for _, s := range slots {
		date := window.DateOf(s.Slot * slotSeconds)
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Entries += s.Entries
			days[n-1].Exits += s.Exits
			continue
		}
		days = append(days, DayCount{Date: date, Entries: s.Entries, Exits: s.Exits})
	}

	return days, nil
}

// CodeCount is the number of registrations carrying one event code
type CodeCount struct {
	Event int   `db:"event"`
	Count int64 `db:"count"`
}

// EventDistribution counts registrations per event code
func (r *RollupRepository) EventDistribution(ctx context.Context, scope models.Scope, window models.DateWindow) ([]CodeCount, error) {
	conditions := []string{"r.event IS NOT NULL"}
	var args []interface{}
	conditions, args = windowConditions("r", window, conditions, args)
	conditions, args, err := scopeConditions("r", scope, conditions, args)
	if err != nil {
		return nil, err
	}

	query := `SELECT r.event AS event, COUNT(*) AS count
		FROM registrations r` + where(conditions) + `
		GROUP BY r.event ORDER BY r.event`

	counts := []CodeCount{}
	if err := r.db.SelectContext(ctx, &counts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query event distribution: %w", err)
	}

	return counts, nil
}

// FacilityRanking counts EXIT registrations per facility, most exits first and
// ties by ascending facility id. limit <= 0 returns every facility.
func (r *RollupRepository) FacilityRanking(ctx context.Context, scope models.Scope, window models.DateWindow, limit int) ([]models.FacilityRank, error) {
	conditions := []string{"r.event = 0"}
	var args []interface{}
	conditions, args = windowConditions("r", window, conditions, args)
	conditions, args, err := scopeConditions("r", scope, conditions, args)
	if err != nil {
		return nil, err
	}

	query := `SELECT f.id AS facility_id, f.name AS facility_name, COUNT(*) AS exits
		FROM registrations r
		JOIN facilities f ON f.id = r.facility_id` + where(conditions) + `
		GROUP BY f.id, f.name
		ORDER BY exits DESC, f.id ASC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	ranks := []models.FacilityRank{}
	if err := r.db.SelectContext(ctx, &ranks, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query facility ranking: %w", err)
	}

	return ranks, nil
}

// ChildFacilityCounts counts current facilities per child unit name
func (r *RollupRepository) ChildFacilityCounts(ctx context.Context, scope models.Scope) ([]models.NamedCount, error) {
	return r.childCounts(ctx, "facilities", scope)
}

// ChildEmployeeCounts counts current persons per child unit name
func (r *RollupRepository) ChildEmployeeCounts(ctx context.Context, scope models.Scope) ([]models.NamedCount, error) {
	return r.childCounts(ctx, "persons", scope)
}

// childCounts groups the rows of table by the display name of the child unit
// they belong to. Children sharing a name are summed.
func (r *RollupRepository) childCounts(ctx context.Context, table string, scope models.Scope) ([]models.NamedCount, error) {
	join, err := childJoin("t", table, scope.Level)
	if err != nil {
		return nil, err
	}
	conditions, args, err := scopeConditions("t", scope, nil, nil)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT c.name AS name, COUNT(*) AS count FROM %s t %s", table, join) +
		where(conditions) + " GROUP BY c.name"

	counts := []models.NamedCount{}
	if err := r.db.SelectContext(ctx, &counts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to count %s per child: %w", table, err)
	}

	return counts, nil
}

// activitySource is every windowable row with its org path: the event history
// plus current positions last written by a plain ping. A current row written
// by an event report already has its history row and is left out.
const activitySource = `(
		SELECT r.state_id, r.municipality_id, r.facility_id, r.observed_at, r.event, r.registration_type
		FROM registrations r
		UNION ALL
		SELECT p.state_id, p.municipality_id, p.facility_id, cp.observed_at, NULL AS event, cp.registration_type
		FROM current_positions cp
		JOIN persons p ON p.id = cp.person_id
		WHERE cp.event IS NULL
	) a`

// ChildActivity sums windowed entries, exits and clock-in rows per child unit
// name. Clock-in rows include plain pings still held as a current position.
func (r *RollupRepository) ChildActivity(ctx context.Context, scope models.Scope, window models.DateWindow) ([]models.NamedActivity, error) {
	join, err := childJoin("a", "activity", scope.Level)
	if err != nil {
		return nil, err
	}
	var conditions []string
	var args []interface{}
	conditions, args = windowConditions("a", window, conditions, args)
	conditions, args, err = scopeConditions("a", scope, conditions, args)
	if err != nil {
		return nil, err
	}

	query := `SELECT c.name AS name,
		SUM(CASE WHEN a.event = 1 THEN 1 ELSE 0 END) AS entries,
		SUM(CASE WHEN a.event = 0 THEN 1 ELSE 0 END) AS exits,
		SUM(CASE WHEN a.registration_type = 1 THEN 1 ELSE 0 END) AS activity_units
		FROM ` + activitySource + ` ` + join + where(conditions) + `
		GROUP BY c.name`

	activity := []models.NamedActivity{}
	if err := r.db.SelectContext(ctx, &activity, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query child activity: %w", err)
	}

	return activity, nil
}

// UnitCounts returns the headline numbers of one unit: current facility and
// employee counts plus windowed entries, exits and clock-in rows
func (r *RollupRepository) UnitCounts(ctx context.Context, scope models.Scope, window models.DateWindow) (*models.UnitDetail, error) {
	detail := &models.UnitDetail{Level: scope.Level, UnitID: scope.ID}

	conditions, args, err := scopeConditions("f", scope, nil, nil)
	if err != nil {
		return nil, err
	}
	// facilities carry their own id rather than a facility_id column
	if scope.Level == models.LevelFacility {
		conditions = []string{"f.id = ?"}
	}
	if err := r.db.GetContext(ctx, &detail.FacilityCount,
		r.db.Rebind("SELECT COUNT(*) FROM facilities f"+where(conditions)), args...); err != nil {
		return nil, fmt.Errorf("failed to count facilities: %w", err)
	}

	conditions, args, _ = scopeConditions("p", scope, nil, nil)
	if err := r.db.GetContext(ctx, &detail.EmployeeCount,
		r.db.Rebind("SELECT COUNT(*) FROM persons p"+where(conditions)), args...); err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}

	conditions, args = windowConditions("a", window, nil, nil)
	conditions, args, _ = scopeConditions("a", scope, conditions, args)
	query := `SELECT
		COALESCE(SUM(CASE WHEN a.event = 1 THEN 1 ELSE 0 END), 0) AS entries,
		COALESCE(SUM(CASE WHEN a.event = 0 THEN 1 ELSE 0 END), 0) AS exits,
		COALESCE(SUM(CASE WHEN a.registration_type = 1 THEN 1 ELSE 0 END), 0) AS activity_units
		FROM ` + activitySource + where(conditions)

	var activity models.NamedActivity
	if err := r.db.GetContext(ctx, &activity, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query unit activity: %w", err)
	}
	detail.Entries = activity.Entries
	detail.Exits = activity.Exits
	detail.ActivityUnits = activity.ActivityUnits

	return detail, nil
}

// childJoin joins the child units of a scope level onto alias
func childJoin(alias, table string, level models.ScopeLevel) (string, error) {
	child, ok := level.ChildLevel()
	if !ok {
		return "", fmt.Errorf("%w: %s units have no rollup children", models.ErrInvalidInput, level)
	}
	childTbl, err := childTable(child)
	if err != nil {
		return "", err
	}
	col, err := scopeColumn(child)
	if err != nil {
		return "", err
	}

	// A facility row is its own child unit
	if table == "facilities" && child == models.LevelFacility {
		return fmt.Sprintf("JOIN facilities c ON c.id = %s.id", alias), nil
	}
	return fmt.Sprintf("JOIN %s c ON c.id = %s.%s", childTbl, alias, col), nil
}
