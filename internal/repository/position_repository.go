package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// PositionRepository handles the one-row-per-person current position table
type PositionRepository struct {
	db *database.DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

const upsertPositionSQL = `INSERT INTO current_positions
		(person_id, latitude, longitude, observed_at, captured_at, inside_perimeter, registration_type, event, revision)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	ON CONFLICT (person_id) DO UPDATE SET
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		observed_at = excluded.observed_at,
		captured_at = excluded.captured_at,
		inside_perimeter = excluded.inside_perimeter,
		registration_type = excluded.registration_type,
		event = excluded.event,
		revision = current_positions.revision + 1`

// A report without captured_at, or a stored row without one, cannot be judged stale
const rejectStaleSQL = `
	WHERE excluded.captured_at IS NULL
		OR current_positions.captured_at IS NULL
		OR excluded.captured_at >= current_positions.captured_at`

// Upsert replaces the person's current position with the report in a single
// statement. event is nil for plain pings. Under RejectStale a report older
// than the stored one leaves the row untouched and returns ErrStaleReport.
func (r *PositionRepository) Upsert(ctx context.Context, q sqlx.ExtContext, report models.PositionReport,
	event *models.EventCode, observedAt int64, policy models.OrderingPolicy) (models.PositionAck, error) {

	query := upsertPositionSQL
	if policy == models.RejectStale {
		query += rejectStaleSQL
	}

	var eventArg interface{}
	if event != nil {
		eventArg = int(*event)
	}

	res, err := q.ExecContext(ctx, r.db.Rebind(query),
		report.PersonID, report.Latitude, report.Longitude, observedAt, report.CapturedAt,
		report.InsidePerimeter, int(report.RegistrationType), eventArg,
	)
	if err != nil {
		return models.PositionAck{}, fmt.Errorf("failed to upsert position: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.PositionAck{}, fmt.Errorf("failed to upsert position: %w", err)
	}
	if affected == 0 {
		return models.PositionAck{}, fmt.Errorf("%w: person %d already has a newer report", models.ErrStaleReport, report.PersonID)
	}

	ack := models.PositionAck{Ack: true, PersonID: report.PersonID}
	row := q.QueryRowxContext(ctx, r.db.Rebind("SELECT observed_at, revision FROM current_positions WHERE person_id = ?"), report.PersonID)
	if err := row.Scan(&ack.ObservedAt, &ack.Revision); err != nil {
		return models.PositionAck{}, fmt.Errorf("failed to read back position: %w", err)
	}

	return ack, nil
}

// Get returns the person's current position, or nil if none was reported yet
func (r *PositionRepository) Get(ctx context.Context, q sqlx.QueryerContext, personID int64) (*models.CurrentPosition, error) {
	query := `SELECT person_id, latitude, longitude, observed_at, captured_at, inside_perimeter,
		registration_type, event, revision
		FROM current_positions WHERE person_id = ?`

	var p models.CurrentPosition
	err := sqlx.GetContext(ctx, q, &p, r.db.Rebind(query), personID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return &p, nil
}

// ListForMonitoring returns every current position joined with the person's
// facility, ordered by person id
func (r *PositionRepository) ListForMonitoring(ctx context.Context, filter models.MonitoringFilter) ([]models.MonitoringPoint, error) {
	query := `SELECT cp.person_id, COALESCE(p.name, '') AS person_name,
		cp.latitude, cp.longitude, cp.observed_at, cp.inside_perimeter, cp.registration_type, cp.event,
		p.facility_id, f.name AS facility_name, p.municipality_id, p.state_id, f.perimeter
		FROM current_positions cp
		LEFT JOIN persons p ON p.id = cp.person_id
		LEFT JOIN facilities f ON f.id = p.facility_id`

	var conditions []string
	var args []interface{}

	if filter.StateID > 0 {
		conditions = append(conditions, "p.state_id = ?")
		args = append(args, filter.StateID)
	}
	if filter.MunicipalityID > 0 {
		conditions = append(conditions, "p.municipality_id = ?")
		args = append(args, filter.MunicipalityID)
	}
	if filter.FacilityID > 0 {
		conditions = append(conditions, "p.facility_id = ?")
		args = append(args, filter.FacilityID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY cp.person_id"

	points := []models.MonitoringPoint{}
	if err := r.db.SelectContext(ctx, &points, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query monitoring positions: %w", err)
	}

	return points, nil
}
