package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// RegistrationRepository appends to the event history rollups aggregate
type RegistrationRepository struct {
	db *database.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Append inserts a history row, copying the person's org path as of now.
// Returns ErrNotFound when the person is unknown.
func (r *RegistrationRepository) Append(ctx context.Context, q sqlx.ExecerContext, report models.EventReport, observedAt int64) error {
	// Casts keep postgres from typing the bare parameters as text
	query := `INSERT INTO registrations
			(person_id, group_id, facility_id, municipality_id, state_id,
			latitude, longitude, inside_perimeter, registration_type, event, observed_at)
		SELECT p.id, p.group_id, p.facility_id, p.municipality_id, p.state_id,
			CAST(? AS DOUBLE PRECISION), CAST(? AS DOUBLE PRECISION), CAST(? AS BOOLEAN),
			CAST(? AS SMALLINT), CAST(? AS SMALLINT), CAST(? AS BIGINT)
		FROM persons p WHERE p.id = ?`

	res, err := q.ExecContext(ctx, r.db.Rebind(query),
		report.Latitude, report.Longitude, report.InsidePerimeter,
		int(report.RegistrationType), int(report.Event), observedAt,
		report.PersonID,
	)
	if err != nil {
		return fmt.Errorf("failed to append registration: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to append registration: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: person %d", models.ErrNotFound, report.PersonID)
	}

	return nil
}

// LastEvents returns the person's most recent perimeter and break events
func (r *RegistrationRepository) LastEvents(ctx context.Context, q sqlx.QueryerContext, personID int64) (models.EventHistory, error) {
	var history models.EventHistory

	last := func(codes string) (*models.EventCode, error) {
		query := `SELECT event FROM registrations
			WHERE person_id = ? AND event IN (` + codes + `)
			ORDER BY observed_at DESC, id DESC LIMIT 1`
		var code models.EventCode
		err := sqlx.GetContext(ctx, q, &code, r.db.Rebind(query), personID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query last event: %w", err)
		}
		return &code, nil
	}

	var err error
	if history.LastPerimeter, err = last("0, 1"); err != nil {
		return history, err
	}
	if history.LastBreak, err = last("2, 3"); err != nil {
		return history, err
	}

	return history, nil
}

// ListByPerson returns a person's registrations in a window, oldest first
func (r *RegistrationRepository) ListByPerson(ctx context.Context, personID int64, window models.DateWindow) ([]models.Registration, error) {
	start, end := window.Bounds()
	query := `SELECT id, person_id, group_id, facility_id, municipality_id, state_id,
		latitude, longitude, inside_perimeter, registration_type, event, observed_at
		FROM registrations
		WHERE person_id = ? AND observed_at BETWEEN ? AND ?
		ORDER BY observed_at, id`

	registrations := []models.Registration{}
	if err := r.db.SelectContext(ctx, &registrations, r.db.Rebind(query), personID, start, end); err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}

	return registrations, nil
}
