package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/catalog"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// nationalUnitName is the display name of the whole tree
const nationalUnitName = "Nacional"

// CatalogRepository reads and imports the reference geography and facilities
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Import upserts a reference catalog in one transaction, parents first
func (r *CatalogRepository) Import(ctx context.Context, c *catalog.Catalog) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, s := range c.States {
			if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO states (id, name) VALUES (?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name`), s.ID, s.Name); err != nil {
				return fmt.Errorf("failed to import state %d: %w", s.ID, err)
			}
		}

		for _, m := range c.Municipalities {
			if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO municipalities (id, name, state_id) VALUES (?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name, state_id = excluded.state_id`),
				m.ID, m.Name, m.StateID); err != nil {
				return fmt.Errorf("failed to import municipality %d: %w", m.ID, err)
			}
		}

		for _, f := range c.Facilities {
			if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO facilities
					(id, name, latitude, longitude, perimeter, municipality_id, state_id)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name, latitude = excluded.latitude,
					longitude = excluded.longitude, perimeter = excluded.perimeter,
					municipality_id = excluded.municipality_id, state_id = excluded.state_id`),
				f.ID, f.Name, f.Latitude, f.Longitude, f.Perimeter, f.MunicipalityID, f.StateID); err != nil {
				return fmt.Errorf("failed to import facility %d: %w", f.ID, err)
			}
		}

		for _, g := range c.Groups {
			if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO work_groups (id, name, facility_id) VALUES (?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name, facility_id = excluded.facility_id`),
				g.ID, g.Name, g.FacilityID); err != nil {
				return fmt.Errorf("failed to import group %d: %w", g.ID, err)
			}
		}

		for _, p := range c.Persons {
			if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO persons
					(id, name, group_id, facility_id, municipality_id, state_id)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name, group_id = excluded.group_id,
					facility_id = excluded.facility_id, municipality_id = excluded.municipality_id,
					state_id = excluded.state_id`),
				p.ID, p.Name, p.GroupID, p.FacilityID, p.MunicipalityID, p.StateID); err != nil {
				return fmt.Errorf("failed to import person %d: %w", p.ID, err)
			}
		}

		return nil
	})
}

// PersonExists reports whether the person is in the reference catalog
func (r *CatalogRepository) PersonExists(ctx context.Context, q sqlx.QueryerContext, personID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, r.db.Rebind("SELECT COUNT(*) FROM persons WHERE id = ?"), personID)
	if err != nil {
		return false, fmt.Errorf("failed to look up person: %w", err)
	}
	return n > 0, nil
}

// ResolveUnit returns the unit's display name and its parent's.
// Returns ErrNotFound when the id does not exist at that level.
func (r *CatalogRepository) ResolveUnit(ctx context.Context, scope models.Scope) (*models.UnitRef, error) {
	var query string
	switch scope.Level {
	case models.LevelNational:
		return &models.UnitRef{Name: nationalUnitName}, nil
	case models.LevelState:
		query = `SELECT s.name AS name, '' AS parent_name FROM states s WHERE s.id = ?`
	case models.LevelMunicipality:
		query = `SELECT m.name AS name, s.name AS parent_name
			FROM municipalities m JOIN states s ON s.id = m.state_id
			WHERE m.id = ?`
	case models.LevelFacility:
		query = `SELECT f.name AS name, m.name AS parent_name
			FROM facilities f JOIN municipalities m ON m.id = f.municipality_id
			WHERE f.id = ?`
	default:
		return nil, fmt.Errorf("%w: unknown scope level %q", models.ErrInvalidInput, scope.Level)
	}

	var ref models.UnitRef
	err := r.db.GetContext(ctx, &ref, r.db.Rebind(query), scope.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d", models.ErrNotFound, scope.Level, scope.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve unit: %w", err)
	}

	return &ref, nil
}

// ListFacilities returns the facility catalog, ordered by id
func (r *CatalogRepository) ListFacilities(ctx context.Context, filter models.MonitoringFilter) ([]models.Facility, error) {
	query := `SELECT id, name, latitude, longitude, perimeter, municipality_id, state_id FROM facilities`

	var conditions []string
	var args []interface{}

	if filter.StateID > 0 {
		conditions = append(conditions, "state_id = ?")
		args = append(args, filter.StateID)
	}
	if filter.MunicipalityID > 0 {
		conditions = append(conditions, "municipality_id = ?")
		args = append(args, filter.MunicipalityID)
	}
	if filter.FacilityID > 0 {
		conditions = append(conditions, "id = ?")
		args = append(args, filter.FacilityID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	facilities := []models.Facility{}
	if err := r.db.SelectContext(ctx, &facilities, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}

	return facilities, nil
}
