package repository

import (
	"fmt"
	"strings"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// scopeColumn names the org-path column a scope level filters on.
// National scope filters on nothing.
func scopeColumn(level models.ScopeLevel) (string, error) {
	switch level {
	case models.LevelNational:
		return "", nil
	case models.LevelState:
		return "state_id", nil
	case models.LevelMunicipality:
		return "municipality_id", nil
	case models.LevelFacility:
		return "facility_id", nil
	}
	return "", fmt.Errorf("%w: unknown scope level %q", models.ErrInvalidInput, level)
}

// childTable names the table holding units of a child level
func childTable(level models.ScopeLevel) (string, error) {
	switch level {
	case models.LevelState:
		return "states", nil
	case models.LevelMunicipality:
		return "municipalities", nil
	case models.LevelFacility:
		return "facilities", nil
	}
	return "", fmt.Errorf("%w: %s units have no rollup children", models.ErrInvalidInput, level)
}

// scopeConditions appends the scope filter for a table alias
func scopeConditions(alias string, scope models.Scope, conditions []string, args []interface{}) ([]string, []interface{}, error) {
	col, err := scopeColumn(scope.Level)
	if err != nil {
		return nil, nil, err
	}
	if col != "" {
		conditions = append(conditions, fmt.Sprintf("%s.%s = ?", alias, col))
		args = append(args, scope.ID)
	}
	return conditions, args, nil
}

// windowConditions appends the inclusive observed_at bounds for a table alias
func windowConditions(alias string, window models.DateWindow, conditions []string, args []interface{}) ([]string, []interface{}) {
	start, end := window.Bounds()
	conditions = append(conditions, fmt.Sprintf("%s.observed_at BETWEEN ? AND ?", alias))
	args = append(args, start, end)
	return conditions, args
}

func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}
