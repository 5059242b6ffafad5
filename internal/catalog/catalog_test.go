package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

const sample = `
states:
  - {id: 1, name: Jalisco}
municipalities:
  - {id: 10, name: Guadalajara, state_id: 1}
facilities:
  - id: 100
    name: Hospital Civil
    latitude: 20.686
    longitude: -103.341
    municipality_id: 10
    state_id: 1
    perimeter:
      kind: circle
      center: {lat: 20.686, lng: -103.341}
      radius_m: 200
groups:
  - {id: 5, name: Turno A, facility_id: 100}
persons:
  - {id: 1000, name: Ana, group_id: 5, facility_id: 100, municipality_id: 10, state_id: 1}
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, c.Facilities, 1)
	require.NotNil(t, c.Facilities[0].Perimeter)
	assert.Equal(t, models.PerimeterCircle, c.Facilities[0].Perimeter.Kind)
	assert.Equal(t, 200.0, c.Facilities[0].Perimeter.RadiusMeters)

	require.Len(t, c.Persons, 1)
	require.NotNil(t, c.Persons[0].GroupID)
	assert.Equal(t, int64(5), *c.Persons[0].GroupID)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("states:\n  - {id: 1, name: X, capital: Y}\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Catalog {
		c, err := Parse([]byte(sample))
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Catalog)
	}{
		{"duplicate state", func(c *Catalog) { c.States = append(c.States, c.States[0]) }},
		{"orphan municipality", func(c *Catalog) { c.Municipalities[0].StateID = 2 }},
		{"facility state mismatch", func(c *Catalog) { c.Facilities[0].StateID = 2 }},
		{"bad perimeter", func(c *Catalog) { c.Facilities[0].Perimeter.RadiusMeters = 0 }},
		{"group on unknown facility", func(c *Catalog) { c.Groups[0].FacilityID = 999 }},
		{"person path mismatch", func(c *Catalog) { c.Persons[0].MunicipalityID = 11 }},
		{"person unknown group", func(c *Catalog) {
			g := int64(6)
			c.Persons[0].GroupID = &g
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), models.ErrInvalidInput)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.States, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
