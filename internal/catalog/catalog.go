// Package catalog loads the reference geography and facility catalog
// (states, municipalities, facilities, groups, persons) from YAML.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
)

// Catalog is the reference data the rollups group by
type Catalog struct {
	States         []models.State        `yaml:"states"`
	Municipalities []models.Municipality `yaml:"municipalities"`
	Facilities     []models.Facility     `yaml:"facilities"`
	Groups         []models.Group        `yaml:"groups"`
	Persons        []models.Person       `yaml:"persons"`
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ids are unique and every reference resolves. Persons and
// facilities must sit under the municipality and state their parents do.
func (c *Catalog) Validate() error {
	states := make(map[int64]bool, len(c.States))
	for _, s := range c.States {
		if s.ID <= 0 || s.Name == "" {
			return fmt.Errorf("%w: state %d needs a positive id and a name", models.ErrInvalidInput, s.ID)
		}
		if states[s.ID] {
			return fmt.Errorf("%w: duplicate state id %d", models.ErrInvalidInput, s.ID)
		}
		states[s.ID] = true
	}

	municipalities := make(map[int64]models.Municipality, len(c.Municipalities))
	for _, m := range c.Municipalities {
		if m.ID <= 0 || m.Name == "" {
			return fmt.Errorf("%w: municipality %d needs a positive id and a name", models.ErrInvalidInput, m.ID)
		}
		if _, dup := municipalities[m.ID]; dup {
			return fmt.Errorf("%w: duplicate municipality id %d", models.ErrInvalidInput, m.ID)
		}
		if !states[m.StateID] {
			return fmt.Errorf("%w: municipality %d references unknown state %d", models.ErrInvalidInput, m.ID, m.StateID)
		}
		municipalities[m.ID] = m
	}

	facilities := make(map[int64]models.Facility, len(c.Facilities))
	for _, f := range c.Facilities {
		if f.ID <= 0 || f.Name == "" {
			return fmt.Errorf("%w: facility %d needs a positive id and a name", models.ErrInvalidInput, f.ID)
		}
		if _, dup := facilities[f.ID]; dup {
			return fmt.Errorf("%w: duplicate facility id %d", models.ErrInvalidInput, f.ID)
		}
		m, ok := municipalities[f.MunicipalityID]
		if !ok {
			return fmt.Errorf("%w: facility %d references unknown municipality %d", models.ErrInvalidInput, f.ID, f.MunicipalityID)
		}
		if m.StateID != f.StateID {
			return fmt.Errorf("%w: facility %d state %d does not match municipality state %d", models.ErrInvalidInput, f.ID, f.StateID, m.StateID)
		}
		if !models.ValidCoordinates(f.Latitude, f.Longitude) {
			return fmt.Errorf("%w: facility %d coordinates out of range", models.ErrInvalidInput, f.ID)
		}
		if f.Perimeter != nil {
			if err := f.Perimeter.Validate(); err != nil {
				return fmt.Errorf("facility %d: %w", f.ID, err)
			}
		}
		facilities[f.ID] = f
	}

	groups := make(map[int64]models.Group, len(c.Groups))
	for _, g := range c.Groups {
		if _, dup := groups[g.ID]; dup {
			return fmt.Errorf("%w: duplicate group id %d", models.ErrInvalidInput, g.ID)
		}
		if _, ok := facilities[g.FacilityID]; !ok {
			return fmt.Errorf("%w: group %d references unknown facility %d", models.ErrInvalidInput, g.ID, g.FacilityID)
		}
		groups[g.ID] = g
	}

	persons := make(map[int64]bool, len(c.Persons))
	for _, p := range c.Persons {
		if p.ID <= 0 {
			return fmt.Errorf("%w: person id must be positive", models.ErrInvalidInput)
		}
		if persons[p.ID] {
			return fmt.Errorf("%w: duplicate person id %d", models.ErrInvalidInput, p.ID)
		}
		persons[p.ID] = true

		f, ok := facilities[p.FacilityID]
		if !ok {
			return fmt.Errorf("%w: person %d references unknown facility %d", models.ErrInvalidInput, p.ID, p.FacilityID)
		}
		if p.MunicipalityID != f.MunicipalityID || p.StateID != f.StateID {
			return fmt.Errorf("%w: person %d org path does not match facility %d", models.ErrInvalidInput, p.ID, f.ID)
		}
		if p.GroupID != nil {
			g, ok := groups[*p.GroupID]
			if !ok {
				return fmt.Errorf("%w: person %d references unknown group %d", models.ErrInvalidInput, p.ID, *p.GroupID)
			}
			if g.FacilityID != p.FacilityID {
				return fmt.Errorf("%w: person %d group %d belongs to another facility", models.ErrInvalidInput, p.ID, g.ID)
			}
		}
	}

	return nil
}
