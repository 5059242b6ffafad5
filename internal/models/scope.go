package models

import "strconv"

// ScopeLevel is one level of the organizational tree a rollup is computed over
type ScopeLevel string

const (
	LevelNational     ScopeLevel = "national" // whole tree, id ignored
	LevelState        ScopeLevel = "state"
	LevelMunicipality ScopeLevel = "municipality"
	LevelFacility     ScopeLevel = "facility"
)

// ParseScopeLevel parses a level path segment
func ParseScopeLevel(s string) (ScopeLevel, error) {
	switch ScopeLevel(s) {
	case LevelNational, LevelState, LevelMunicipality, LevelFacility:
		return ScopeLevel(s), nil
	}
	return "", invalidf("unknown scope level %q", s)
}

// ChildLevel returns the level whose units are the direct children of l.
// Facilities have no child level a rollup can group by.
func (l ScopeLevel) ChildLevel() (ScopeLevel, bool) {
	switch l {
	case LevelNational:
		return LevelState, true
	case LevelState:
		return LevelMunicipality, true
	case LevelMunicipality:
		return LevelFacility, true
	}
	return "", false
}

// Scope identifies one organizational unit
type Scope struct {
	Level ScopeLevel `json:"level"`
	ID    int64      `json:"id"`
}

// ParseScope parses the level and id path segments. The id of a national
// scope is not interpreted.
func ParseScope(level, id string) (Scope, error) {
	l, err := ParseScopeLevel(level)
	if err != nil {
		return Scope{}, err
	}
	if l == LevelNational {
		return Scope{Level: l}, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Scope{}, invalidf("invalid %s id %q", l, id)
	}
	return Scope{Level: l, ID: n}, nil
}
