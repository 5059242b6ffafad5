package models

// MonitoringFilter narrows the live map feeds
type MonitoringFilter struct {
	StateID        int64  `form:"state_id"`
	MunicipalityID int64  `form:"municipality_id"`
	FacilityID     int64  `form:"facility_id"`
	Geohash        string `form:"geohash"` // only points inside this cell
	Format         string `form:"format"`  // json (default) or msgpack
}

// RollupQuery is the raw scope and window of a rollup call
type RollupQuery struct {
	Level string `uri:"level"`
	ID    string `uri:"id"`
	Start string `form:"start"` // YYYY-MM-DD, inclusive
	End   string `form:"end"`   // YYYY-MM-DD, inclusive
	Limit int    `form:"limit"` // facility ranking only, 0 = all
}

// HistoryQuery selects one person's registrations in a window
type HistoryQuery struct {
	PersonID int64  `uri:"id" binding:"required"`
	Start    string `form:"start"`
	End      string `form:"end"`
}
