package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/metrics"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/repository"
)

// DefaultMaxWindowDays bounds a rollup or history window when none is configured
const DefaultMaxWindowDays = 366

// RollupService computes the dashboard aggregates. Results are derived on
// every call and never cached.
type RollupService struct {
	rollupRepo    *repository.RollupRepository
	catalogRepo   *repository.CatalogRepository
	location      *time.Location
	maxWindowDays int
	metrics       *metrics.Metrics
}

// NewRollupService creates a new rollup service. Calendar days are cut in loc
// and windows longer than maxWindowDays are rejected.
func NewRollupService(rollupRepo *repository.RollupRepository, catalogRepo *repository.CatalogRepository,
	loc *time.Location, maxWindowDays int, m *metrics.Metrics) *RollupService {
	if loc == nil {
		loc = time.UTC
	}
	if maxWindowDays <= 0 {
		maxWindowDays = DefaultMaxWindowDays
	}
	return &RollupService{
		rollupRepo:    rollupRepo,
		catalogRepo:   catalogRepo,
		location:      loc,
		maxWindowDays: maxWindowDays,
		metrics:       m,
	}
}

// resolve parses the query and checks the scope exists
func (s *RollupService) resolve(ctx context.Context, q models.RollupQuery) (models.Scope, models.DateWindow, *models.UnitRef, error) {
	scope, err := models.ParseScope(q.Level, q.ID)
	if err != nil {
		return models.Scope{}, models.DateWindow{}, nil, err
	}
	window, err := models.ParseDateWindow(q.Start, q.End, s.location, s.maxWindowDays)
	if err != nil {
		return models.Scope{}, models.DateWindow{}, nil, err
	}
	unit, err := s.catalogRepo.ResolveUnit(ctx, scope)
	if err != nil {
		return models.Scope{}, models.DateWindow{}, nil, err
	}
	return scope, window, unit, nil
}

// Daily returns one row per calendar day of the window, oldest first.
// Days without entries or exits are reported as zeros.
func (s *RollupService) Daily(ctx context.Context, q models.RollupQuery) ([]models.DailyCount, error) {
	defer s.metrics.ObserveRollup("daily", time.Now())

	scope, window, _, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	days, err := s.rollupRepo.DailySeries(ctx, scope, window)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily series: %w", err)
	}

	byDate := make(map[string]dayTotals, len(days))
	for _, d := range days {
		byDate[d.Date] = dayTotals{Entries: d.Entries, Exits: d.Exits}
	}

	series := make([]models.DailyCount, 0, window.Days())
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		totals := byDate[date]
		series = append(series, models.DailyCount{Date: date, Entries: totals.Entries, Exits: totals.Exits})
	}

	return series, nil
}

// dayTotals is the entry and exit count of one day
type dayTotals struct {
	Entries int64
	Exits   int64
}

// Events returns the event distribution, labelled, ordered by event code
func (s *RollupService) Events(ctx context.Context, q models.RollupQuery) ([]models.EventCount, error) {
	defer s.metrics.ObserveRollup("events", time.Now())

	scope, window, _, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	counts, err := s.rollupRepo.EventDistribution(ctx, scope, window)
	if err != nil {
		return nil, fmt.Errorf("failed to get event distribution: %w", err)
	}

	events := make([]models.EventCount, 0, len(counts))
	for _, c := range counts {
		code := models.EventCode(c.Event)
		events = append(events, models.EventCount{EventCode: code, Label: code.Label(), Count: c.Count})
	}

	return events, nil
}

// FacilityRanking returns facilities by exit count, most first, ties by id
func (s *RollupService) FacilityRanking(ctx context.Context, q models.RollupQuery) ([]models.FacilityRank, error) {
	defer s.metrics.ObserveRollup("facility_ranking", time.Now())

	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", models.ErrInvalidInput)
	}

	scope, window, _, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	ranks, err := s.rollupRepo.FacilityRanking(ctx, scope, window, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get facility ranking: %w", err)
	}

	return ranks, nil
}

// Children returns one row per child unit name of the scope. The three
// sub-queries run concurrently; units with no employees are dropped and the
// rest are sorted by name.
func (s *RollupService) Children(ctx context.Context, q models.RollupQuery) ([]models.ChildRollup, error) {
	defer s.metrics.ObserveRollup("children", time.Now())

	scope, window, _, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	if _, ok := scope.Level.ChildLevel(); !ok {
		return nil, fmt.Errorf("%w: %s units have no rollup children", models.ErrInvalidInput, scope.Level)
	}

	var (
		facilities []models.NamedCount
		employees  []models.NamedCount
		activity   []models.NamedActivity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facilities, err = s.rollupRepo.ChildFacilityCounts(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.rollupRepo.ChildEmployeeCounts(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		activity, err = s.rollupRepo.ChildActivity(gctx, scope, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get child rollup: %w", err)
	}

	return MergeChildren(facilities, employees, activity), nil
}

// MergeChildren joins the three child sub-results on unit name. Parts missing
// for a name count as zero. Names with no employees are omitted.
func MergeChildren(facilities, employees []models.NamedCount, activity []models.NamedActivity) []models.ChildRollup {
	byName := make(map[string]*models.ChildRollup)
	row := func(name string) *models.ChildRollup {
		r, ok := byName[name]
		if !ok {
			r = &models.ChildRollup{UnitName: name}
			byName[name] = r
		}
		return r
	}

	for _, f := range facilities {
		row(f.Name).FacilityCount += f.Count
	}
	for _, e := range employees {
		row(e.Name).EmployeeCount += e.Count
	}
	for _, a := range activity {
		r := row(a.Name)
		r.Entries += a.Entries
		r.Exits += a.Exits
		r.ActivityUnits += a.ActivityUnits
	}

	children := make([]models.ChildRollup, 0, len(byName))
	for _, r := range byName {
		if r.EmployeeCount == 0 {
			continue
		}
		children = append(children, *r)
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].UnitName < children[j].UnitName
	})

	return children
}

// UnitDetail returns the headline numbers of one unit with its own and its
// parent's name. Unknown units return ErrNotFound.
func (s *RollupService) UnitDetail(ctx context.Context, q models.RollupQuery) (*models.UnitDetail, error) {
	defer s.metrics.ObserveRollup("unit_detail", time.Now())

	scope, window, unit, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	detail, err := s.rollupRepo.UnitCounts(ctx, scope, window)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit detail: %w", err)
	}
	detail.UnitName = unit.Name
	detail.ParentName = unit.ParentName

	return detail, nil
}
