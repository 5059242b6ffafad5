package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/metrics"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/repository"
)

// PositionOptions configures a PositionService. Zero values select
// last-write-wins, AnyTransition, no metrics, the wall clock, UTC days and
// DefaultMaxWindowDays.
type PositionOptions struct {
	Ordering      models.OrderingPolicy
	Events        EventPolicy
	Metrics       *metrics.Metrics
	Clock         func() time.Time
	Location      *time.Location
	MaxWindowDays int
}

// PositionService handles position ingestion
type PositionService struct {
	db            *database.DB
	positionRepo  *repository.PositionRepository
	registrations *repository.RegistrationRepository
	catalogRepo   *repository.CatalogRepository
	ordering      models.OrderingPolicy
	events        EventPolicy
	metrics       *metrics.Metrics
	now           func() time.Time
	location      *time.Location
	maxWindowDays int
}

// NewPositionService creates a new position service
func NewPositionService(db *database.DB, positionRepo *repository.PositionRepository,
	registrations *repository.RegistrationRepository, catalogRepo *repository.CatalogRepository,
	opts PositionOptions) *PositionService {

	if opts.Ordering == "" {
		opts.Ordering = models.LastWriteWins
	}
	if opts.Events == nil {
		opts.Events = AnyTransition{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxWindowDays <= 0 {
		opts.MaxWindowDays = DefaultMaxWindowDays
	}

	return &PositionService{
		db:            db,
		positionRepo:  positionRepo,
		registrations: registrations,
		catalogRepo:   catalogRepo,
		ordering:      opts.Ordering,
		events:        opts.Events,
		metrics:       opts.Metrics,
		now:           opts.Clock,
		location:      opts.Location,
		maxWindowDays: opts.MaxWindowDays,
	}
}

// Report stores a plain position ping as the person's current position.
// It appends nothing to the registration history.
func (s *PositionService) Report(ctx context.Context, report models.PositionReport) (*models.PositionAck, error) {
	if err := validateReport(report); err != nil {
		s.metrics.CountReport(metrics.OutcomeInvalid)
		return nil, err
	}

	observedAt := s.now().Unix()

	var ack models.PositionAck
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.requirePerson(ctx, tx, report.PersonID); err != nil {
			return err
		}

		var err error
		ack, err = s.positionRepo.Upsert(ctx, tx, report, nil, observedAt, s.ordering)
		return err
	})
	s.metrics.CountReport(outcomeOf(err))
	if err != nil {
		return nil, fmt.Errorf("failed to store position: %w", err)
	}

	return &ack, nil
}

// RecordEvent stores an event-tagged report: it replaces the current position
// and appends a registration row in one transaction.
func (s *PositionService) RecordEvent(ctx context.Context, report models.EventReport) (*models.PositionAck, error) {
	if err := validateReport(report.PositionReport); err != nil {
		s.metrics.CountReport(metrics.OutcomeInvalid)
		return nil, err
	}
	if !report.Event.Valid() {
		s.metrics.CountReport(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: unknown event code %d", models.ErrInvalidInput, report.Event)
	}

	observedAt := s.now().Unix()

	var ack models.PositionAck
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.requirePerson(ctx, tx, report.PersonID); err != nil {
			return err
		}

		history, err := s.registrations.LastEvents(ctx, tx, report.PersonID)
		if err != nil {
			return err
		}
		if err := s.events.Check(history, report.Event); err != nil {
			return err
		}

		event := report.Event
		ack, err = s.positionRepo.Upsert(ctx, tx, report.PositionReport, &event, observedAt, s.ordering)
		if err != nil {
			return err
		}

		return s.registrations.Append(ctx, tx, report, observedAt)
	})
	s.metrics.CountReport(outcomeOf(err))
	if err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}

	s.metrics.CountEvent(report.Event.Label())
	return &ack, nil
}

// Current returns the person's last stored position. Unknown persons and
// persons who never reported return ErrNotFound.
func (s *PositionService) Current(ctx context.Context, personID int64) (*models.CurrentPosition, error) {
	if err := s.requirePerson(ctx, s.db, personID); err != nil {
		return nil, err
	}

	position, err := s.positionRepo.Get(ctx, s.db, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current position: %w", err)
	}
	if position == nil {
		return nil, fmt.Errorf("%w: person %d has not reported a position", models.ErrNotFound, personID)
	}

	return position, nil
}

// History returns the person's event-tagged reports in the window, oldest first
func (s *PositionService) History(ctx context.Context, q models.HistoryQuery) ([]models.Registration, error) {
	window, err := models.ParseDateWindow(q.Start, q.End, s.location, s.maxWindowDays)
	if err != nil {
		return nil, err
	}
	if err := s.requirePerson(ctx, s.db, q.PersonID); err != nil {
		return nil, err
	}

	registrations, err := s.registrations.ListByPerson(ctx, q.PersonID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration history: %w", err)
	}

	return registrations, nil
}

func (s *PositionService) requirePerson(ctx context.Context, q sqlx.QueryerContext, personID int64) error {
	exists, err := s.catalogRepo.PersonExists(ctx, q, personID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: person %d", models.ErrNotFound, personID)
	}
	return nil
}

func validateReport(r models.PositionReport) error {
	if r.PersonID <= 0 {
		return fmt.Errorf("%w: person_id must be positive", models.ErrInvalidInput)
	}
	if !models.ValidCoordinates(r.Latitude, r.Longitude) {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range", models.ErrInvalidInput, r.Latitude, r.Longitude)
	}
	if !r.RegistrationType.Valid() {
		return fmt.Errorf("%w: registration_type must be 0 or 1", models.ErrInvalidInput)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeStored
	case errors.Is(err, models.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, models.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, models.ErrStaleReport):
		return metrics.OutcomeStale
	case errors.Is(err, models.ErrTransitionRejected):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
