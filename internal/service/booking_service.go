package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studiobook/internal/events"
	"studiobook/internal/lock"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
)

const defaultLockWait = 5 * time.Second

// BookingStore is the persistence the service depends on.
type BookingStore interface {
	InsertBooking(ctx context.Context, b *models.Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	FindByServiceAndDate(ctx context.Context, service, date string) ([]models.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
}

// EventPublisher receives booking lifecycle events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService struct {
	store    BookingStore
	locker   lock.Locker
	bus      EventPublisher
	lockWait time.Duration
	logger   *zerolog.Logger
}

// NewBookingService wires the service. A nil locker falls back to a
// process-local lock; a nil bus disables events.
func NewBookingService(store BookingStore, locker lock.Locker, bus EventPublisher, lockWait time.Duration, logger *zerolog.Logger) *BookingService {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if lockWait <= 0 {
		lockWait = defaultLockWait
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:    store,
		locker:   locker,
		bus:      bus,
		lockWait: lockWait,
		logger:   logger,
	}
}

// CreateBooking validates the input, rejects it if it overlaps an existing
// booking for the same service and date, and persists it otherwise.
// Check and insert run under a per-(service, date) lock.
func (s *BookingService) CreateBooking(ctx context.Context, in models.BookingInput) (*models.Booking, error) {
	candidate, err := NormalizeInput(in)
	if err != nil {
		metrics.IncBookingCreated(metrics.StatusInvalid)
		return nil, err
	}

	release, err := s.acquire(ctx, lock.SlotKey(candidate.Service, candidate.Date))
	if err != nil {
		metrics.IncBookingCreated(metrics.StatusError)
		return nil, &StoreError{Op: "lock", Err: err}
	}
	defer release()

	existing, err := s.store.FindByServiceAndDate(ctx, candidate.Service, candidate.Date)
	if err != nil {
		metrics.IncBookingCreated(metrics.StatusError)
		return nil, &StoreError{Op: "find", Err: err}
	}

	if conflict := FindConflict(candidate, existing); conflict != nil {
		metrics.IncBookingCreated(metrics.StatusConflict)
		s.logger.Info().
			Str("service", candidate.Service).
			Str("date", candidate.Date).
			Str("time", candidate.Time).
			Int64("conflicting_id", conflict.ID).
			Msg("booking rejected: time conflict")
		return nil, &ConflictError{
			Service:       candidate.Service,
			Date:          candidate.Date,
			ConflictingID: conflict.ID,
		}
	}

	if _, err := s.store.InsertBooking(ctx, candidate); err != nil {
		metrics.IncBookingCreated(metrics.StatusError)
		return nil, &StoreError{Op: "insert", Err: err}
	}

	metrics.IncBookingCreated(metrics.StatusCreated)
	s.logger.Info().
		Int64("booking_id", candidate.ID).
		Str("service", candidate.Service).
		Str("date", candidate.Date).
		Str("time", candidate.Time).
		Int("duration", candidate.Duration).
		Msg("booking created")

	s.publish(events.BookingCreated, candidate)
	return candidate, nil
}

// ListBookings returns every booking ordered by date, then time.
func (s *BookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return bookings, nil
}

// CancelBooking deletes a booking by id. Canceling an unknown id succeeds.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) error {
	existing, err := s.store.GetBooking(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return &StoreError{Op: "get", Err: err}
	}

	if err := s.store.DeleteBooking(ctx, id); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}

	if existing == nil {
		s.logger.Debug().Int64("booking_id", id).Msg("cancel of unknown booking ignored")
		return nil
	}

	metrics.IncBookingCanceled()
	s.logger.Info().Int64("booking_id", id).Str("service", existing.Service).Msg("booking canceled")
	s.publish(events.BookingCanceled, existing)
	return nil
}

func (s *BookingService) acquire(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	started := time.Now()
	release, err := s.locker.Lock(lockCtx, key)
	metrics.ObserveLockWait(time.Since(started).Seconds())
	return release, err
}

func (s *BookingService) publish(eventType string, b *models.Booking) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, b); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Int64("booking_id", b.ID).Msg("event handler failed")
	}
}

// NormalizeInput trims and validates the request and fills in defaults.
func NormalizeInput(in models.BookingInput) (*models.Booking, error) {
	b := &models.Booking{
		Name:    strings.TrimSpace(in.Name),
		Service: strings.TrimSpace(in.Service),
		Date:    strings.TrimSpace(in.Date),
		Time:    strings.TrimSpace(in.Time),
		Notes:   in.Notes,
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", b.Name},
		{"service", b.Service},
		{"date", b.Date},
		{"time", b.Time},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: MsgMissingFields, Fields: missing}
	}

	// Stored values are compared as text, so keep them zero-padded.
	day, err := time.Parse(models.DateLayout, b.Date)
	if err != nil {
		return nil, &ValidationError{Message: "invalid date format; expected YYYY-MM-DD", Fields: []string{"date"}}
	}
	clock, err := time.Parse(models.TimeLayout, b.Time)
	if err != nil {
		return nil, &ValidationError{Message: "invalid time format; expected HH:MM", Fields: []string{"time"}}
	}
	b.Date = day.Format(models.DateLayout)
	b.Time = clock.Format(models.TimeLayout)

	b.Duration = models.DefaultDurationMinutes
	if in.Duration != nil && *in.Duration > 0 {
		b.Duration = *in.Duration
	}
	return b, nil
}
