package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/events"
	"studiodesk/internal/finance"
	"studiodesk/internal/metrics"
	"studiodesk/internal/models"
	"studiodesk/internal/worker"

	"github.com/rs/zerolog"
)

// BookingDetails is a stored booking together with its derived financials.
type BookingDetails struct {
	models.Booking
	Financials finance.View `json:"financials"`
}

// BookingService runs booking use cases: validation and transitions through
// finance, persistence through the store, then events and sheet sync.
type BookingService struct {
	store        domain.BookingStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	now          func() time.Time
	logger       *zerolog.Logger
}

// NewBookingService wires the service. eventBus and sheetsWorker may be nil.
func NewBookingService(store domain.BookingStore, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:        store,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		now:          time.Now,
		logger:       logger,
	}
}

// Today is the service clock's current time.
func (s *BookingService) Today() time.Time {
	return s.now()
}

func (s *BookingService) details(b models.Booking, today time.Time) BookingDetails {
	return BookingDetails{Booking: b, Financials: finance.Derive(b, today)}
}

func (s *BookingService) listAll(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings failed")
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// List returns bookings matching query and the quick filter tag, newest first.
func (s *BookingService) List(ctx context.Context, query, filter string) ([]BookingDetails, error) {
	tag, err := finance.ParseTag(filter)
	if err != nil {
		return nil, err
	}
	bookings, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	filtered := finance.FilterBookings(bookings, query, tag, today)
	out := make([]BookingDetails, 0, len(filtered))
	for _, b := range filtered {
		out = append(out, s.details(b, today))
	}
	return out, nil
}

// All returns every stored booking without derivation.
func (s *BookingService) All(ctx context.Context) ([]models.Booking, error) {
	return s.listAll(ctx)
}

func (s *BookingService) Get(ctx context.Context, id string) (*BookingDetails, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		s.logStoreError(err, "get booking", id)
		return nil, err
	}
	d := s.details(*b, s.now())
	return &d, nil
}

// Create validates the submission and stores a new booking.
func (s *BookingService) Create(ctx context.Context, in models.BookingInput) (*BookingDetails, error) {
	b, err := finance.ValidateCreate(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateBooking(ctx, &b); err != nil {
		s.logger.Error().Err(err).Msg("create booking failed")
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.logger.Info().Str("booking_id", b.ID).Str("booking_number", b.BookingNumber).Msg("booking created")

	s.publishEvent(events.EventBookingCreated, b, 0)
	if b.Advance > 0 {
		s.publishEvent(events.EventPaymentReceived, b, b.Advance)
	}
	s.enqueueSync(ctx, b, worker.TaskUpsert)

	d := s.details(b, s.now())
	return &d, nil
}

// Edit applies a partial update. Terminal bookings are rejected.
func (s *BookingService) Edit(ctx context.Context, id string, in models.BookingInput) (*BookingDetails, error) {
	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		s.logStoreError(err, "get booking", id)
		return nil, err
	}

	patch, err := finance.ValidateEdit(*current, in)
	if err != nil {
		metrics.IncTransition(finance.ActionEdit, "rejected")
		return nil, err
	}
	if patch.IsEmpty() {
		d := s.details(*current, s.now())
		return &d, nil
	}

	patch.OnlyIfOpen = true
	updated, err := s.store.UpdateBooking(ctx, id, patch)
	if errors.Is(err, domain.ErrConflict) {
		metrics.IncTransition(finance.ActionEdit, "rejected")
		return nil, closedMeanwhile(finance.ActionEdit, id)
	}
	if err != nil {
		metrics.IncTransition(finance.ActionEdit, "error")
		s.logStoreError(err, "update booking", id)
		return nil, fmt.Errorf("update booking: %w", err)
	}
	metrics.IncTransition(finance.ActionEdit, "ok")

	s.publishEvent(events.EventBookingUpdated, *updated, 0)
	if received := updated.Advance - current.Advance; received > 0 {
		s.publishEvent(events.EventPaymentReceived, *updated, received)
	}
	s.enqueueSync(ctx, *updated, worker.TaskUpsert)

	d := s.details(*updated, s.now())
	return &d, nil
}

func (s *BookingService) Cancel(ctx context.Context, id string) (*BookingDetails, error) {
	return s.transition(ctx, id, finance.ActionCancel)
}

func (s *BookingService) Complete(ctx context.Context, id string) (*BookingDetails, error) {
	return s.transition(ctx, id, finance.ActionComplete)
}

func (s *BookingService) Confirm(ctx context.Context, id string) (*BookingDetails, error) {
	return s.transition(ctx, id, finance.ActionConfirm)
}

var transitionEvents = map[string]string{
	finance.ActionCancel:   events.EventBookingCancelled,
	finance.ActionComplete: events.EventBookingCompleted,
	finance.ActionConfirm:  events.EventBookingConfirmed,
}

// transition runs a status-changing action. A rejected action touches
// neither the store nor the notification sink.
func (s *BookingService) transition(ctx context.Context, id, action string) (*BookingDetails, error) {
	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		s.logStoreError(err, "get booking", id)
		return nil, err
	}

	patch, err := finance.ApplyTransition(*current, action)
	if err != nil {
		metrics.IncTransition(action, "rejected")
		s.logger.Info().Err(err).Str("booking_id", id).Str("action", action).Msg("transition rejected")
		return nil, err
	}

	patch.OnlyIfOpen = true
	updated, err := s.store.UpdateBooking(ctx, id, patch)
	if errors.Is(err, domain.ErrConflict) {
		metrics.IncTransition(action, "rejected")
		s.logger.Info().Str("booking_id", id).Str("action", action).Msg("booking closed by a concurrent request")
		return nil, closedMeanwhile(action, id)
	}
	if err != nil {
		metrics.IncTransition(action, "error")
		s.logStoreError(err, action+" booking", id)
		return nil, fmt.Errorf("%s booking: %w", action, err)
	}
	metrics.IncTransition(action, "ok")
	s.logger.Info().Str("booking_id", id).Str("action", action).Str("status", updated.Status).Msg("booking transitioned")

	s.publishEvent(transitionEvents[action], *updated, 0)
	s.enqueueSync(ctx, *updated, worker.TaskUpdateStatus)

	d := s.details(*updated, s.now())
	return &d, nil
}

func (s *BookingService) Delete(ctx context.Context, id string) error {
	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		s.logStoreError(err, "get booking", id)
		return err
	}
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		s.logStoreError(err, "delete booking", id)
		return fmt.Errorf("delete booking: %w", err)
	}
	s.publishEvent(events.EventBookingDeleted, *current, 0)
	s.enqueueSync(ctx, *current, worker.TaskDelete)
	return nil
}

// DuePayments lists outstanding bookings, optionally narrowed to one urgency
// tier.
func (s *BookingService) DuePayments(ctx context.Context, status string) ([]finance.DueEntry, error) {
	urgency, err := finance.ParseUrgencyFilter(status)
	if err != nil {
		return nil, err
	}
	bookings, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return finance.DuePayments(bookings, urgency, s.now()), nil
}

func (s *BookingService) Dashboard(ctx context.Context) (finance.Summary, error) {
	bookings, err := s.listAll(ctx)
	if err != nil {
		return finance.Summary{}, err
	}
	summary := finance.Summarize(bookings, s.now())
	metrics.SetOutstandingDue(summary.OutstandingDue)
	return summary, nil
}

// Upcoming lists open bookings in the next days days, soonest first.
func (s *BookingService) Upcoming(ctx context.Context, days int) ([]BookingDetails, error) {
	bookings, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now()
	upcoming := finance.Upcoming(bookings, today, days)
	out := make([]BookingDetails, 0, len(upcoming))
	for _, b := range upcoming {
		out = append(out, s.details(b, today))
	}
	return out, nil
}

func (s *BookingService) publishEvent(eventType string, b models.Booking, amount float64) {
	if s.eventBus == nil {
		return
	}
	payload := events.NewBookingPayload(b)
	payload.Amount = amount
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, b models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}
	var status string
	if taskType == worker.TaskUpdateStatus {
		status = b.Status
	}
	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, b.ID, &b, status); err != nil {
		s.logger.Error().Err(err).Str("booking_id", b.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}

func (s *BookingService) logStoreError(err error, op, id string) {
	if isNotFound(err) {
		return
	}
	s.logger.Error().Err(err).Str("booking_id", id).Msg(op + " failed")
}
