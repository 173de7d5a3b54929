package service

import (
	"context"
	"fmt"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/events"
	"studiodesk/internal/finance"
	"studiodesk/internal/metrics"
	"studiodesk/internal/models"

	"github.com/rs/zerolog"
)

const handlerTimeout = 10 * time.Second

// NotificationService records dashboard notifications and optionally
// forwards them. Forwarding never fails the caller.
type NotificationService struct {
	store     domain.NotificationStore
	forwarder domain.NotificationForwarder
	logger    *zerolog.Logger
}

func NewNotificationService(store domain.NotificationStore, forwarder domain.NotificationForwarder, logger *zerolog.Logger) *NotificationService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NotificationService{store: store, forwarder: forwarder, logger: logger}
}

// Notify creates an unread notification. Unknown types are stored as system.
func (s *NotificationService) Notify(ctx context.Context, title, message, notificationType string) error {
	_, err := s.create(ctx, title, message, notificationType)
	return err
}

func (s *NotificationService) create(ctx context.Context, title, message, notificationType string) (*models.Notification, error) {
	if !models.IsValidNotificationType(notificationType) {
		notificationType = models.NotificationSystem
	}
	n := &models.Notification{Title: title, Message: message, Type: notificationType}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("title", title).Msg("create notification failed")
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.IncNotification(n.Type)

	if s.forwarder != nil {
		if err := s.forwarder.Forward(ctx, *n); err != nil {
			s.logger.Warn().Err(err).Str("notification_id", n.ID).Msg("forward notification failed")
		}
	}
	return n, nil
}

// List returns recent notifications and how many of them are unread.
func (s *NotificationService) List(ctx context.Context, limit int) ([]models.Notification, int, error) {
	list, err := s.store.ListNotifications(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list notifications failed")
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	return list, unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		if !isNotFound(err) {
			s.logger.Error().Err(err).Str("notification_id", id).Msg("mark notification read failed")
		}
		return err
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.store.MarkAllNotificationsRead(ctx); err != nil {
		s.logger.Error().Err(err).Msg("mark all notifications read failed")
		return err
	}
	return nil
}

// Subscribe turns booking events into notifications.
func (s *NotificationService) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, s.handle(func(p events.BookingEventPayload) (string, string, string) {
		return "New Booking Created",
			fmt.Sprintf("Booking for %s has been scheduled for %s", p.Name, p.Date.Format(models.DateLayout)),
			models.NotificationBooking
	}))
	bus.Subscribe(events.EventBookingConfirmed, s.handle(func(p events.BookingEventPayload) (string, string, string) {
		return "Booking Confirmed",
			fmt.Sprintf("Booking #%s for %s has been confirmed", p.BookingNumber, p.Name),
			models.NotificationBooking
	}))
	bus.Subscribe(events.EventBookingCancelled, s.handle(func(p events.BookingEventPayload) (string, string, string) {
		return "Booking Cancelled",
			fmt.Sprintf("Booking #%s for %s has been cancelled", p.BookingNumber, p.Name),
			models.NotificationAlert
	}))
	bus.Subscribe(events.EventBookingCompleted, s.handle(func(p events.BookingEventPayload) (string, string, string) {
		return "Work Completed",
			fmt.Sprintf("Work for booking #%s (%s) has been completed", p.BookingNumber, p.Name),
			models.NotificationUpdate
	}))
	bus.Subscribe(events.EventPaymentReceived, s.handle(func(p events.BookingEventPayload) (string, string, string) {
		return "Payment Received",
			fmt.Sprintf("Payment of ₹%s received for booking: %s", finance.FormatAmount(p.Amount), p.Name),
			models.NotificationPayment
	}))
}

func (s *NotificationService) handle(render func(events.BookingEventPayload) (title, message, kind string)) events.EventHandler {
	return func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := event.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		title, message, kind := render(payload)
		return s.Notify(ctx, title, message, kind)
	}
}
