package worker

import (
	"context"
	"fmt"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/finance"
	"studiodesk/internal/metrics"
	"studiodesk/internal/models"

	"github.com/rs/zerolog"
)

// reminderTTL outlives one calendar day so a key claimed late in the day is
// still present on the next run of that day.
const reminderTTL = 36 * time.Hour

// Notifier creates dashboard notifications.
type Notifier interface {
	Notify(ctx context.Context, title, message, notificationType string) error
}

// DueReminder periodically raises alerts for overdue payments and posts a
// daily summary of upcoming bookings. Each alert is sent at most once per
// booking per day.
type DueReminder struct {
	store        domain.BookingStore
	cache        domain.Cache
	notifier     Notifier
	interval     time.Duration
	upcomingDays int
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewDueReminder(store domain.BookingStore, cache domain.Cache, notifier Notifier, interval time.Duration, upcomingDays int, logger *zerolog.Logger) *DueReminder {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if upcomingDays <= 0 {
		upcomingDays = models.DefaultUpcomingDays
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DueReminder{
		store:        store,
		cache:        cache,
		notifier:     notifier,
		interval:     interval,
		upcomingDays: upcomingDays,
		now:          time.Now,
		logger:       logger,
	}
}

// Start runs once immediately and then on every interval until ctx is done.
func (r *DueReminder) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("due reminder started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("due reminder run failed")
		}
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("due reminder stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce sends the reminders due for today and returns how many
// notifications it created.
func (r *DueReminder) RunOnce(ctx context.Context) (int, error) {
	bookings, err := r.store.ListBookings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list bookings: %w", err)
	}

	today := r.now()
	day := finance.CalendarDay(today).Format(models.DateLayout)
	metrics.SetOutstandingDue(finance.Summarize(bookings, today).OutstandingDue)

	sent := 0
	for _, entry := range finance.DuePayments(bookings, finance.UrgencyOverdue, today) {
		// cancelled bookings stay in the due view but are never chased
		if entry.View.Status == models.StatusCancelled {
			continue
		}
		key := fmt.Sprintf("reminder:%s:%s", entry.Booking.ID, day)
		if !r.claim(ctx, key) {
			continue
		}
		msg := fmt.Sprintf("Payment of ₹%s for %s is %d days overdue",
			finance.FormatAmount(entry.View.DueAmount), entry.Booking.Name, entry.View.DaysOverdue)
		if err := r.notifier.Notify(ctx, "Payment Overdue", msg, models.NotificationAlert); err != nil {
			r.logger.Error().Err(err).Str("booking_id", entry.Booking.ID).Msg("overdue notification failed")
			r.release(ctx, key)
			continue
		}
		sent++
	}

	upcoming := finance.Upcoming(bookings, today, r.upcomingDays)
	if len(upcoming) > 0 {
		key := "reminder:summary:" + day
		if r.claim(ctx, key) {
			msg := fmt.Sprintf("%d bookings scheduled in the next %d days", len(upcoming), r.upcomingDays)
			if err := r.notifier.Notify(ctx, "Upcoming Bookings", msg, models.NotificationSystem); err != nil {
				r.logger.Error().Err(err).Msg("upcoming summary notification failed")
				r.release(ctx, key)
			} else {
				sent++
			}
		}
	}

	r.logger.Debug().Int("sent", sent).Msg("due reminder run complete")
	return sent, nil
}

// claim reports whether this run owns key. Cache errors skip the reminder
// rather than risk repeating it.
func (r *DueReminder) claim(ctx context.Context, key string) bool {
	ok, err := r.cache.SetIfAbsent(ctx, key, "1", reminderTTL)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("reminder dedupe failed")
		return false
	}
	return ok
}

func (r *DueReminder) release(ctx context.Context, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("release reminder key")
	}
}
