package finance

import (
	"sort"
	"time"

	"studiodesk/internal/models"
)

// Summary is the dashboard roll-up of all bookings.
type Summary struct {
	TotalBookings   int              `json:"total_bookings"`
	ActiveBookings  int              `json:"active_bookings"`
	OutstandingDue  float64          `json:"outstanding_due"`
	CollectedAmount float64          `json:"collected_amount"`
	Overdue         int              `json:"overdue"`
	DueToday        int              `json:"due_today"`
	Upcoming        int              `json:"upcoming"`
	Recent          []models.Booking `json:"recent"`
}

// Summarize aggregates bookings as of today. Overpaid bookings do not reduce
// the outstanding amount.
func Summarize(bookings []models.Booking, today time.Time) Summary {
	s := Summary{TotalBookings: len(bookings)}
	for _, b := range bookings {
		v := Derive(b, today)
		if !models.IsTerminal(v.Status) {
			s.ActiveBookings++
		}
		s.CollectedAmount += b.Advance
		if !v.IsDue() {
			continue
		}
		s.OutstandingDue += v.DueAmount
		switch v.Urgency {
		case UrgencyOverdue:
			s.Overdue++
		case UrgencyDueToday:
			s.DueToday++
		case UrgencyUpcoming:
			s.Upcoming++
		}
	}
	s.Recent = RecentByDate(bookings, models.RecentBookingsLimit)
	return s
}

// RecentByDate returns up to limit bookings, latest service date first.
func RecentByDate(bookings []models.Booking, limit int) []models.Booking {
	sorted := append([]models.Booking(nil), bookings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Upcoming returns open bookings scheduled within the next days days,
// today included, soonest first.
func Upcoming(bookings []models.Booking, today time.Time, days int) []models.Booking {
	if days <= 0 {
		days = models.DefaultUpcomingDays
	}
	out := make([]models.Booking, 0)
	for _, b := range bookings {
		if models.IsTerminal(NormalizeStatus(b.Status)) || b.Date.IsZero() {
			continue
		}
		ahead := -DaysSince(b.Date, today)
		if ahead >= 0 && ahead <= days {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
