package finance

import (
	"fmt"
	"strings"
	"time"

	"studiodesk/internal/models"
)

// Quick-filter tags of the bookings list.
const (
	TagAll       = "All"
	TagConfirmed = "Confirmed"
	TagPaid      = "Paid"
	TagPending   = "Pending"
)

// AllPayments keeps every urgency tier in the due-payments view.
const AllPayments = "All Payments"

// ParseTag resolves a quick-filter tag case-insensitively. Empty means All.
func ParseTag(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return TagAll, nil
	case "confirmed":
		return TagConfirmed, nil
	case "paid":
		return TagPaid, nil
	case "pending":
		return TagPending, nil
	}
	return "", ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter %q", raw)}
}

// ParseUrgencyFilter resolves a due-payments filter. It accepts both the
// stored urgency values and their display labels. Empty means all tiers.
func ParseUrgencyFilter(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "", "all", "all_payments":
		return AllPayments, nil
	case UrgencyOverdue:
		return UrgencyOverdue, nil
	case UrgencyDueToday:
		return UrgencyDueToday, nil
	case UrgencyUpcoming:
		return UrgencyUpcoming, nil
	}
	return "", ValidationError{Field: "status", Message: fmt.Sprintf("unknown payment filter %q", raw)}
}

// MatchesQuery reports whether b contains query. Name, address and booking
// number compare case-insensitively; mobile compares exactly.
func MatchesQuery(b models.Booking, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(b.Name), q) ||
		strings.Contains(strings.ToLower(b.Address), q) ||
		strings.Contains(strings.ToLower(b.BookingNumber), q) ||
		strings.Contains(b.Mobile, query)
}

// MatchesTag reports whether b passes the quick filter as of today.
func MatchesTag(b models.Booking, tag string, today time.Time) bool {
	switch tag {
	case TagPaid:
		return Derive(b, today).PaymentState == PaymentPaid
	case TagPending:
		return Derive(b, today).PaymentState == PaymentPending
	case TagConfirmed:
		return NormalizeStatus(b.Status) == models.StatusConfirmed
	default:
		return true
	}
}

// FilterBookings keeps bookings matching both query and tag, in input order.
func FilterBookings(bookings []models.Booking, query, tag string, today time.Time) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if MatchesQuery(b, query) && MatchesTag(b, tag, today) {
			out = append(out, b)
		}
	}
	return out
}

// DueEntry pairs an outstanding booking with its derived view.
type DueEntry struct {
	Booking models.Booking `json:"booking"`
	View    View           `json:"financials"`
}

// DuePayments lists bookings with an outstanding amount, classified by
// urgency and optionally narrowed to one tier. Input order is kept.
func DuePayments(bookings []models.Booking, urgencyFilter string, today time.Time) []DueEntry {
	out := make([]DueEntry, 0)
	for _, b := range bookings {
		v := Derive(b, today)
		if !v.IsDue() {
			continue
		}
		if urgencyFilter != "" && urgencyFilter != AllPayments && v.Urgency != urgencyFilter {
			continue
		}
		out = append(out, DueEntry{Booking: b, View: v})
	}
	return out
}
