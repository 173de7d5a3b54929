package finance

import (
	"time"

	"studiodesk/internal/models"
)

const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
)

const (
	UrgencyOverdue  = "overdue"
	UrgencyDueToday = "due_today"
	UrgencyUpcoming = "upcoming"
)

const (
	// OverdueAfterDays is the last day a payment may still be collected on
	// time; any later day is overdue.
	OverdueAfterDays = 30
	// DueFromDays is the first day a payment counts as due today.
	DueFromDays = 26
)

// View is the derived financial state of a booking. It is never stored.
type View struct {
	Status           string  `json:"status"`
	DueAmount        float64 `json:"due_amount"`
	PaymentState     string  `json:"payment_state"`
	Urgency          string  `json:"urgency,omitempty"`
	DaysSinceBooking int     `json:"days_since_booking"`
	DaysOverdue      int     `json:"days_overdue,omitempty"`
}

// IsDue reports whether some amount is still outstanding.
func (v View) IsDue() bool {
	return v.DueAmount > 0
}

// DueAmount is total minus advance; it can be negative on overpayment.
func DueAmount(b models.Booking) float64 {
	return b.Total - b.Advance
}

const secondsPerDay = 24 * 60 * 60

// DaysSince counts whole calendar days from date to today. Future dates are
// negative. A zero date counts as booked today.
func DaysSince(date, today time.Time) int {
	if date.IsZero() {
		return 0
	}
	return int(dayNumber(today) - dayNumber(date))
}

// dayNumber counts days since the Unix epoch. Unix seconds cover every
// year, unlike a time.Duration between two dates.
func dayNumber(t time.Time) int64 {
	return CalendarDay(t).Unix() / secondsPerDay
}

// Classify maps elapsed days to an urgency tier and the days past the
// collection window.
func Classify(days int) (urgency string, daysOverdue int) {
	switch {
	case days > OverdueAfterDays:
		return UrgencyOverdue, days - OverdueAfterDays
	case days >= DueFromDays:
		return UrgencyDueToday, 0
	default:
		return UrgencyUpcoming, 0
	}
}

// Derive computes the view of b as of today. It never fails.
func Derive(b models.Booking, today time.Time) View {
	v := View{
		Status:           NormalizeStatus(b.Status),
		DueAmount:        DueAmount(b),
		DaysSinceBooking: DaysSince(b.Date, today),
	}

	if v.DueAmount <= 0 {
		v.PaymentState = PaymentPaid
		return v
	}

	v.PaymentState = PaymentPending
	v.Urgency, v.DaysOverdue = Classify(v.DaysSinceBooking)
	return v
}
