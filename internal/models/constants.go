package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	NotificationSystem  = "system"
	NotificationUpdate  = "update"
	NotificationAlert   = "alert"
	NotificationBooking = "booking"
	NotificationPayment = "payment"
)

const (
	// BookingNumberPrefix precedes the creation timestamp in millis.
	BookingNumberPrefix = "BK-"

	// DefaultUpcomingDays is the look-ahead window for upcoming bookings.
	DefaultUpcomingDays = 15

	// RecentBookingsLimit caps the dashboard's recent list.
	RecentBookingsLimit = 5

	// DefaultNotificationsLimit caps notification listings.
	DefaultNotificationsLimit = 100

	// DefaultLogoURL is served when no logo was ever uploaded.
	DefaultLogoURL = "/default-logo.png"
)

// IsValidStatus reports whether s is one of the known booking statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsValidNotificationType reports whether t is a known notification type.
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationSystem, NotificationUpdate, NotificationAlert, NotificationBooking, NotificationPayment:
		return true
	}
	return false
}
