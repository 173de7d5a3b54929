package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of a booking's service date.
const DateLayout = "2006-01-02"

// Booking is a scheduled client engagement with its financial terms.
// Date carries no time of day; it is always midnight UTC.
type Booking struct {
	ID                 string    `json:"id"`
	BookingNumber      string    `json:"booking_number"`
	Name               string    `json:"name"`
	Address            string    `json:"address"`
	Mobile             string    `json:"mobile"`
	ServiceDescription string    `json:"service_description"`
	Date               time.Time `json:"date"`
	Total              float64   `json:"total"`
	Advance            float64   `json:"advance"`
	Notes              string    `json:"notes,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BookingInput is the untrusted field set submitted by a client. Nil means
// "not provided"; amounts and date stay textual until validated.
type BookingInput struct {
	Name               *string `json:"name,omitempty"`
	Address            *string `json:"address,omitempty"`
	Mobile             *string `json:"mobile,omitempty"`
	ServiceDescription *string `json:"service_description,omitempty"`
	Date               *string `json:"date,omitempty"`
	Total              *string `json:"total,omitempty"`
	Advance            *string `json:"advance,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	Status             *string `json:"status,omitempty"`
}

// BookingPatch is a validated partial update.
type BookingPatch struct {
	Name               *string
	Address            *string
	Mobile             *string
	ServiceDescription *string
	Date               *time.Time
	Total              *float64
	Advance            *float64
	Notes              *string
	Status             *string

	// OnlyIfOpen limits the update to bookings that are not yet cancelled
	// or completed in the store.
	OnlyIfOpen bool
}

// IsEmpty reports whether the patch changes nothing.
func (p BookingPatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.Mobile == nil &&
		p.ServiceDescription == nil && p.Date == nil && p.Total == nil &&
		p.Advance == nil && p.Notes == nil && p.Status == nil
}

// Apply merges the patch into b. Identity fields and timestamps are untouched.
func (p BookingPatch) Apply(b *Booking) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Address != nil {
		b.Address = *p.Address
	}
	if p.Mobile != nil {
		b.Mobile = *p.Mobile
	}
	if p.ServiceDescription != nil {
		b.ServiceDescription = *p.ServiceDescription
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Total != nil {
		b.Total = *p.Total
	}
	if p.Advance != nil {
		b.Advance = *p.Advance
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}

// IsTerminal reports whether no further transitions are allowed from status.
func IsTerminal(status string) bool {
	return status == StatusCancelled || status == StatusCompleted
}

// AssignIdentity fills the server-assigned fields of a new booking that are
// still empty: id, booking number, status and timestamps.
func (b *Booking) AssignIdentity(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.BookingNumber == "" {
		b.BookingNumber = fmt.Sprintf("%s%d", BookingNumberPrefix, now.UnixMilli())
	}
	if b.Status == "" {
		b.Status = StatusConfirmed
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
}
