package domain

import (
	"context"
	"io"
	"time"

	"studiodesk/internal/models"
)

// BookingStore is the durable booking collection.
type BookingStore interface {
	// ListBookings returns every booking, most recently created first.
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	// CreateBooking stores b, first assigning id, booking number, default
	// status and timestamps where they are empty.
	CreateBooking(ctx context.Context, b *models.Booking) error
	// UpdateBooking merges patch, refreshes updated_at and returns the stored
	// record. Fails with ErrNotFound for unknown ids.
	UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type LogoStore interface {
	// GetActiveLogo fails with ErrNotFound when no logo is active.
	GetActiveLogo(ctx context.Context) (*models.Logo, error)
	// SaveLogo stores logo as the only active one.
	SaveLogo(ctx context.Context, logo *models.Logo) error
}

// Store bundles every persistence concern of the application.
type Store interface {
	BookingStore
	NotificationStore
	LogoStore
	Close() error
}

// Cache is a small key/value store with expirations.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetIfAbsent stores value only when key is missing and reports whether
	// it did.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID string) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID string, booking *models.Booking, status string) error
}

// NotificationForwarder pushes notifications to an external channel.
type NotificationForwarder interface {
	Forward(ctx context.Context, n models.Notification) error
}

// FileStorage keeps uploaded assets and returns their public URL.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
