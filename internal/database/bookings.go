package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/finance"
	"studiodesk/internal/models"
)

const bookingColumns = `id, booking_number, name, address, mobile, service_description,
               date, total, advance, notes, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBooking reads one row. Amounts and date are stored as text, so a
// malformed legacy value degrades to zero instead of failing the read.
func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b              models.Booking
		date           string
		total, advance sql.NullString
		notes, status  sql.NullString
	)
	err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.Name,
		&b.Address,
		&b.Mobile,
		&b.ServiceDescription,
		&date,
		&total,
		&advance,
		&notes,
		&status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}

	if d, err := finance.ParseDate(date); err == nil {
		b.Date = d
	}
	b.Total = finance.ParseAmount(total.String)
	b.Advance = finance.ParseAmount(advance.String)
	b.Notes = notes.String
	b.Status = status.String
	return b, nil
}

// ListBookings returns all bookings, newest first.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, rowid DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, unavailable("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list bookings", err)
	}
	return bookings, nil
}

// GetBooking returns the booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
		}
		return nil, unavailable("get booking", err)
	}
	return &b, nil
}

// CreateBooking inserts a new booking.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	b.AssignIdentity(time.Now().UTC())

	query := `
        INSERT INTO bookings (` + bookingColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := db.ExecContext(ctx, query,
		b.ID,
		b.BookingNumber,
		b.Name,
		b.Address,
		b.Mobile,
		b.ServiceDescription,
		b.Date.Format(models.DateLayout),
		finance.FormatAmount(b.Total),
		finance.FormatAmount(b.Advance),
		b.Notes,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return unavailable("create booking", err)
	}
	return nil
}

// UpdateBooking merges patch into the stored booking and returns the result.
func (db *DB) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	sets, args := patchAssignments(patch)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if patch.OnlyIfOpen {
		query += ` AND status NOT IN (?, ?)`
		args = append(args, models.StatusCancelled, models.StatusCompleted)
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("update booking", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, unavailable("update booking", err)
	}
	if affected == 0 {
		if patch.OnlyIfOpen {
			if _, err := db.GetBooking(ctx, id); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("booking %s: %w", id, domain.ErrConflict)
		}
		return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}

	return db.GetBooking(ctx, id)
}

// DeleteBooking removes a booking.
func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete booking", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete booking", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func patchAssignments(p models.BookingPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.Mobile != nil {
		add("mobile", *p.Mobile)
	}
	if p.ServiceDescription != nil {
		add("service_description", *p.ServiceDescription)
	}
	if p.Date != nil {
		add("date", p.Date.Format(models.DateLayout))
	}
	if p.Total != nil {
		add("total", finance.FormatAmount(*p.Total))
	}
	if p.Advance != nil {
		add("advance", finance.FormatAmount(*p.Advance))
	}
	if p.Notes != nil {
		add("notes", *p.Notes)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	return sets, args
}
