package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Store is the PostgreSQL implementation of domain.Store.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ domain.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

const bookingColumns = `id, booking_number, name, address, mobile, service_description,
		date, total::float8, advance::float8, notes, status, created_at, updated_at`

func scanBooking(row pgx.Row) (models.Booking, error) {
	var (
		b             models.Booking
		date          sql.NullTime
		notes, status sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.Name, &b.Address, &b.Mobile, &b.ServiceDescription,
		&date, &b.Total, &b.Advance, &notes, &status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	if date.Valid {
		b.Date = time.Date(date.Time.Year(), date.Time.Month(), date.Time.Day(), 0, 0, 0, 0, time.UTC)
	}
	b.Notes = notes.String
	b.Status = status.String
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC`)
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

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
		}
		return nil, unavailable("get booking", err)
	}
	return &b, nil
}

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	b.AssignIdentity(s.now())

	var date any
	if !b.Date.IsZero() {
		date = b.Date
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (
			id, booking_number, name, address, mobile, service_description,
			date, total, advance, notes, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, b.ID, b.BookingNumber, b.Name, b.Address, b.Mobile, b.ServiceDescription,
		date, b.Total, b.Advance, nullIfEmpty(b.Notes), b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return unavailable("create booking", err)
	}
	return nil
}

func (s *Store) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	sets, args := patchAssignments(patch)
	args = append(args, s.now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	where := fmt.Sprintf(` WHERE id = $%d`, len(args))
	if patch.OnlyIfOpen {
		args = append(args, models.StatusCancelled, models.StatusCompleted)
		where += fmt.Sprintf(` AND status NOT IN ($%d, $%d)`, len(args)-1, len(args))
	}

	query := `UPDATE bookings SET ` + strings.Join(sets, ", ") + where + ` RETURNING ` + bookingColumns

	b, err := scanBooking(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if patch.OnlyIfOpen {
				if _, getErr := s.GetBooking(ctx, id); getErr != nil {
					return nil, getErr
				}
				return nil, fmt.Errorf("booking %s: %w", id, domain.ErrConflict)
			}
			return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
		}
		return nil, unavailable("update booking", err)
	}
	return &b, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete booking", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func patchAssignments(p models.BookingPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
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
		add("date", *p.Date)
	}
	if p.Total != nil {
		add("total", *p.Total)
	}
	if p.Advance != nil {
		add("advance", *p.Advance)
	}
	if p.Notes != nil {
		add("notes", nullIfEmpty(*p.Notes))
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	return sets, args
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.IsRead = false

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, title, message, type, is_read, created_at)
		VALUES ($1,$2,$3,$4,false,$5)
	`, n.ID, n.Title, n.Message, n.Type, n.CreatedAt)
	if err != nil {
		return unavailable("create notification", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = models.DefaultNotificationsLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, message, type, is_read, created_at
		FROM notifications ORDER BY created_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, unavailable("scan notification", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list notifications", err)
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return unavailable("mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE NOT is_read`); err != nil {
		return unavailable("mark all notifications read", err)
	}
	return nil
}

func (s *Store) GetActiveLogo(ctx context.Context) (*models.Logo, error) {
	var logo models.Logo
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, url, is_active, created_at FROM logos
		WHERE is_active ORDER BY created_at DESC LIMIT 1
	`).Scan(&logo.ID, &logo.Name, &logo.URL, &logo.IsActive, &logo.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active logo: %w", domain.ErrNotFound)
		}
		return nil, unavailable("get active logo", err)
	}
	logo.CreatedAt = logo.CreatedAt.UTC()
	return &logo, nil
}

func (s *Store) SaveLogo(ctx context.Context, logo *models.Logo) (err error) {
	if logo.ID == "" {
		logo.ID = uuid.NewString()
	}
	if logo.CreatedAt.IsZero() {
		logo.CreatedAt = s.now()
	}
	logo.IsActive = true

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return unavailable("save logo", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `UPDATE logos SET is_active = false WHERE is_active`); err != nil {
		return unavailable("deactivate logos", err)
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO logos (id, name, url, is_active, created_at) VALUES ($1,$2,$3,true,$4)
	`, logo.ID, logo.Name, logo.URL, logo.CreatedAt); err != nil {
		return unavailable("insert logo", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return unavailable("save logo", err)
	}
	return nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
