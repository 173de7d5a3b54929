package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/models"

	"github.com/google/uuid"
)

func (db *DB) GetActiveLogo(ctx context.Context) (*models.Logo, error) {
	query := `SELECT id, name, url, is_active, created_at FROM logos
              WHERE is_active = 1 ORDER BY created_at DESC LIMIT 1`

	var logo models.Logo
	err := db.QueryRowContext(ctx, query).Scan(&logo.ID, &logo.Name, &logo.URL, &logo.IsActive, &logo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active logo: %w", domain.ErrNotFound)
		}
		return nil, unavailable("get active logo", err)
	}
	return &logo, nil
}

// SaveLogo inserts logo and deactivates every other one in one transaction.
func (db *DB) SaveLogo(ctx context.Context, logo *models.Logo) error {
	if logo.ID == "" {
		logo.ID = uuid.NewString()
	}
	if logo.CreatedAt.IsZero() {
		logo.CreatedAt = time.Now().UTC()
	}
	logo.IsActive = true

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("save logo", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE logos SET is_active = 0 WHERE is_active = 1`); err != nil {
		return unavailable("deactivate logos", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO logos (id, name, url, is_active, created_at) VALUES (?, ?, ?, 1, ?)`,
		logo.ID, logo.Name, logo.URL, logo.CreatedAt,
	); err != nil {
		return unavailable("insert logo", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("save logo", err)
	}
	return nil
}
