package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ZerkerEOD/slotban/internal/db"
	"github.com/ZerkerEOD/slotban/internal/models"
)

const slotColumns = "id, slot_name, banned_by, banned_at, expires_at"

// PostgresSlotRepository handles database operations for banned slots.
type PostgresSlotRepository struct {
	db  *db.DB
	now func() time.Time
}

// NewPostgresSlotRepository creates a new PostgreSQL-backed slot repository
func NewPostgresSlotRepository(database *db.DB) *PostgresSlotRepository {
	return &PostgresSlotRepository{db: database, now: time.Now}
}

// GetAll retrieves every banned slot ordered by id.
func (r *PostgresSlotRepository) GetAll(ctx context.Context) ([]models.BannedSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM banned_slots ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list banned slots: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// GetByName retrieves a banned slot by case-insensitive name.
func (r *PostgresSlotRepository) GetByName(ctx context.Context, slotName string) (*models.BannedSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM banned_slots
		WHERE LOWER(slot_name) = LOWER($1)
		ORDER BY id ASC
		LIMIT 1`

	var slot models.BannedSlot
	err := r.db.QueryRowContext(ctx, query, slotName).Scan(
		&slot.ID,
		&slot.SlotName,
		&slot.BannedBy,
		&slot.BannedAt,
		&slot.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get banned slot '%s': %w", slotName, err)
	}
	return &slot, nil
}

// Create inserts a new banned slot.
func (r *PostgresSlotRepository) Create(ctx context.Context, slotName, bannedBy string, expiresAt time.Time) (*models.BannedSlot, error) {
	query := `
		INSERT INTO banned_slots (slot_name, banned_by, banned_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	slot := models.BannedSlot{
		SlotName:  slotName,
		BannedBy:  bannedBy,
		BannedAt:  r.now(),
		ExpiresAt: expiresAt,
	}
	err := r.db.QueryRowContext(ctx, query, slot.SlotName, slot.BannedBy, slot.BannedAt, slot.ExpiresAt).Scan(&slot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create banned slot '%s': %w", slotName, err)
	}
	return &slot, nil
}

// DeleteByID removes a banned slot. Missing rows are not an error.
func (r *PostgresSlotRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM banned_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete banned slot %d: %w", id, err)
	}
	return nil
}

// DeleteExpired removes and returns every slot whose ban ended at or before now.
func (r *PostgresSlotRepository) DeleteExpired(ctx context.Context, now time.Time) ([]models.BannedSlot, error) {
	query := `
		DELETE FROM banned_slots
		WHERE expires_at <= $1
		RETURNING ` + slotColumns

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired slots: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

func scanSlots(rows *sql.Rows) ([]models.BannedSlot, error) {
	slots := []models.BannedSlot{}
	for rows.Next() {
		var slot models.BannedSlot
		if err := rows.Scan(
			&slot.ID,
			&slot.SlotName,
			&slot.BannedBy,
			&slot.BannedAt,
			&slot.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan banned slot row: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banned slot rows: %w", err)
	}
	return slots, nil
}
