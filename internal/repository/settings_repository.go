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

// PostgresSettingsRepository handles database operations for application settings.
type PostgresSettingsRepository struct {
	db *db.DB
}

// NewPostgresSettingsRepository creates a new instance of PostgresSettingsRepository.
func NewPostgresSettingsRepository(database *db.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: database}
}

// GetSetting retrieves a specific setting by its key.
func (r *PostgresSettingsRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	query := `
		SELECT key, value, updated_at
		FROM app_settings
		WHERE key = $1`

	var setting models.Setting
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&setting.Key,
		&setting.Value,
		&setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("setting with key '%s' not found: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get setting by key '%s': %w", key, err)
	}
	return &setting, nil
}

// SetSetting creates or updates a setting's value.
func (r *PostgresSettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set setting '%s': %w", key, err)
	}
	return nil
}
