package repository

import (
	"context"
	"time"

	"github.com/ZerkerEOD/slotban/internal/models"
)

// SlotBanRepository stores banned slots. It does not enforce name uniqueness;
// that is the ban service's job.
type SlotBanRepository interface {
	GetAll(ctx context.Context) ([]models.BannedSlot, error)
	// GetByName matches case-insensitively and returns ErrNotFound when absent.
	GetByName(ctx context.Context, slotName string) (*models.BannedSlot, error)
	Create(ctx context.Context, slotName, bannedBy string, expiresAt time.Time) (*models.BannedSlot, error)
	// DeleteByID is a no-op for unknown ids.
	DeleteByID(ctx context.Context, id int64) error
	// DeleteExpired removes and returns every ban with ExpiresAt <= now.
	DeleteExpired(ctx context.Context, now time.Time) ([]models.BannedSlot, error)
}

// SettingsRepository is a string key/value store with last-write-wins semantics.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
}

var (
	_ SlotBanRepository  = (*MemorySlotBanRepository)(nil)
	_ SlotBanRepository  = (*PostgresSlotRepository)(nil)
	_ SettingsRepository = (*MemorySettingsRepository)(nil)
	_ SettingsRepository = (*PostgresSettingsRepository)(nil)
)
