package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ZerkerEOD/slotban/internal/models"
)

// MemorySettingsRepository keeps settings in process memory.
type MemorySettingsRepository struct {
	mu       sync.RWMutex
	settings map[string]models.Setting
}

// NewMemorySettingsRepository creates a settings store holding models.DefaultSettings.
func NewMemorySettingsRepository() *MemorySettingsRepository {
	r := &MemorySettingsRepository{settings: make(map[string]models.Setting)}
	now := time.Now()
	for key, value := range models.DefaultSettings() {
		r.settings[key] = models.Setting{Key: key, Value: value, UpdatedAt: now}
	}
	return r
}

// GetSetting returns the setting or ErrNotFound.
func (r *MemorySettingsRepository) GetSetting(_ context.Context, key string) (*models.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setting, ok := r.settings[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &setting, nil
}

// SetSetting creates or overwrites a setting.
func (r *MemorySettingsRepository) SetSetting(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.settings[key] = models.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	r.mu.Unlock()
	return nil
}
