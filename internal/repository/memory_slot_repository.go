package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ZerkerEOD/slotban/internal/models"
)

// MemorySlotBanRepository keeps banned slots in process memory.
type MemorySlotBanRepository struct {
	mu     sync.RWMutex
	slots  map[int64]models.BannedSlot
	nextID int64
	now    func() time.Time
}

// NewMemorySlotBanRepository creates an empty in-memory slot store
func NewMemorySlotBanRepository() *MemorySlotBanRepository {
	return &MemorySlotBanRepository{
		slots:  make(map[int64]models.BannedSlot),
		nextID: 1,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to stamp BannedAt.
func (r *MemorySlotBanRepository) WithClock(now func() time.Time) *MemorySlotBanRepository {
	r.now = now
	return r
}

// GetAll returns every stored ban ordered by id.
func (r *MemorySlotBanRepository) GetAll(_ context.Context) ([]models.BannedSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedLocked(), nil
}

// GetByName finds a ban by case-insensitive slot name.
func (r *MemorySlotBanRepository) GetByName(_ context.Context, slotName string) (*models.BannedSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, slot := range r.sortedLocked() {
		if strings.EqualFold(slot.SlotName, slotName) {
			found := slot
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// Create stores a new ban with a fresh id.
func (r *MemorySlotBanRepository) Create(_ context.Context, slotName, bannedBy string, expiresAt time.Time) (*models.BannedSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := models.BannedSlot{
		ID:        r.nextID,
		SlotName:  slotName,
		BannedBy:  bannedBy,
		BannedAt:  r.now(),
		ExpiresAt: expiresAt,
	}
	r.nextID++
	r.slots[slot.ID] = slot

	return &slot, nil
}

// DeleteByID removes a ban; unknown ids are ignored.
func (r *MemorySlotBanRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	delete(r.slots, id)
	r.mu.Unlock()
	return nil
}

// DeleteExpired removes and returns every ban with ExpiresAt <= now.
func (r *MemorySlotBanRepository) DeleteExpired(_ context.Context, now time.Time) ([]models.BannedSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := []models.BannedSlot{}
	for _, slot := range r.sortedLocked() {
		if slot.IsExpired(now) {
			expired = append(expired, slot)
			delete(r.slots, slot.ID)
		}
	}
	return expired, nil
}

func (r *MemorySlotBanRepository) sortedLocked() []models.BannedSlot {
	out := make([]models.BannedSlot, 0, len(r.slots))
	for _, slot := range r.slots {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
