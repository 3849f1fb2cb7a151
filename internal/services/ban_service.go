package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ZerkerEOD/slotban/internal/models"
	"github.com/ZerkerEOD/slotban/internal/repository"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the expiry sweep once a day.
const DefaultSweepSchedule = "@every 24h"

// ErrAlreadyBanned is returned by AddManualBan when an active ban exists for
// the same slot name. It signals a conflict, not a failure.
var ErrAlreadyBanned = errors.New("slot is already banned")

// ExpiryObserver is notified with the bans removed by a sweep.
type ExpiryObserver interface {
	BansExpired(expired []models.BannedSlot)
}

// ExpiryObserverFunc adapts a function to ExpiryObserver
type ExpiryObserverFunc func(expired []models.BannedSlot)

// BansExpired calls f(expired)
func (f ExpiryObserverFunc) BansExpired(expired []models.BannedSlot) { f(expired) }

// BanServiceOption customizes a BanService
type BanServiceOption func(*BanService)

// WithClock sets the time source used for expiry computations.
func WithClock(now func() time.Time) BanServiceOption {
	return func(s *BanService) { s.now = now }
}

// WithBanDuration sets how long new bans last.
func WithBanDuration(d time.Duration) BanServiceOption {
	return func(s *BanService) {
		if d > 0 {
			s.banDuration = d
		}
	}
}

// WithSweepSchedule sets the cron spec for the expiry sweep.
func WithSweepSchedule(spec string) BanServiceOption {
	return func(s *BanService) {
		if spec != "" {
			s.sweepSchedule = spec
		}
	}
}

// BanService enforces the one-ban-per-slot rule, computes expiry and owns the
// periodic expiry sweep.
type BanService struct {
	slots    repository.SlotBanRepository
	settings repository.SettingsRepository

	now           func() time.Time
	banDuration   time.Duration
	sweepSchedule string

	// writeMu serializes check-then-write sequences.
	writeMu sync.Mutex

	observerMu sync.RWMutex
	observer   ExpiryObserver

	scheduler *cron.Cron
	stopOnce  sync.Once
}

// NewBanService creates the service and starts the expiry sweep. Call Stop to
// release the scheduler.
func NewBanService(slots repository.SlotBanRepository, settings repository.SettingsRepository, opts ...BanServiceOption) (*BanService, error) {
	s := &BanService{
		slots:         slots,
		settings:      settings,
		now:           time.Now,
		banDuration:   models.DefaultBanDuration,
		sweepSchedule: DefaultSweepSchedule,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger := cronLogger{}
	s.scheduler = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := s.scheduler.AddFunc(s.sweepSchedule, s.runSweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", s.sweepSchedule, err)
	}
	s.scheduler.Start()
	debug.Info("Ban expiry sweep scheduled: %s", s.sweepSchedule)

	return s, nil
}

// Stop halts the sweep scheduler and waits for a running sweep to finish.
// It is safe to call more than once.
func (s *BanService) Stop() {
	s.stopOnce.Do(func() {
		<-s.scheduler.Stop().Done()
		debug.Info("Ban expiry sweep stopped")
	})
}

// BanDuration reports how long new bans last.
func (s *BanService) BanDuration() time.Duration {
	return s.banDuration
}

// SetExpiredObserver registers the single observer for swept bans, replacing
// any previous one. Passing nil unregisters.
func (s *BanService) SetExpiredObserver(o ExpiryObserver) {
	s.observerMu.Lock()
	s.observer = o
	s.observerMu.Unlock()
}

// GetAllBannedSlots returns every active ban.
func (s *BanService) GetAllBannedSlots(ctx context.Context) ([]models.BannedSlot, error) {
	return s.slots.GetAll(ctx)
}

// AddManualBan bans slotName for the configured duration. It returns
// ErrAlreadyBanned when the slot already has an active ban.
func (s *BanService) AddManualBan(ctx context.Context, slotName, bannedBy string) (*models.BannedSlot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.slots.GetByName(ctx, slotName)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing ban: %w", err)
	}
	if existing != nil {
		debug.Debug("Slot %q already banned by %s (id %d)", existing.SlotName, existing.BannedBy, existing.ID)
		return nil, ErrAlreadyBanned
	}

	expiresAt := s.now().Add(s.banDuration)
	slot, err := s.slots.Create(ctx, slotName, bannedBy, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ban: %w", err)
	}

	debug.Info("Slot %q banned by %s until %s", slot.SlotName, slot.BannedBy, slot.ExpiresAt.Format(time.RFC3339))
	return slot, nil
}

// RemoveBan deletes a ban by id. Unknown ids are not an error.
func (s *BanService) RemoveBan(ctx context.Context, id int64) error {
	if err := s.slots.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to remove ban %d: %w", id, err)
	}
	debug.Info("Ban %d removed", id)
	return nil
}

// RemoveBanByName deletes the ban for slotName and returns it, or
// repository.ErrNotFound when the slot is not banned.
func (s *BanService) RemoveBanByName(ctx context.Context, slotName string) (*models.BannedSlot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	slot, err := s.slots.GetByName(ctx, slotName)
	if err != nil {
		return nil, err
	}
	if err := s.slots.DeleteByID(ctx, slot.ID); err != nil {
		return nil, fmt.Errorf("failed to remove ban %d: %w", slot.ID, err)
	}

	debug.Info("Ban for %q (id %d) removed by name", slot.SlotName, slot.ID)
	return slot, nil
}

// ClearAllBans deletes every current ban, one at a time.
func (s *BanService) ClearAllBans(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	slots, err := s.slots.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bans: %w", err)
	}
	for _, slot := range slots {
		if err := s.slots.DeleteByID(ctx, slot.ID); err != nil {
			return fmt.Errorf("failed to remove ban %d: %w", slot.ID, err)
		}
	}

	debug.Info("Cleared %d bans", len(slots))
	return nil
}

// DeleteExpired removes every ban that has expired by now and returns them.
// Unlike the scheduled sweep it does not notify the observer.
func (s *BanService) DeleteExpired(ctx context.Context) ([]models.BannedSlot, error) {
	expired, err := s.slots.DeleteExpired(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired bans: %w", err)
	}
	if len(expired) > 0 {
		debug.Info("Removed %d expired bans", len(expired))
	}
	return expired, nil
}

// Sweep runs one expiry pass and notifies the observer when anything expired.
func (s *BanService) Sweep(ctx context.Context) ([]models.BannedSlot, error) {
	expired, err := s.DeleteExpired(ctx)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return expired, nil
	}

	s.observerMu.RLock()
	observer := s.observer
	s.observerMu.RUnlock()

	if observer != nil {
		observer.BansExpired(expired)
	}
	return expired, nil
}

func (s *BanService) runSweep() {
	debug.Debug("Running ban expiry sweep")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		debug.Error("Error during ban expiry sweep: %v", err)
	}
}

// ToggleRequestsStatus flips requests_open and returns the new value.
func (s *BanService) ToggleRequestsStatus(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.GetRequestsStatus(ctx)
	if err != nil {
		return false, err
	}

	next := !current
	if err := s.settings.SetSetting(ctx, models.SettingRequestsOpen, strconv.FormatBool(next)); err != nil {
		return false, fmt.Errorf("failed to update requests status: %w", err)
	}

	debug.Info("Slot requests are now open: %v", next)
	return next, nil
}

// GetRequestsStatus reports whether chat ban requests are accepted. A missing
// or non-"true" setting counts as closed.
func (s *BanService) GetRequestsStatus(ctx context.Context) (bool, error) {
	setting, err := s.settings.GetSetting(ctx, models.SettingRequestsOpen)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read requests status: %w", err)
	}
	return setting.Value == "true", nil
}

// cronLogger routes scheduler output through pkg/debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	debug.Debug("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	debug.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
