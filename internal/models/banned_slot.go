package models

import "time"

// DefaultBanDuration is how long a slot stays banned unless configured otherwise.
const DefaultBanDuration = 10 * 24 * time.Hour

// BannedSlot is a slot that may not be requested in chat until ExpiresAt.
type BannedSlot struct {
	ID        int64     `json:"id" db:"id"`
	SlotName  string    `json:"slotName" db:"slot_name"`
	BannedBy  string    `json:"bannedBy" db:"banned_by"`
	BannedAt  time.Time `json:"bannedAt" db:"banned_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// IsExpired reports whether the ban is no longer active at now.
func (b BannedSlot) IsExpired(now time.Time) bool {
	return !b.ExpiresAt.After(now)
}

// SlotNames returns the names of the given bans in order.
func SlotNames(bans []BannedSlot) []string {
	names := make([]string, 0, len(bans))
	for _, ban := range bans {
		names = append(names, ban.SlotName)
	}
	return names
}
