package models

import "time"

// Setting keys
const (
	SettingRequestsOpen = "requests_open"
)

// Setting represents a key-value pair for application settings.
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultSettings are present in every freshly constructed settings store.
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingRequestsOpen: "true",
	}
}
