package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ZerkerEOD/slotban/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []models.WSMessage
}

func (r *recordingBroadcaster) Broadcast(msg models.WSMessage) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

func encode(t *testing.T, msg models.WSMessage) string {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(data)
}

func TestNotificationService_Events(t *testing.T) {
	bannedAt := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	slot := models.BannedSlot{ID: 5, SlotName: "Book of Dead", BannedBy: "Alice", BannedAt: bannedAt, ExpiresAt: bannedAt.Add(10 * day)}

	tests := []struct {
		name    string
		publish func(*NotificationService)
		want    string
	}{
		{
			name:    "ban added",
			publish: func(s *NotificationService) { s.BanAdded(slot) },
			want:    `{"type":"BAN_ADDED","data":{"id":5,"slotName":"Book of Dead","bannedBy":"Alice","bannedAt":"2024-05-01T20:00:00Z","expiresAt":"2024-05-11T20:00:00Z"}}`,
		},
		{
			name:    "ban removed by id",
			publish: func(s *NotificationService) { s.BanRemoved(5) },
			want:    `{"type":"BAN_REMOVED","data":{"id":5}}`,
		},
		{
			name:    "ban removed by name",
			publish: func(s *NotificationService) { s.BanRemovedByName("Book of Dead", "Moderator") },
			want:    `{"type":"BAN_REMOVED","data":{"slotName":"Book of Dead","removedBy":"Moderator"}}`,
		},
		{
			name:    "clear all",
			publish: func(s *NotificationService) { s.AllBansCleared() },
			want:    `{"type":"BAN_REMOVED","data":{"clearAll":true}}`,
		},
		{
			name:    "expired with nothing",
			publish: func(s *NotificationService) { s.BansExpired(nil) },
			want:    `{"type":"BAN_EXPIRED","data":{"expiredBans":[]}}`,
		},
		{
			name:    "status changed",
			publish: func(s *NotificationService) { s.RequestsStatusChanged(false) },
			want:    `{"type":"STATUS_CHANGED","data":{"requestsOpen":false}}`,
		},
		{
			name:    "bot status",
			publish: func(s *NotificationService) { s.BotStatusChanged(true) },
			want:    `{"type":"BOT_STATUS","data":{"connected":true}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingBroadcaster{}
			tt.publish(NewNotificationService(rec))

			require.Len(t, rec.messages, 1)
			assert.JSONEq(t, tt.want, encode(t, rec.messages[0]))
		})
	}
}

func TestNotificationService_IsExpiryObserver(t *testing.T) {
	rec := &recordingBroadcaster{}
	var observer ExpiryObserver = NewNotificationService(rec)

	observer.BansExpired([]models.BannedSlot{{ID: 1, SlotName: "a"}})

	require.Len(t, rec.messages, 1)
	assert.Equal(t, models.WSTypeBanExpired, rec.messages[0].Type)
	payload, ok := rec.messages[0].Data.(models.BanExpiredPayload)
	require.True(t, ok)
	assert.Len(t, payload.ExpiredBans, 1)
}
