package services

import (
	"github.com/ZerkerEOD/slotban/internal/models"
	"github.com/ZerkerEOD/slotban/pkg/debug"
)

// Broadcaster delivers a message to every live subscriber.
type Broadcaster interface {
	Broadcast(msg models.WSMessage)
}

// NotificationService turns state changes into tagged WebSocket events
type NotificationService struct {
	broadcaster Broadcaster
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(broadcaster Broadcaster) *NotificationService {
	return &NotificationService{broadcaster: broadcaster}
}

func (s *NotificationService) publish(msgType models.WSMessageType, data interface{}) {
	debug.Debug("Publishing %s event", msgType)
	s.broadcaster.Broadcast(models.WSMessage{Type: msgType, Data: data})
}

// BanAdded announces a newly created ban.
func (s *NotificationService) BanAdded(slot models.BannedSlot) {
	s.publish(models.WSTypeBanAdded, slot)
}

// BanRemoved announces removal by id.
func (s *NotificationService) BanRemoved(id int64) {
	s.publish(models.WSTypeBanRemoved, models.BanRemovedPayload{ID: &id})
}

// BanRemovedByName announces removal of a named slot, e.g. from chat.
func (s *NotificationService) BanRemovedByName(slotName, removedBy string) {
	s.publish(models.WSTypeBanRemoved, models.BanRemovedPayload{SlotName: slotName, RemovedBy: removedBy})
}

// AllBansCleared announces that the list was emptied.
func (s *NotificationService) AllBansCleared() {
	s.publish(models.WSTypeBanRemoved, models.BanRemovedPayload{ClearAll: true})
}

// BansExpired announces bans removed by expiry. It satisfies ExpiryObserver.
func (s *NotificationService) BansExpired(expired []models.BannedSlot) {
	if expired == nil {
		expired = []models.BannedSlot{}
	}
	s.publish(models.WSTypeBanExpired, models.BanExpiredPayload{ExpiredBans: expired})
}

// RequestsStatusChanged announces the new requests_open value.
func (s *NotificationService) RequestsStatusChanged(open bool) {
	s.publish(models.WSTypeStatusChanged, models.StatusChangedPayload{RequestsOpen: open})
}

// BotStatusChanged announces the chat connection state.
func (s *NotificationService) BotStatusChanged(connected bool) {
	s.publish(models.WSTypeBotStatus, models.BotStatusPayload{Connected: connected})
}

var _ ExpiryObserver = (*NotificationService)(nil)
