package models

// WSMessageType tags every message pushed to dashboard and overlay clients
type WSMessageType string

const (
	WSTypeBanAdded      WSMessageType = "BAN_ADDED"
	WSTypeBanRemoved    WSMessageType = "BAN_REMOVED"
	WSTypeBanExpired    WSMessageType = "BAN_EXPIRED"
	WSTypeStatusChanged WSMessageType = "STATUS_CHANGED"
	WSTypeBotStatus     WSMessageType = "BOT_STATUS"
)

// WSMessage is the envelope sent over the WebSocket. Data depends on Type.
type WSMessage struct {
	Type WSMessageType `json:"type"`
	Data interface{}   `json:"data"`
}

// BanRemovedPayload carries one of: the removed id, the removed name with
// who removed it, or the clear-all flag.
type BanRemovedPayload struct {
	ID        *int64 `json:"id,omitempty"`
	SlotName  string `json:"slotName,omitempty"`
	RemovedBy string `json:"removedBy,omitempty"`
	ClearAll  bool   `json:"clearAll,omitempty"`
}

// BanExpiredPayload lists the bans removed by an expiry pass
type BanExpiredPayload struct {
	ExpiredBans []BannedSlot `json:"expiredBans"`
}

// StatusChangedPayload reports the requests_open flag
type StatusChangedPayload struct {
	RequestsOpen bool `json:"requestsOpen"`
}

// BotStatusPayload reports the chat connection state
type BotStatusPayload struct {
	Connected bool `json:"connected"`
}
