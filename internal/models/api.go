package models

// BanSlotRequest is the body of POST /api/ban-slot
type BanSlotRequest struct {
	SlotName string `json:"slotName" validate:"required"`
	BannedBy string `json:"bannedBy" validate:"required"`
}

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	RequestsOpen bool `json:"requestsOpen"`
	BotConnected bool `json:"botConnected"`
	TotalBans    int  `json:"totalBans"`
}

// RequestsStatusResponse is returned by POST /api/toggle-requests
type RequestsStatusResponse struct {
	RequestsOpen bool `json:"requestsOpen"`
}

// ClearExpiredResponse is returned by DELETE /api/clear-expired
type ClearExpiredResponse struct {
	Removed int `json:"removed"`
}
