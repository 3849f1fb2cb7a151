package slots

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZerkerEOD/slotban/internal/models"
	"github.com/ZerkerEOD/slotban/internal/services"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/ZerkerEOD/slotban/pkg/httputil"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// BanService is what the HTTP surface needs from services.BanService
type BanService interface {
	GetAllBannedSlots(ctx context.Context) ([]models.BannedSlot, error)
	AddManualBan(ctx context.Context, slotName, bannedBy string) (*models.BannedSlot, error)
	RemoveBan(ctx context.Context, id int64) error
	ClearAllBans(ctx context.Context) error
	DeleteExpired(ctx context.Context) ([]models.BannedSlot, error)
	ToggleRequestsStatus(ctx context.Context) (bool, error)
	GetRequestsStatus(ctx context.Context) (bool, error)
}

// Publisher announces the changes made through this handler
type Publisher interface {
	BanAdded(slot models.BannedSlot)
	BanRemoved(id int64)
	AllBansCleared()
	BansExpired(expired []models.BannedSlot)
	RequestsStatusChanged(open bool)
}

// BotStatus reports the chat connection state
type BotStatus interface {
	IsConnected() bool
}

// Handler serves the banned slot REST API
type Handler struct {
	bans      BanService
	publisher Publisher
	bot       BotStatus
	validate  *validator.Validate
}

// NewHandler creates a new Handler. bot may be nil when no chat transport is
// configured.
func NewHandler(bans BanService, publisher Publisher, bot BotStatus) *Handler {
	return &Handler{
		bans:      bans,
		publisher: publisher,
		bot:       bot,
		validate:  validator.New(),
	}
}

// ListBannedSlots handles GET /api/banned-slots
func (h *Handler) ListBannedSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.bans.GetAllBannedSlots(r.Context())
	if err != nil {
		debug.Error("failed to list banned slots: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch banned slots")
		return
	}
	if slots == nil {
		slots = []models.BannedSlot{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, slots)
}

// BanSlot handles POST /api/ban-slot
func (h *Handler) BanSlot(w http.ResponseWriter, r *http.Request) {
	var req models.BanSlotRequest
	if err := httputil.ParseJSONBody(r, &req); err != nil {
		debug.Warning("invalid ban request body: %v", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SlotName = strings.TrimSpace(req.SlotName)
	req.BannedBy = strings.TrimSpace(req.BannedBy)

	if err := h.validate.Struct(req); err != nil {
		debug.Debug("ban request failed validation: %v", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "slotName and bannedBy are required")
		return
	}

	slot, err := h.bans.AddManualBan(r.Context(), req.SlotName, req.BannedBy)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyBanned) {
			httputil.RespondWithError(w, http.StatusConflict, "Slot is already banned")
			return
		}
		debug.Error("failed to ban slot %q: %v", req.SlotName, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to ban slot")
		return
	}

	h.publisher.BanAdded(*slot)
	httputil.RespondWithJSON(w, http.StatusOK, slot)
}

// RemoveBan handles DELETE /api/ban-slot/{id}
func (h *Handler) RemoveBan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid ban id")
		return
	}

	if err := h.bans.RemoveBan(r.Context(), id); err != nil {
		debug.Error("failed to remove ban %d: %v", id, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to remove ban")
		return
	}

	h.publisher.BanRemoved(id)
	httputil.RespondWithJSON(w, http.StatusOK, httputil.SuccessResponse{Success: true})
}

// ToggleRequests handles POST /api/toggle-requests
func (h *Handler) ToggleRequests(w http.ResponseWriter, r *http.Request) {
	open, err := h.bans.ToggleRequestsStatus(r.Context())
	if err != nil {
		debug.Error("failed to toggle requests status: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to toggle requests status")
		return
	}

	h.publisher.RequestsStatusChanged(open)
	httputil.RespondWithJSON(w, http.StatusOK, models.RequestsStatusResponse{RequestsOpen: open})
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	open, err := h.bans.GetRequestsStatus(r.Context())
	if err != nil {
		debug.Error("failed to read requests status: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch status")
		return
	}

	slots, err := h.bans.GetAllBannedSlots(r.Context())
	if err != nil {
		debug.Error("failed to count banned slots: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch status")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, models.StatusResponse{
		RequestsOpen: open,
		BotConnected: h.bot != nil && h.bot.IsConnected(),
		TotalBans:    len(slots),
	})
}

// ClearExpired handles DELETE /api/clear-expired. BAN_EXPIRED is published
// even when nothing expired so dashboards can refresh.
func (h *Handler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	expired, err := h.bans.DeleteExpired(r.Context())
	if err != nil {
		debug.Error("failed to clear expired bans: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to clear expired bans")
		return
	}

	h.publisher.BansExpired(expired)
	httputil.RespondWithJSON(w, http.StatusOK, models.ClearExpiredResponse{Removed: len(expired)})
}

// ClearAll handles DELETE /api/clear-all
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.bans.ClearAllBans(r.Context()); err != nil {
		debug.Error("failed to clear all bans: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to clear all bans")
		return
	}

	h.publisher.AllBansCleared()
	httputil.RespondWithJSON(w, http.StatusOK, httputil.SuccessResponse{Success: true})
}
