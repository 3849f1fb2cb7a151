package routes

import (
	"net/http"

	"github.com/ZerkerEOD/slotban/internal/handlers/slots"
	"github.com/ZerkerEOD/slotban/internal/handlers/websocket"
	"github.com/ZerkerEOD/slotban/internal/middleware"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/ZerkerEOD/slotban/pkg/httputil"
	"github.com/gorilla/mux"
)

/*
 * Package routes wires the REST API and the WebSocket endpoint onto a router.
 * Request logging and CORS apply to every route.
 */

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
}

/*
 * SetupRoutes configures all application routes and middleware.
 *
 * Routes:
 *   - /api/banned-slots            GET list, POST ban (alias of /api/ban-slot)
 *   - /api/ban-slot                POST ban
 *   - /api/ban-slot/{id}           DELETE (also /api/banned-slots/{id})
 *   - /api/toggle-requests         POST
 *   - /api/status                  GET
 *   - /api/clear-expired           DELETE
 *   - /api/clear-all               DELETE
 *   - /api/health                  GET
 *   - /ws                          WebSocket event stream
 *
 * OPTIONS is accepted on every API route so the CORS middleware can answer
 * preflight requests.
 */
func SetupRoutes(r *mux.Router, allowedOrigin string, slotsHandler *slots.Handler, hub *websocket.Handler) {
	debug.Info("Initializing route configuration")

	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(allowedOrigin))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", Health).Methods("GET", "OPTIONS")

	api.HandleFunc("/banned-slots", slotsHandler.ListBannedSlots).Methods("GET", "OPTIONS")
	api.HandleFunc("/banned-slots", slotsHandler.BanSlot).Methods("POST")
	api.HandleFunc("/banned-slots/{id}", slotsHandler.RemoveBan).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/ban-slot", slotsHandler.BanSlot).Methods("POST", "OPTIONS")
	api.HandleFunc("/ban-slot/{id}", slotsHandler.RemoveBan).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/toggle-requests", slotsHandler.ToggleRequests).Methods("POST", "OPTIONS")
	api.HandleFunc("/status", slotsHandler.Status).Methods("GET", "OPTIONS")
	api.HandleFunc("/clear-expired", slotsHandler.ClearExpired).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/clear-all", slotsHandler.ClearAll).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/ws", hub.ServeWS).Methods("GET")

	debug.Info("Route configuration completed successfully")
}

// Health reports that the process is serving requests
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
