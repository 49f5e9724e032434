package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler exposes the WebSocket join endpoint and connection stats.
type Handler struct {
	connectionManager *ConnectionManager
}

// NewHandler creates the gateway HTTP handler.
func NewHandler(cm *ConnectionManager) *Handler {
	return &Handler{
		connectionManager: cm,
	}
}

// RegisterRoutes mounts the gateway endpoints.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/rooms/{roomID}", h.handleJoinRoom)
	mux.HandleFunc("GET /ws/stats", h.handleStats)
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if roomID == "" {
		http.Error(w, "room id is required", http.StatusBadRequest)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, roomID); err != nil {
		// Upgrade already wrote the handshake failure response
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to join room")
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}
