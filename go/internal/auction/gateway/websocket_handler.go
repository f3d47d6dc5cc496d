package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for auction connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm}
}

// HandleAuctionConnection upgrades a client onto one auction's event feed.
func (h *WebSocketHandler) HandleAuctionConnection(w http.ResponseWriter, r *http.Request) {
	auctionIDStr := r.URL.Query().Get("auction_id")
	if auctionIDStr == "" {
		http.Error(w, "auction_id is required", http.StatusBadRequest)
		return
	}

	auctionID, err := uuid.Parse(auctionIDStr)
	if err != nil {
		http.Error(w, "invalid auction_id format", http.StatusBadRequest)
		return
	}

	// In production the user identity would come from a session or JWT.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, auctionID); err != nil {
		log.Error().
			Err(err).
			Str("auction_id", auctionID.String()).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, perAuction := h.connectionManager.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total_connections":   total,
		"active_auctions":     len(perAuction),
		"auction_connections": perAuction,
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/auction", h.HandleAuctionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
