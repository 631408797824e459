package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/rs/zerolog/log"
)

// StateProvider returns the current clock state of a tournament, or
// clock.ErrNotActive.
type StateProvider interface {
	State(tournamentID uuid.UUID) (clock.State, error)
}

// WebSocketHandler handles WebSocket upgrade requests for clock feeds
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	states            StateProvider
}

func NewWebSocketHandler(cm *ConnectionManager, states StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		states:            states,
	}
}

// HandleClockConnection subscribes a client to one tournament's clock
func (h *WebSocketHandler) HandleClockConnection(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("tournament_id")
	if idStr == "" {
		http.Error(w, "tournament_id is required", http.StatusBadRequest)
		return
	}

	tournamentID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid tournament_id format", http.StatusBadRequest)
		return
	}

	var snapshot *clock.State
	state, err := h.states.State(tournamentID)
	switch {
	case err == nil:
		snapshot = &state
	case errors.Is(err, clock.ErrNotActive):
	default:
		log.Error().Err(err).Str("tournament_id", idStr).Msg("failed to read clock state")
		http.Error(w, "failed to read clock state", http.StatusInternalServerError)
		return
	}

	initial, err := newStateSyncMessage(tournamentID, snapshot, time.Now())
	if err != nil {
		http.Error(w, "failed to encode state", http.StatusInternalServerError)
		return
	}

	// The upgrader has already replied to the client when this fails
	if err := h.connectionManager.UpgradeConnection(w, r, tournamentID, initial); err != nil {
		log.Error().
			Err(err).
			Str("tournament_id", idStr).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/clock", h.HandleClockConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}
