package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/clock"
)

// MessageTypeStateSync is sent once to every new connection before any
// clock event.
const MessageTypeStateSync = "state_sync"

// ClockMessage is the frame written to WebSocket clients.
type ClockMessage struct {
	ID           string          `json:"id"`
	TournamentID string          `json:"tournament_id"`
	Type         string          `json:"type"` // a clock event type or state_sync
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
}

// StateSyncPayload is the data of a state_sync message. State is nil when
// the tournament has no running clock.
type StateSyncPayload struct {
	Active bool         `json:"active"`
	State  *clock.State `json:"state,omitempty"`
}

func newClockMessage(e clock.Event) (*ClockMessage, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &ClockMessage{
		ID:           uuid.New().String(),
		TournamentID: e.TournamentID.String(),
		Type:         string(e.Type),
		Timestamp:    e.At.UTC(),
		Data:         data,
	}, nil
}

func newStateSyncMessage(tournamentID uuid.UUID, state *clock.State, now time.Time) (*ClockMessage, error) {
	data, err := json.Marshal(StateSyncPayload{Active: state != nil, State: state})
	if err != nil {
		return nil, err
	}
	return &ClockMessage{
		ID:           uuid.New().String(),
		TournamentID: tournamentID.String(),
		Type:         MessageTypeStateSync,
		Timestamp:    now.UTC(),
		Data:         data,
	}, nil
}
