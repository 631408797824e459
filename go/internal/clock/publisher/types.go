package publisher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/clock"
)

// Message is the envelope published for every clock event.
type Message struct {
	EventID      uuid.UUID       `json:"eventId"`
	EventType    clock.EventType `json:"eventType"`
	TournamentID uuid.UUID       `json:"tournamentId"`
	Timestamp    time.Time       `json:"timestamp"`
	Payload      clock.Event     `json:"payload"`
}

// Sink delivers one message to the outside world.
type Sink interface {
	Publish(ctx context.Context, msg Message) error
}

func newMessage(e clock.Event) Message {
	return Message{
		EventID:      uuid.New(),
		EventType:    e.Type,
		TournamentID: e.TournamentID,
		Timestamp:    e.At.UTC(),
		Payload:      e,
	}
}
