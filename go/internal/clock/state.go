package clock

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/models"
)

// State is a snapshot of a tournament clock.
type State struct {
	CurrentLevel          int  `json:"current_level"`
	TimeRemainingSec      int  `json:"time_remaining_sec"`
	IsOnBreak             bool `json:"is_on_break"`
	BreakTimeRemainingSec int  `json:"break_time_remaining_sec"`
	IsPaused              bool `json:"is_paused"`
}

// EventType names a clock event.
type EventType string

const (
	EventClockStarted       EventType = "clock_started"
	EventClockStopped       EventType = "clock_stopped"
	EventClockPaused        EventType = "clock_paused"
	EventClockResumed       EventType = "clock_resumed"
	EventLevelStarted       EventType = "level_started"
	EventBreakStarted       EventType = "break_started"
	EventBreakEnded         EventType = "break_ended"
	EventTimeAdded          EventType = "time_added"
	EventFinalLevelExtended EventType = "final_level_extended"
	EventTick               EventType = "tick"
)

// Event describes something that happened to a tournament clock. State is
// the snapshot taken right after it happened.
type Event struct {
	Type         EventType          `json:"type"`
	TournamentID uuid.UUID          `json:"tournament_id"`
	State        State              `json:"state"`
	Level        *models.BlindLevel `json:"level,omitempty"`
	Break        *models.Break      `json:"break,omitempty"`
	DeltaSec     int                `json:"delta_sec,omitempty"`
	At           time.Time          `json:"at"`
}

// Observer receives clock events. Events of one tournament are delivered in
// order, outside the engine's state lock. Implementations must not block and
// must not issue clock commands synchronously.
type Observer interface {
	OnClockEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnClockEvent(e Event) { f(e) }

// Observers fans events out to every member.
type Observers []Observer

func (o Observers) OnClockEvent(e Event) {
	for _, obs := range o {
		obs.OnClockEvent(e)
	}
}
