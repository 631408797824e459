package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus defines the status of a tournament.
type TournamentStatus string

const (
	TournamentStatusScheduled  TournamentStatus = "scheduled"
	TournamentStatusInProgress TournamentStatus = "in_progress"
	TournamentStatusCompleted  TournamentStatus = "completed"
	TournamentStatusCancelled  TournamentStatus = "cancelled"
)

// PlayerStatus defines the status of a registered player.
type PlayerStatus string

const (
	PlayerStatusRegistered PlayerStatus = "registered"
	PlayerStatusActive     PlayerStatus = "active"
	PlayerStatusEliminated PlayerStatus = "eliminated"
	PlayerStatusRebuied    PlayerStatus = "rebuied"
)

// BlindConfig is the small configuration a schedule is derived from.
type BlindConfig struct {
	LevelDurationMinutes int  `json:"level_duration_minutes" yaml:"level_duration_minutes"`
	StartingStackBB      int  `json:"starting_stack_bb" yaml:"starting_stack_bb"`
	AntesEnabled         bool `json:"antes_enabled" yaml:"antes_enabled"`
}

// Player represents a registered tournament entrant.
type Player struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Chips           int64        `json:"chips"`
	SeatNumber      *int         `json:"seat_number,omitempty"`
	TableNumber     *int         `json:"table_number,omitempty"`
	Status          PlayerStatus `json:"status"`
	RegisteredAt    time.Time    `json:"registered_at"`
	Rebuys          int          `json:"rebuys"`
	LastRebuyAt     *time.Time   `json:"last_rebuy_at,omitempty"`
	EliminatedAt    *time.Time   `json:"eliminated_at,omitempty"`
	TotalInvestment int64        `json:"total_investment"`
}

// Tournament represents a tournament record.
//
// CurrentLevel mirrors the clock's level pointer for readers. It is written
// only through the clock's write-back callback.
type Tournament struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Location      string           `json:"location,omitempty"`
	StartsAt      *time.Time       `json:"starts_at,omitempty"`
	BuyIn         int64            `json:"buy_in"`
	StartingChips int64            `json:"starting_chips"`
	MaxPlayers    int              `json:"max_players"`
	BlindConfig   BlindConfig      `json:"blind_config"`
	Schedule      Schedule         `json:"schedule"`
	CurrentLevel  int              `json:"current_level"`
	Status        TournamentStatus `json:"status"`
	Players       []Player         `json:"players"`
	PrizePool     int64            `json:"prize_pool"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot reach stored state.
func (t Tournament) Clone() Tournament {
	out := t
	out.Schedule = t.Schedule.Clone()
	out.Players = make([]Player, len(t.Players))
	copy(out.Players, t.Players)
	return out
}

// FindPlayer returns the position of the player with the given id.
func (t Tournament) FindPlayer(id uuid.UUID) (int, bool) {
	for i, p := range t.Players {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}
