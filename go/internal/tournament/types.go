package tournament

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/mcdev12/pokerclock/go/internal/models"
)

// CreateTournamentRequest represents a request to create a tournament.
// Exactly one of BlindConfig and PresetID selects the blind structure.
type CreateTournamentRequest struct {
	Name          string              `json:"name"`
	Location      string              `json:"location"`
	StartsAt      *time.Time          `json:"starts_at"`
	BuyIn         int64               `json:"buy_in"`
	StartingChips int64               `json:"starting_chips"`
	MaxPlayers    int                 `json:"max_players"`
	BlindConfig   *models.BlindConfig `json:"blind_config"`
	PresetID      string              `json:"preset_id"`
}

// RegisterPlayerRequest represents a request to register a player
type RegisterPlayerRequest struct {
	Name        string `json:"name"`
	SeatNumber  *int   `json:"seat_number"`
	TableNumber *int   `json:"table_number"`
}

// State is the live view of a running tournament.
type State struct {
	TournamentID  uuid.UUID               `json:"tournament_id"`
	Status        models.TournamentStatus `json:"status"`
	Clock         clock.State             `json:"clock"`
	Level         models.BlindLevel       `json:"level"`
	NextLevel     *models.BlindLevel      `json:"next_level,omitempty"`
	NextBreak     *models.Break           `json:"next_break,omitempty"`
	ActivePlayers int                     `json:"active_players"`
	TotalPlayers  int                     `json:"total_players"`
	AverageStack  int64                   `json:"average_stack"`
	PrizePool     int64                   `json:"prize_pool"`
}
