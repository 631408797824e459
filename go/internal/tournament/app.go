// Package tournament manages tournament records and their players, and
// starts and stops their clocks.
package tournament

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pokerclock/go/internal/blinds"
	"github.com/mcdev12/pokerclock/go/internal/chips"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Repository defines what the app layer needs from tournament storage
type Repository interface {
	CreateTournament(ctx context.Context, t models.Tournament) (*models.Tournament, error)
	GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id uuid.UUID, fn func(t *models.Tournament) error) (*models.Tournament, error)
	LevelWriter(id uuid.UUID) clock.LevelWriter
}

// Clocks defines what the app layer needs from the clock registry
type Clocks interface {
	Start(p clock.StartParams) error
	Stop(id uuid.UUID)
	State(id uuid.UUID) (clock.State, error)
	Pause(id uuid.UUID) error
	Resume(id uuid.UUID) error
	AdvanceLevel(id uuid.UUID) error
	PreviousLevel(id uuid.UUID) error
	AddTime(id uuid.UUID, seconds int) error
}

// App handles tournament business logic
type App struct {
	repo    Repository
	clocks  Clocks
	presets []blinds.Preset
	clock   clockwork.Clock
}

func NewApp(repo Repository, clocks Clocks, presets []blinds.Preset, clk clockwork.Clock) *App {
	return &App{
		repo:    repo,
		clocks:  clocks,
		presets: presets,
		clock:   clk,
	}
}

// Presets returns the blind structure presets offered at creation.
func (a *App) Presets() []blinds.Preset {
	return a.presets
}

// CreateTournament validates the request and generates the blind schedule
func (a *App) CreateTournament(ctx context.Context, req CreateTournamentRequest) (*models.Tournament, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	cfg, err := a.blindConfig(req)
	if err != nil {
		return nil, err
	}

	schedule, err := blinds.Generate(cfg)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now()
	t, err := a.repo.CreateTournament(ctx, models.Tournament{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(req.Name),
		Location:      req.Location,
		StartsAt:      req.StartsAt,
		BuyIn:         req.BuyIn,
		StartingChips: req.StartingChips,
		MaxPlayers:    req.MaxPlayers,
		BlindConfig:   cfg,
		Schedule:      schedule,
		CurrentLevel:  1,
		Status:        models.TournamentStatusScheduled,
		Players:       []models.Player{},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	log.Info().
		Str("tournament_id", t.ID.String()).
		Str("name", t.Name).
		Int("levels", t.Schedule.LevelCount()).
		Int("breaks", len(t.Schedule.Breaks)).
		Msg("tournament created")
	return t, nil
}

func (a *App) GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return a.repo.GetTournament(ctx, id)
}

func (a *App) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	return a.repo.ListTournaments(ctx)
}

// StartTournament moves a scheduled tournament in progress and starts its
// clock from the stored level pointer.
func (a *App) StartTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, err := a.repo.UpdateTournament(ctx, id, func(t *models.Tournament) error {
		if t.Status != models.TournamentStatusScheduled {
			return fmt.Errorf("%w: cannot start a tournament that is %s", ErrInvalidStatus, t.Status)
		}
		t.Status = models.TournamentStatusInProgress
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = a.clocks.Start(clock.StartParams{
		TournamentID:  t.ID,
		Schedule:      t.Schedule,
		CurrentLevel:  t.CurrentLevel,
		OnLevelChange: a.repo.LevelWriter(t.ID),
	})
	if err != nil {
		if _, rerr := a.repo.UpdateTournament(ctx, id, func(t *models.Tournament) error {
			if t.Status == models.TournamentStatusInProgress {
				t.Status = models.TournamentStatusScheduled
			}
			return nil
		}); rerr != nil {
			log.Error().Err(rerr).Str("tournament_id", id.String()).Msg("failed to roll back tournament status")
		}
		return nil, fmt.Errorf("failed to start clock: %w", err)
	}

	// A stop that raced the clock start has already completed the record.
	t, err = a.repo.GetTournament(ctx, id)
	if err != nil {
		a.clocks.Stop(id)
		return nil, err
	}
	if t.Status != models.TournamentStatusInProgress {
		a.clocks.Stop(id)
		return nil, fmt.Errorf("%w: tournament became %s while starting", ErrInvalidStatus, t.Status)
	}

	log.Info().Str("tournament_id", id.String()).Msg("tournament started")
	return t, nil
}

// StopTournament stops the clock and completes the tournament. Stopping a
// completed tournament is a no-op.
func (a *App) StopTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, err := a.repo.UpdateTournament(ctx, id, func(t *models.Tournament) error {
		switch t.Status {
		case models.TournamentStatusInProgress, models.TournamentStatusCompleted:
			t.Status = models.TournamentStatusCompleted
			return nil
		default:
			return fmt.Errorf("%w: cannot stop a tournament that is %s", ErrInvalidStatus, t.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	a.clocks.Stop(id)

	log.Info().Str("tournament_id", id.String()).Msg("tournament stopped")
	return t, nil
}

// GetTournamentState combines the clock state with the record. It returns
// clock.ErrNotActive when the tournament has no running clock.
func (a *App) GetTournamentState(ctx context.Context, id uuid.UUID) (*State, error) {
	t, err := a.repo.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	cs, err := a.clocks.State(id)
	if err != nil {
		return nil, err
	}

	level, ok := t.Schedule.Level(cs.CurrentLevel)
	if !ok {
		return nil, fmt.Errorf("clock level %d outside schedule of tournament %s", cs.CurrentLevel, id)
	}

	state := &State{
		TournamentID: t.ID,
		Status:       t.Status,
		Clock:        cs,
		Level:        level,
		TotalPlayers: len(t.Players),
		PrizePool:    t.PrizePool,
	}
	if next, ok := t.Schedule.Level(cs.CurrentLevel + 1); ok {
		state.NextLevel = &next
	}
	if b, ok := t.Schedule.NextBreak(cs.CurrentLevel); ok {
		state.NextBreak = &b
	}

	var stacks int64
	for _, p := range t.Players {
		if p.Status == models.PlayerStatusEliminated {
			continue
		}
		state.ActivePlayers++
		stacks += p.Chips
	}
	if state.ActivePlayers > 0 {
		state.AverageStack = stacks / int64(state.ActivePlayers)
	}
	return state, nil
}

// GetChipSheet returns chip values for the level the record's level pointer
// names, with the tournament's starting stack split into chips. It does not
// need a running clock.
func (a *App) GetChipSheet(ctx context.Context, id uuid.UUID) (*chips.Sheet, error) {
	t, err := a.repo.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	level, ok := t.Schedule.Level(t.CurrentLevel)
	if !ok {
		return nil, fmt.Errorf("level %d outside schedule of tournament %s", t.CurrentLevel, id)
	}
	sheet := chips.ForLevel(level, t.StartingChips)
	return &sheet, nil
}

// Clock commands check the tournament exists so callers can tell an unknown
// tournament from one without a running clock.

func (a *App) PauseClock(ctx context.Context, id uuid.UUID) error {
	return a.command(ctx, id, a.clocks.Pause)
}

func (a *App) ResumeClock(ctx context.Context, id uuid.UUID) error {
	return a.command(ctx, id, a.clocks.Resume)
}

func (a *App) AdvanceLevel(ctx context.Context, id uuid.UUID) error {
	return a.command(ctx, id, a.clocks.AdvanceLevel)
}

func (a *App) PreviousLevel(ctx context.Context, id uuid.UUID) error {
	return a.command(ctx, id, a.clocks.PreviousLevel)
}

func (a *App) AddTime(ctx context.Context, id uuid.UUID, seconds int) error {
	return a.command(ctx, id, func(id uuid.UUID) error { return a.clocks.AddTime(id, seconds) })
}

func (a *App) command(ctx context.Context, id uuid.UUID, fn func(uuid.UUID) error) error {
	if _, err := a.repo.GetTournament(ctx, id); err != nil {
		return err
	}
	return fn(id)
}

// RegisterPlayer adds a player with a starting stack and collects the buy-in
func (a *App) RegisterPlayer(ctx context.Context, id uuid.UUID, req RegisterPlayerRequest) (*models.Player, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrInvalidRequest)
	}

	var player models.Player
	_, err := a.repo.UpdateTournament(ctx, id, func(t *models.Tournament) error {
		if t.Status != models.TournamentStatusScheduled && t.Status != models.TournamentStatusInProgress {
			return fmt.Errorf("%w: cannot register players in a tournament that is %s", ErrInvalidStatus, t.Status)
		}
		if len(t.Players) >= t.MaxPlayers {
			return ErrTournamentFull
		}
		for _, p := range t.Players {
			if strings.EqualFold(p.Name, name) {
				return fmt.Errorf("%w: %s", ErrDuplicatePlayer, name)
			}
		}

		player = models.Player{
			ID:              uuid.New(),
			Name:            name,
			Chips:           t.StartingChips,
			SeatNumber:      req.SeatNumber,
			TableNumber:     req.TableNumber,
			Status:          models.PlayerStatusRegistered,
			RegisteredAt:    a.clock.Now(),
			TotalInvestment: t.BuyIn,
		}
		t.Players = append(t.Players, player)
		t.PrizePool += t.BuyIn
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tournament_id", id.String()).
		Str("player_id", player.ID.String()).
		Str("name", player.Name).
		Msg("player registered")
	return &player, nil
}

// Rebuy resets a player's stack to the starting chips for another buy-in
func (a *App) Rebuy(ctx context.Context, id, playerID uuid.UUID) (*models.Player, error) {
	return a.updatePlayer(ctx, id, playerID, func(t *models.Tournament, p *models.Player) error {
		if p.Status == models.PlayerStatusEliminated {
			return fmt.Errorf("%w: cannot rebuy", ErrPlayerEliminated)
		}
		now := a.clock.Now()
		p.Rebuys++
		p.LastRebuyAt = &now
		p.Status = models.PlayerStatusRebuied
		p.Chips = t.StartingChips
		p.TotalInvestment += t.BuyIn
		t.PrizePool += t.BuyIn
		return nil
	})
}

func (a *App) EliminatePlayer(ctx context.Context, id, playerID uuid.UUID) (*models.Player, error) {
	return a.updatePlayer(ctx, id, playerID, func(t *models.Tournament, p *models.Player) error {
		if p.Status == models.PlayerStatusEliminated {
			return fmt.Errorf("%w: already eliminated", ErrPlayerEliminated)
		}
		now := a.clock.Now()
		p.Status = models.PlayerStatusEliminated
		p.EliminatedAt = &now
		p.Chips = 0
		return nil
	})
}

func (a *App) updatePlayer(ctx context.Context, id, playerID uuid.UUID, fn func(t *models.Tournament, p *models.Player) error) (*models.Player, error) {
	var player models.Player
	_, err := a.repo.UpdateTournament(ctx, id, func(t *models.Tournament) error {
		i, ok := t.FindPlayer(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		if err := fn(t, &t.Players[i]); err != nil {
			return err
		}
		player = t.Players[i]
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tournament_id", id.String()).
		Str("player_id", playerID.String()).
		Str("status", string(player.Status)).
		Int("rebuys", player.Rebuys).
		Msg("player updated")
	return &player, nil
}

func (a *App) blindConfig(req CreateTournamentRequest) (models.BlindConfig, error) {
	switch {
	case req.PresetID != "" && req.BlindConfig != nil:
		return models.BlindConfig{}, fmt.Errorf("%w: blind_config and preset_id are mutually exclusive", ErrInvalidRequest)
	case req.PresetID != "":
		p, err := blinds.FindPreset(a.presets, req.PresetID)
		if err != nil {
			return models.BlindConfig{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return p.Config, nil
	case req.BlindConfig != nil:
		return *req.BlindConfig, nil
	default:
		return models.BlindConfig{}, fmt.Errorf("%w: blind_config or preset_id is required", ErrInvalidRequest)
	}
}

func validateCreateRequest(req CreateTournamentRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if req.BuyIn < 0 {
		return fmt.Errorf("%w: buy_in must not be negative", ErrInvalidRequest)
	}
	if req.StartingChips <= 0 {
		return fmt.Errorf("%w: starting_chips must be positive", ErrInvalidRequest)
	}
	if req.MaxPlayers <= 0 {
		return fmt.Errorf("%w: max_players must be positive", ErrInvalidRequest)
	}
	return nil
}
