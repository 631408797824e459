package tournament

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pokerclock/go/internal/blinds"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app      *App
	repo     *MemoryRepository
	registry *clock.Registry
	clock    *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fc := clockwork.NewFakeClockAt(time.Date(2026, 5, 2, 19, 0, 0, 0, time.UTC))
	repo := NewMemoryRepository(fc)
	registry := clock.NewRegistry(clock.WithClock(fc))
	t.Cleanup(registry.Shutdown)

	return &fixture{
		app:      NewApp(repo, registry, blinds.DefaultPresets(), fc),
		repo:     repo,
		registry: registry,
		clock:    fc,
	}
}

func validRequest() CreateTournamentRequest {
	return CreateTournamentRequest{
		Name:          "Friday Deepstack",
		Location:      "Back room",
		BuyIn:         100,
		StartingChips: 20000,
		MaxPlayers:    3,
		BlindConfig:   &models.BlindConfig{LevelDurationMinutes: 20, StartingStackBB: 100, AntesEnabled: true},
	}
}

func (f *fixture) create(t *testing.T) *models.Tournament {
	t.Helper()
	tournament, err := f.app.CreateTournament(context.Background(), validRequest())
	require.NoError(t, err)
	return tournament
}

func TestCreateTournament(t *testing.T) {
	f := newFixture(t)

	tournament := f.create(t)
	assert.Equal(t, "Friday Deepstack", tournament.Name)
	assert.Equal(t, models.TournamentStatusScheduled, tournament.Status)
	assert.Equal(t, 1, tournament.CurrentLevel)
	assert.Equal(t, blinds.TotalLevels, tournament.Schedule.LevelCount())
	assert.NoError(t, tournament.Schedule.Validate())
	assert.Equal(t, f.clock.Now(), tournament.CreatedAt)

	stored, err := f.app.GetTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.Schedule, stored.Schedule)

	list, err := f.app.ListTournaments(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateTournament_FromPreset(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.BlindConfig = nil
	req.PresetID = "turbo"

	tournament, err := f.app.CreateTournament(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.BlindConfig{LevelDurationMinutes: 15, StartingStackBB: 40, AntesEnabled: true}, tournament.BlindConfig)
	assert.Equal(t, 900, tournament.Schedule.Levels[0].DurationSec)
}

func TestCreateTournament_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateTournamentRequest)
	}{
		{name: "blank name", mutate: func(r *CreateTournamentRequest) { r.Name = "  " }},
		{name: "negative buy-in", mutate: func(r *CreateTournamentRequest) { r.BuyIn = -1 }},
		{name: "no chips", mutate: func(r *CreateTournamentRequest) { r.StartingChips = 0 }},
		{name: "no seats", mutate: func(r *CreateTournamentRequest) { r.MaxPlayers = 0 }},
		{name: "no blind structure", mutate: func(r *CreateTournamentRequest) { r.BlindConfig = nil }},
		{name: "config and preset", mutate: func(r *CreateTournamentRequest) { r.PresetID = "standard" }},
		{name: "unknown preset", mutate: func(r *CreateTournamentRequest) { r.BlindConfig = nil; r.PresetID = "hyper" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := f.app.CreateTournament(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	t.Run("bad blind config", func(t *testing.T) {
		f := newFixture(t)
		req := validRequest()
		req.BlindConfig = &models.BlindConfig{LevelDurationMinutes: 0, StartingStackBB: 50}

		_, err := f.app.CreateTournament(context.Background(), req)
		assert.True(t, blinds.IsValidationError(err))
	})
}

func TestStartTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t)

	started, err := f.app.StartTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusInProgress, started.Status)
	assert.True(t, f.registry.IsActive(tournament.ID))

	_, err = f.app.StartTournament(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.app.StartTournament(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartTournament_RollsBackWhenClockFails(t *testing.T) {
	fc := clockwork.NewFakeClock()
	repo := NewMemoryRepository(fc)
	app := NewApp(repo, failingClocks{}, blinds.DefaultPresets(), fc)
	ctx := context.Background()

	tournament, err := app.CreateTournament(ctx, validRequest())
	require.NoError(t, err)

	_, err = app.StartTournament(ctx, tournament.ID)
	require.ErrorIs(t, err, clock.ErrInvalidSchedule)

	stored, err := app.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusScheduled, stored.Status)
}

// hookedClocks runs beforeStart ahead of every clock start.
type hookedClocks struct {
	*clock.Registry
	beforeStart func()
}

func (c hookedClocks) Start(p clock.StartParams) error {
	c.beforeStart()
	return c.Registry.Start(p)
}

func TestStartTournament_StopDuringStartLeavesNoClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	repo := NewMemoryRepository(fc)
	registry := clock.NewRegistry(clock.WithClock(fc))
	t.Cleanup(registry.Shutdown)
	ctx := context.Background()

	clocks := &hookedClocks{Registry: registry}
	app := NewApp(repo, clocks, blinds.DefaultPresets(), fc)

	tournament, err := app.CreateTournament(ctx, validRequest())
	require.NoError(t, err)

	var stopErr error
	clocks.beforeStart = func() {
		_, stopErr = app.StopTournament(ctx, tournament.ID)
	}

	_, err = app.StartTournament(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	require.NoError(t, stopErr)
	assert.False(t, registry.IsActive(tournament.ID))

	stored, err := app.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusCompleted, stored.Status)
}

func TestClockWritesLevelBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t)
	_, err := f.app.StartTournament(ctx, tournament.ID)
	require.NoError(t, err)

	require.NoError(t, f.app.AdvanceLevel(ctx, tournament.ID))
	require.NoError(t, f.app.AdvanceLevel(ctx, tournament.ID))

	stored, err := f.app.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentLevel)

	require.NoError(t, f.app.PreviousLevel(ctx, tournament.ID))
	stored, err = f.app.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentLevel)

	state, err := f.app.GetTournamentState(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Clock.CurrentLevel)
	assert.Equal(t, stored.Schedule.Levels[1], state.Level)
	require.NotNil(t, state.NextLevel)
	assert.Equal(t, 3, state.NextLevel.Index)
}

func TestGetChipSheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t)

	sheet, err := f.app.GetChipSheet(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.Level)
	assert.Equal(t, tournament.Schedule.Levels[0].BigBlind, sheet.BigBlind)
	assert.Equal(t, tournament.StartingChips, sheet.StartingStack)

	_, err = f.app.StartTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.NoError(t, f.app.AdvanceLevel(ctx, tournament.ID))
	require.NoError(t, f.app.AdvanceLevel(ctx, tournament.ID))

	sheet, err = f.app.GetChipSheet(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sheet.Level)
	assert.Equal(t, tournament.Schedule.Levels[2].BigBlind, sheet.BigBlind)

	_, err = f.app.GetChipSheet(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClockCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t)

	assert.ErrorIs(t, f.app.PauseClock(ctx, uuid.New()), ErrNotFound)
	assert.ErrorIs(t, f.app.PauseClock(ctx, tournament.ID), clock.ErrNotActive)

	_, err := f.app.GetTournamentState(ctx, tournament.ID)
	assert.ErrorIs(t, err, clock.ErrNotActive)

	_, err = f.app.StartTournament(ctx, tournament.ID)
	require.NoError(t, err)

	require.NoError(t, f.app.PauseClock(ctx, tournament.ID))
	require.NoError(t, f.app.AddTime(ctx, tournament.ID, 90))
	state, err := f.app.GetTournamentState(ctx, tournament.ID)
	require.NoError(t, err)
	assert.True(t, state.Clock.IsPaused)
	assert.Equal(t, 20*60+90, state.Clock.TimeRemainingSec)

	require.NoError(t, f.app.ResumeClock(ctx, tournament.ID))
	assert.ErrorIs(t, f.app.PreviousLevel(ctx, tournament.ID), clock.ErrBeforeFirstLevel)
}

func TestStopTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t)

	_, err := f.app.StopTournament(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.app.StartTournament(ctx, tournament.ID)
	require.NoError(t, err)

	stopped, err := f.app.StopTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusCompleted, stopped.Status)
	assert.False(t, f.registry.IsActive(tournament.ID))

	_, err = f.app.StopTournament(ctx, tournament.ID)
	assert.NoError(t, err)

	_, err = f.app.GetTournamentState(ctx, tournament.ID)
	assert.ErrorIs(t, err, clock.ErrNotActive)
}

func TestPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t)

	alice, err := f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: " Alice "})
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, int64(20000), alice.Chips)
	assert.Equal(t, models.PlayerStatusRegistered, alice.Status)
	assert.Equal(t, int64(100), alice.TotalInvestment)

	_, err = f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: "alice"})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
	_, err = f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	bob, err := f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: "Bob"})
	require.NoError(t, err)
	carol, err := f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: "Carol"})
	require.NoError(t, err)
	_, err = f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: "Dave"})
	assert.ErrorIs(t, err, ErrTournamentFull)

	rebought, err := f.app.Rebuy(ctx, tournament.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rebought.Rebuys)
	assert.Equal(t, models.PlayerStatusRebuied, rebought.Status)
	assert.Equal(t, int64(20000), rebought.Chips)
	assert.Equal(t, int64(200), rebought.TotalInvestment)
	require.NotNil(t, rebought.LastRebuyAt)

	eliminated, err := f.app.EliminatePlayer(ctx, tournament.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusEliminated, eliminated.Status)
	assert.Equal(t, int64(0), eliminated.Chips)
	require.NotNil(t, eliminated.EliminatedAt)

	_, err = f.app.EliminatePlayer(ctx, tournament.ID, carol.ID)
	assert.ErrorIs(t, err, ErrPlayerEliminated)
	_, err = f.app.Rebuy(ctx, tournament.ID, carol.ID)
	assert.ErrorIs(t, err, ErrPlayerEliminated)
	_, err = f.app.Rebuy(ctx, tournament.ID, uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	stored, err := f.app.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), stored.PrizePool)

	_, err = f.app.StartTournament(ctx, tournament.ID)
	require.NoError(t, err)
	state, err := f.app.GetTournamentState(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, state.TotalPlayers)
	assert.Equal(t, 2, state.ActivePlayers)
	assert.Equal(t, int64(20000), state.AverageStack)
	assert.Equal(t, int64(400), state.PrizePool)
	require.NotNil(t, state.NextBreak)
	assert.GreaterOrEqual(t, state.NextBreak.AfterLevel, 1)

	_, err = f.app.StopTournament(ctx, tournament.ID)
	require.NoError(t, err)
	_, err = f.app.RegisterPlayer(ctx, tournament.ID, RegisterPlayerRequest{Name: "Late"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

type failingClocks struct{}

func (failingClocks) Start(clock.StartParams) error        { return clock.ErrInvalidSchedule }
func (failingClocks) Stop(uuid.UUID)                       {}
func (failingClocks) State(uuid.UUID) (clock.State, error) { return clock.State{}, clock.ErrNotActive }
func (failingClocks) Pause(uuid.UUID) error                { return clock.ErrNotActive }
func (failingClocks) Resume(uuid.UUID) error               { return clock.ErrNotActive }
func (failingClocks) AdvanceLevel(uuid.UUID) error         { return clock.ErrNotActive }
func (failingClocks) PreviousLevel(uuid.UUID) error        { return clock.ErrNotActive }
func (failingClocks) AddTime(uuid.UUID, int) error         { return clock.ErrNotActive }
