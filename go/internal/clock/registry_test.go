package clock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	r := NewRegistry(append([]Option{WithClock(fc)}, opts...)...)
	t.Cleanup(r.Shutdown)
	return r, fc
}

func TestRegistry_StartTwiceKeepsFirstEngine(t *testing.T) {
	r, _ := newTestRegistry(t)
	id := uuid.New()

	require.NoError(t, r.Start(StartParams{TournamentID: id, Schedule: testSchedule(3)}))
	require.NoError(t, r.Pause(id))

	err := r.Start(StartParams{TournamentID: id, Schedule: testSchedule(3), CurrentLevel: 2})
	require.ErrorIs(t, err, ErrAlreadyActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	state, err := r.State(id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentLevel)
	assert.True(t, state.IsPaused)
	assert.Len(t, r.Active(), 1)
}

func TestRegistry_NotActive(t *testing.T) {
	r, _ := newTestRegistry(t)
	id := uuid.New()

	_, err := r.State(id)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.False(t, r.IsActive(id))

	assert.ErrorIs(t, r.Pause(id), ErrNotActive)
	assert.ErrorIs(t, r.Resume(id), ErrNotActive)
	assert.ErrorIs(t, r.AdvanceLevel(id), ErrNotActive)
	assert.ErrorIs(t, r.PreviousLevel(id), ErrNotActive)
	assert.ErrorIs(t, r.AddTime(id, 30), ErrNotActive)
}

func TestRegistry_StopIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	id := uuid.New()

	r.Stop(id)

	require.NoError(t, r.Start(StartParams{TournamentID: id, Schedule: testSchedule(3)}))
	require.True(t, r.IsActive(id))

	r.Stop(id)
	r.Stop(id)
	assert.False(t, r.IsActive(id))
	_, err := r.State(id)
	assert.ErrorIs(t, err, ErrNotActive)

	// a stopped tournament can be started again from its stored pointer
	require.NoError(t, r.Start(StartParams{TournamentID: id, Schedule: testSchedule(3), CurrentLevel: 2}))
	state, err := r.State(id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentLevel)
}

func TestRegistry_InvalidSchedule(t *testing.T) {
	r, _ := newTestRegistry(t)
	id := uuid.New()

	err := r.Start(StartParams{TournamentID: id, Schedule: testSchedule(3), CurrentLevel: 9})
	require.ErrorIs(t, err, ErrInvalidSchedule)
	assert.False(t, r.IsActive(id))
}

func TestRegistry_TickerDrivesEngine(t *testing.T) {
	r, fc := newTestRegistry(t)
	id := uuid.New()

	var levels []int
	levelCh := make(chan int, 4)
	require.NoError(t, r.Start(StartParams{
		TournamentID:  id,
		Schedule:      testSchedule(3),
		OnLevelChange: func(level int) { levelCh <- level },
	}))
	levels = append(levels, <-levelCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	for want := 59; want >= 57; want-- {
		fc.Advance(time.Second)
		require.Eventually(t, func() bool {
			state, err := r.State(id)
			return err == nil && state.TimeRemainingSec == want
		}, time.Second, 5*time.Millisecond)
	}

	require.NoError(t, r.AdvanceLevel(id))
	levels = append(levels, <-levelCh)
	assert.Equal(t, []int{1, 2}, levels)
}

func TestRegistry_IndependentTournaments(t *testing.T) {
	r, _ := newTestRegistry(t)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, r.Start(StartParams{TournamentID: a, Schedule: testSchedule(3)}))
	require.NoError(t, r.Start(StartParams{TournamentID: b, Schedule: testSchedule(3)}))

	require.NoError(t, r.AdvanceLevel(a))
	require.NoError(t, r.AddTime(b, 15))

	stateA, err := r.State(a)
	require.NoError(t, err)
	stateB, err := r.State(b)
	require.NoError(t, err)

	assert.Equal(t, State{CurrentLevel: 2, TimeRemainingSec: 120}, stateA)
	assert.Equal(t, State{CurrentLevel: 1, TimeRemainingSec: 75}, stateB)
	assert.Len(t, r.Active(), 2)

	r.Shutdown()
	assert.Empty(t, r.Active())
}

func TestRegistry_ObserversSeeLifecycle(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestRegistry(t, WithObservers(rec))
	id := uuid.New()

	require.NoError(t, r.Start(StartParams{TournamentID: id, Schedule: testSchedule(3)}))
	require.NoError(t, r.Pause(id))
	require.NoError(t, r.Resume(id))
	require.NoError(t, r.AdvanceLevel(id))
	r.Stop(id)

	assert.Equal(t, []EventType{
		EventClockStarted,
		EventClockPaused,
		EventClockResumed,
		EventLevelStarted,
		EventClockStopped,
	}, rec.types())
}

func TestRegistry_PrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	r, _ := newTestRegistry(t, WithMetrics(m))
	a, b := uuid.New(), uuid.New()

	require.NoError(t, r.Start(StartParams{TournamentID: a, Schedule: testSchedule(3)}))
	require.NoError(t, r.Start(StartParams{TournamentID: b, Schedule: testSchedule(3)}))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeEngines))

	require.NoError(t, r.AdvanceLevel(a))
	require.ErrorIs(t, r.PreviousLevel(b), ErrBeforeFirstLevel)
	require.ErrorIs(t, r.Pause(uuid.New()), ErrNotActive)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("advance_level", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("previous_level", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("pause", "not_active")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues(string(EventClockStarted))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues(string(EventLevelStarted))))

	r.Stop(a)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeEngines))

	_, err = NewPrometheusMetrics(reg)
	assert.Error(t, err)
}
