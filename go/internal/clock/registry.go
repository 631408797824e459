// Package clock runs live tournament clocks: one countdown engine per
// tournament, reachable through a Registry.
package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultTickInterval is the cadence of a tournament clock.
const DefaultTickInterval = time.Second

// StartParams is what the registry needs from a tournament record to start its clock.
type StartParams struct {
	TournamentID  uuid.UUID
	Schedule      models.Schedule
	CurrentLevel  int // 0 starts at level 1
	OnLevelChange LevelWriter
}

// Registry holds the running engines keyed by tournament id and guarantees
// at most one per tournament.
type Registry struct {
	clock    clockwork.Clock
	interval time.Duration
	observer Observer
	metrics  MetricsCollector

	mu      sync.RWMutex
	engines map[uuid.UUID]*Engine
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source. Tests pass a clockwork.FakeClock.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithTickInterval overrides DefaultTickInterval.
func WithTickInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithObservers sets the observers every engine reports events to.
func WithObservers(obs ...Observer) Option {
	return func(r *Registry) { r.observer = Observers(obs) }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:    clockwork.NewRealClock(),
		interval: DefaultTickInterval,
		metrics:  NoOpMetricsCollector{},
		engines:  make(map[uuid.UUID]*Engine),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start creates and starts the clock of a tournament. It returns
// ErrAlreadyActive, leaving the running clock untouched, when one exists.
func (r *Registry) Start(p StartParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[p.TournamentID]; exists {
		r.metrics.RecordCommand("start", ErrAlreadyActive)
		log.Debug().Str("tournament_id", p.TournamentID.String()).Msg("clock already active")
		return ErrAlreadyActive
	}

	e, err := newEngine(p, r.clock, r.interval, r.observer, r.metrics)
	if err != nil {
		r.metrics.RecordCommand("start", err)
		return err
	}
	r.engines[p.TournamentID] = e
	e.start()

	r.metrics.RecordCommand("start", nil)
	r.metrics.SetActiveEngines(len(r.engines))

	state := e.State()
	log.Info().
		Str("tournament_id", p.TournamentID.String()).
		Int("level", state.CurrentLevel).
		Int("time_remaining_sec", state.TimeRemainingSec).
		Msg("clock started")
	return nil
}

// Stop stops and discards the clock of a tournament. It is a no-op when
// no clock is running.
func (r *Registry) Stop(id uuid.UUID) {
	r.mu.Lock()
	e, exists := r.engines[id]
	if exists {
		delete(r.engines, id)
	}
	active := len(r.engines)
	r.mu.Unlock()

	if !exists {
		return
	}
	e.Stop()
	r.metrics.SetActiveEngines(active)
	log.Info().Str("tournament_id", id.String()).Msg("clock stopped")
}

// Shutdown stops every running clock.
func (r *Registry) Shutdown() {
	for _, id := range r.Active() {
		r.Stop(id)
	}
}

// Active returns the ids of tournaments with a running clock.
func (r *Registry) Active() []uuid.UUID {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// IsActive reports whether a tournament has a running clock.
func (r *Registry) IsActive(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.engines[id]
	return ok
}

// State returns the clock snapshot of a tournament, or ErrNotActive.
func (r *Registry) State(id uuid.UUID) (State, error) {
	e, err := r.engine(id)
	if err != nil {
		return State{}, err
	}
	return e.State(), nil
}

func (r *Registry) Pause(id uuid.UUID) error {
	return r.do("pause", id, (*Engine).Pause)
}

func (r *Registry) Resume(id uuid.UUID) error {
	return r.do("resume", id, (*Engine).Resume)
}

func (r *Registry) AdvanceLevel(id uuid.UUID) error {
	return r.do("advance_level", id, (*Engine).AdvanceLevel)
}

func (r *Registry) PreviousLevel(id uuid.UUID) error {
	return r.do("previous_level", id, (*Engine).PreviousLevel)
}

func (r *Registry) AddTime(id uuid.UUID, seconds int) error {
	return r.do("add_time", id, func(e *Engine) error { return e.AddTime(seconds) })
}

func (r *Registry) do(command string, id uuid.UUID, fn func(*Engine) error) error {
	e, err := r.engine(id)
	if err == nil {
		err = fn(e)
	}
	r.metrics.RecordCommand(command, err)

	if err != nil {
		log.Debug().
			Err(err).
			Str("tournament_id", id.String()).
			Str("command", command).
			Msg("clock command rejected")
	}
	return err
}

func (r *Registry) engine(id uuid.UUID) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[id]
	if !ok {
		return nil, ErrNotActive
	}
	return e, nil
}
