package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/rs/zerolog/log"
)

// LevelWriter publishes the clock's level pointer back to the tournament
// record. It runs with the engine lock held and must not call into the clock.
type LevelWriter func(level int)

// Engine is the countdown state machine of one tournament.
//
// Every read-modify-write of the state, whether from the ticker or from an
// operator command, happens under mu. Events produced by a mutation are
// delivered after mu is released but before notifyMu is, so observers see
// them in mutation order.
type Engine struct {
	tournamentID uuid.UUID
	schedule     models.Schedule
	writeBack    LevelWriter
	clock        clockwork.Clock
	interval     time.Duration
	observer     Observer
	metrics      MetricsCollector

	mu      sync.Mutex
	state   State
	stopped bool

	notifyMu sync.Mutex

	quit     chan struct{}
	stopOnce sync.Once
}

func newEngine(p StartParams, clk clockwork.Clock, interval time.Duration, observer Observer, metrics MetricsCollector) (*Engine, error) {
	if err := p.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	current := p.CurrentLevel
	if current == 0 {
		current = 1
	}
	lvl, ok := p.Schedule.Level(current)
	if !ok {
		return nil, fmt.Errorf("%w: level %d outside 1..%d", ErrInvalidSchedule, current, p.Schedule.LevelCount())
	}

	writeBack := p.OnLevelChange
	if writeBack == nil {
		writeBack = func(int) {}
	}

	return &Engine{
		tournamentID: p.TournamentID,
		schedule:     p.Schedule,
		writeBack:    writeBack,
		clock:        clk,
		interval:     interval,
		observer:     observer,
		metrics:      metrics,
		state: State{
			CurrentLevel:     current,
			TimeRemainingSec: lvl.DurationSec,
		},
		quit: make(chan struct{}),
	}, nil
}

// start registers the ticker and begins ticking in the background.
func (e *Engine) start() {
	ticker := e.clock.NewTicker(e.interval)

	e.mu.Lock()
	e.writeBack(e.state.CurrentLevel)
	events := []Event{e.eventLocked(EventClockStarted)}
	e.notifyMu.Lock()
	e.mu.Unlock()
	e.deliver(events)

	go e.run(ticker)
}

func (e *Engine) run(ticker clockwork.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-e.quit:
			return
		case <-ticker.Chan():
			e.Tick()
		}
	}
}

// Tick advances the active countdown by one second and applies the
// transition it triggers. It is a no-op while paused or after Stop.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.stopped || e.state.IsPaused {
		e.mu.Unlock()
		return
	}

	var events []Event
	if e.state.IsOnBreak {
		e.state.BreakTimeRemainingSec--
		if e.state.BreakTimeRemainingSec <= 0 {
			events = e.endBreakLocked(events)
		}
	} else {
		e.state.TimeRemainingSec--
		if e.state.TimeRemainingSec <= 0 {
			events = e.levelEndLocked(events)
		}
	}
	events = append(events, e.eventLocked(EventTick))

	e.notifyMu.Lock()
	e.mu.Unlock()

	e.metrics.RecordTick()
	e.deliver(events)
}

// Pause freezes the countdown.
func (e *Engine) Pause() error {
	return e.command(func() ([]Event, error) {
		e.state.IsPaused = true
		return []Event{e.eventLocked(EventClockPaused)}, nil
	})
}

// Resume unfreezes the countdown.
func (e *Engine) Resume() error {
	return e.command(func() ([]Event, error) {
		e.state.IsPaused = false
		return []Event{e.eventLocked(EventClockResumed)}, nil
	})
}

// AdvanceLevel skips to the next level. On a break it ends the break and
// moves to the next level in the same call.
func (e *Engine) AdvanceLevel() error {
	return e.command(func() ([]Event, error) {
		if e.state.IsOnBreak {
			return e.endBreakLocked(nil), nil
		}
		if e.state.CurrentLevel >= e.schedule.LevelCount() {
			return nil, ErrPastLastLevel
		}
		return e.advanceLocked(nil), nil
	})
}

// PreviousLevel steps back one level. On a break it leaves the break and
// restarts the current level instead of changing the index.
func (e *Engine) PreviousLevel() error {
	return e.command(func() ([]Event, error) {
		if e.state.CurrentLevel <= 1 {
			return nil, ErrBeforeFirstLevel
		}

		if e.state.IsOnBreak {
			e.state.IsOnBreak = false
			e.state.BreakTimeRemainingSec = 0
			events := []Event{e.eventLocked(EventBreakEnded)}
			return e.enterLevelLocked(events, e.state.CurrentLevel), nil
		}
		return e.enterLevelLocked(nil, e.state.CurrentLevel-1), nil
	})
}

// AddTime adds seconds, possibly negative, to the active countdown. A
// non-positive result is resolved by the next tick.
func (e *Engine) AddTime(seconds int) error {
	return e.command(func() ([]Event, error) {
		if e.state.IsOnBreak {
			e.state.BreakTimeRemainingSec += seconds
		} else {
			e.state.TimeRemainingSec += seconds
		}
		ev := e.eventLocked(EventTimeAdded)
		ev.DeltaSec = seconds
		return []Event{ev}, nil
	})
}

// State returns a snapshot of the clock.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stop cancels the ticker. A tick already holding the lock completes first;
// later ticks and commands see a stopped engine. Safe to call repeatedly.
func (e *Engine) Stop() {
	e.mu.Lock()
	already := e.stopped
	e.stopped = true
	var events []Event
	if !already {
		events = []Event{e.eventLocked(EventClockStopped)}
	}
	e.notifyMu.Lock()
	e.mu.Unlock()

	e.stopOnce.Do(func() { close(e.quit) })
	e.deliver(events)
}

func (e *Engine) command(fn func() ([]Event, error)) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrNotActive
	}

	events, err := fn()
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.notifyMu.Lock()
	e.mu.Unlock()
	e.deliver(events)
	return nil
}

func (e *Engine) levelEndLocked(events []Event) []Event {
	if b, ok := e.schedule.BreakAfter(e.state.CurrentLevel); ok {
		e.state.IsOnBreak = true
		e.state.BreakTimeRemainingSec = b.DurationSec
		ev := e.eventLocked(EventBreakStarted)
		ev.Break = &b

		log.Info().
			Str("tournament_id", e.tournamentID.String()).
			Str("break", b.Name).
			Int("after_level", b.AfterLevel).
			Msg("break started")
		return append(events, ev)
	}

	if e.state.CurrentLevel >= e.schedule.LevelCount() {
		lvl := e.level(e.state.CurrentLevel)
		e.state.TimeRemainingSec = lvl.DurationSec
		ev := e.eventLocked(EventFinalLevelExtended)
		ev.Level = &lvl

		log.Info().
			Str("tournament_id", e.tournamentID.String()).
			Int("level", lvl.Index).
			Msg("final level extended")
		return append(events, ev)
	}

	return e.advanceLocked(events)
}

func (e *Engine) endBreakLocked(events []Event) []Event {
	e.state.IsOnBreak = false
	e.state.BreakTimeRemainingSec = 0
	events = append(events, e.eventLocked(EventBreakEnded))
	return e.advanceLocked(events)
}

func (e *Engine) advanceLocked(events []Event) []Event {
	return e.enterLevelLocked(events, e.state.CurrentLevel+1)
}

// enterLevelLocked makes index the current level with a full countdown and
// writes the pointer back.
func (e *Engine) enterLevelLocked(events []Event, index int) []Event {
	lvl := e.level(index)
	e.state.CurrentLevel = lvl.Index
	e.state.TimeRemainingSec = lvl.DurationSec
	e.writeBack(lvl.Index)

	ev := e.eventLocked(EventLevelStarted)
	ev.Level = &lvl

	log.Info().
		Str("tournament_id", e.tournamentID.String()).
		Int("level", lvl.Index).
		Int64("small_blind", lvl.SmallBlind).
		Int64("big_blind", lvl.BigBlind).
		Int64("ante", lvl.Ante).
		Msg("level started")
	return append(events, ev)
}

// level returns the level with the given index. An index outside the
// schedule is a broken engine invariant.
func (e *Engine) level(index int) models.BlindLevel {
	lvl, ok := e.schedule.Level(index)
	if !ok {
		panic(fmt.Sprintf("clock %s: level %d outside schedule of %d levels", e.tournamentID, index, e.schedule.LevelCount()))
	}
	return lvl
}

func (e *Engine) eventLocked(t EventType) Event {
	return Event{
		Type:         t,
		TournamentID: e.tournamentID,
		State:        e.state,
		At:           e.clock.Now(),
	}
}

// deliver hands events to the observer and releases notifyMu.
func (e *Engine) deliver(events []Event) {
	defer e.notifyMu.Unlock()
	for _, ev := range events {
		if ev.Type != EventTick {
			e.metrics.RecordTransition(ev.Type)
		}
		if e.observer != nil {
			e.observer.OnClockEvent(ev)
		}
	}
}
