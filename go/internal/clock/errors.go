package clock

import (
	"errors"
	"fmt"
)

var (
	// ErrNotActive is returned for commands and queries on a tournament
	// without a running clock.
	ErrNotActive = errors.New("clock not active")

	// ErrInvalidTransition is the parent of every rejected operator command.
	// State is left unchanged when it is returned.
	ErrInvalidTransition = errors.New("invalid clock transition")

	ErrAlreadyActive    = fmt.Errorf("%w: clock already active", ErrInvalidTransition)
	ErrPastLastLevel    = fmt.Errorf("%w: cannot advance past last level", ErrInvalidTransition)
	ErrBeforeFirstLevel = fmt.Errorf("%w: cannot go back from first level", ErrInvalidTransition)

	// ErrInvalidSchedule is returned when a clock is started with a schedule
	// or level pointer that violates the schedule invariants.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
