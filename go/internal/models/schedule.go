package models

import (
	"errors"
	"fmt"
)

// BlindLevel is one period of play with fixed blinds and ante.
type BlindLevel struct {
	Index       int   `json:"index" yaml:"index"`
	SmallBlind  int64 `json:"small_blind" yaml:"small_blind"`
	BigBlind    int64 `json:"big_blind" yaml:"big_blind"`
	Ante        int64 `json:"ante" yaml:"ante"`
	DurationSec int   `json:"duration_sec" yaml:"duration_sec"`
}

// Break pauses level progression after the level with index AfterLevel.
type Break struct {
	Name        string `json:"name" yaml:"name"`
	DurationSec int    `json:"duration_sec" yaml:"duration_sec"`
	AfterLevel  int    `json:"after_level" yaml:"after_level"`
}

// Schedule holds the ordered levels and breaks of a tournament.
// It is produced once and never mutated afterwards.
type Schedule struct {
	Levels []BlindLevel `json:"levels" yaml:"levels"`
	Breaks []Break      `json:"breaks" yaml:"breaks"`
}

// ErrEmptySchedule is returned by Validate for a schedule without levels.
var ErrEmptySchedule = errors.New("schedule has no levels")

// LevelCount returns the number of blind levels.
func (s Schedule) LevelCount() int {
	return len(s.Levels)
}

// Level returns the level with the given 1-based index.
func (s Schedule) Level(index int) (BlindLevel, bool) {
	if index < 1 || index > len(s.Levels) {
		return BlindLevel{}, false
	}
	return s.Levels[index-1], true
}

// BreakAfter returns the break registered after the given level, if any.
func (s Schedule) BreakAfter(level int) (Break, bool) {
	for _, b := range s.Breaks {
		if b.AfterLevel == level {
			return b, true
		}
	}
	return Break{}, false
}

// NextBreak returns the first break at or after the given level.
func (s Schedule) NextBreak(level int) (Break, bool) {
	for _, b := range s.Breaks {
		if b.AfterLevel >= level {
			return b, true
		}
	}
	return Break{}, false
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	out := Schedule{
		Levels: make([]BlindLevel, len(s.Levels)),
		Breaks: make([]Break, len(s.Breaks)),
	}
	copy(out.Levels, s.Levels)
	copy(out.Breaks, s.Breaks)
	return out
}

// Validate checks the structural invariants a clock relies on: contiguous
// 1-based level indices, positive durations, non-decreasing big blinds and
// breaks strictly inside the level range, ascending and unique.
func (s Schedule) Validate() error {
	if len(s.Levels) == 0 {
		return ErrEmptySchedule
	}

	for i, lvl := range s.Levels {
		if lvl.Index != i+1 {
			return fmt.Errorf("level at position %d has index %d", i+1, lvl.Index)
		}
		if lvl.DurationSec <= 0 {
			return fmt.Errorf("level %d has non-positive duration %d", lvl.Index, lvl.DurationSec)
		}
		if i > 0 && lvl.BigBlind < s.Levels[i-1].BigBlind {
			return fmt.Errorf("level %d big blind %d is lower than level %d", lvl.Index, lvl.BigBlind, i)
		}
	}

	prev := 0
	for _, b := range s.Breaks {
		if b.AfterLevel <= 0 || b.AfterLevel >= len(s.Levels) {
			return fmt.Errorf("break %q after level %d is outside 1..%d", b.Name, b.AfterLevel, len(s.Levels)-1)
		}
		if b.DurationSec <= 0 {
			return fmt.Errorf("break %q has non-positive duration %d", b.Name, b.DurationSec)
		}
		if b.AfterLevel == prev {
			return fmt.Errorf("more than one break after level %d", b.AfterLevel)
		}
		if b.AfterLevel < prev {
			return fmt.Errorf("break %q after level %d is out of order", b.Name, b.AfterLevel)
		}
		prev = b.AfterLevel
	}
	return nil
}
