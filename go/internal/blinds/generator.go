// Package blinds derives tournament blind schedules from a small configuration.
package blinds

import (
	"fmt"

	"github.com/mcdev12/pokerclock/go/internal/models"
)

const (
	// TotalLevels is the number of levels every generated schedule has.
	TotalLevels = 30
	// AnteStartLevel is the first level that carries an ante when antes are enabled.
	AnteStartLevel = 6
	// ReferenceStartingBB is the stack depth referenceBigBlinds is written for.
	ReferenceStartingBB = 100
	// MaxLevelDurationMinutes caps a single level at one day.
	MaxLevelDurationMinutes = 24 * 60

	minBigBlind = 2
	minAnte     = 1
)

// referenceBigBlinds is the big blind progression for a 20,000 chip stack
// that starts 100 big blinds deep.
var referenceBigBlinds = [TotalLevels]int64{
	200, 300, 400, 500, 600, 800, 1000, 1200, 1500, 2000,
	2500, 3000, 4000, 5000, 6000, 8000, 10000, 12000, 15000, 20000,
	25000, 30000, 40000, 50000, 60000, 80000, 100000, 120000, 150000, 200000,
}

// Generate builds the blind levels and breaks for cfg. It is a pure function:
// the same configuration always yields the same schedule.
func Generate(cfg models.BlindConfig) (models.Schedule, error) {
	if err := Validate(cfg); err != nil {
		return models.Schedule{}, err
	}

	durationSec := cfg.LevelDurationMinutes * 60
	levels := make([]models.BlindLevel, 0, TotalLevels)
	for i, ref := range referenceBigBlinds {
		index := i + 1
		bb := ref * ReferenceStartingBB / int64(cfg.StartingStackBB)
		if bb < minBigBlind {
			bb = minBigBlind
		}

		levels = append(levels, models.BlindLevel{
			Index:       index,
			SmallBlind:  bb / 2,
			BigBlind:    bb,
			Ante:        anteFor(index, bb, cfg.AntesEnabled),
			DurationSec: durationSec,
		})
	}

	return models.Schedule{
		Levels: levels,
		Breaks: breaksFor(cfg.LevelDurationMinutes),
	}, nil
}

// Validate rejects configurations Generate cannot build a schedule from.
func Validate(cfg models.BlindConfig) error {
	if cfg.LevelDurationMinutes <= 0 {
		return &ValidationError{Field: "level_duration_minutes", Reason: fmt.Sprintf("must be positive, got %d", cfg.LevelDurationMinutes)}
	}
	if cfg.LevelDurationMinutes > MaxLevelDurationMinutes {
		return &ValidationError{Field: "level_duration_minutes", Reason: fmt.Sprintf("must be at most %d, got %d", MaxLevelDurationMinutes, cfg.LevelDurationMinutes)}
	}
	if cfg.StartingStackBB <= 0 {
		return &ValidationError{Field: "starting_stack_bb", Reason: fmt.Sprintf("must be positive, got %d", cfg.StartingStackBB)}
	}
	return nil
}

func anteFor(index int, bigBlind int64, enabled bool) int64 {
	if !enabled || index < AnteStartLevel {
		return 0
	}
	ante := bigBlind / 10
	if ante < minAnte {
		ante = minAnte
	}
	return ante
}

// BreakCadence returns how many levels separate breaks and how long each
// break lasts, both depending on the level length.
func BreakCadence(levelDurationMinutes int) (interval int, durationMinutes int) {
	switch {
	case levelDurationMinutes <= 15:
		return 4, 5
	case levelDurationMinutes <= 25:
		return 3, 10
	default:
		return 2, 15
	}
}

func breaksFor(levelDurationMinutes int) []models.Break {
	interval, minutes := BreakCadence(levelDurationMinutes)

	breaks := make([]models.Break, 0, TotalLevels/interval)
	for after := interval; after < TotalLevels; after += interval {
		breaks = append(breaks, models.Break{
			Name:        fmt.Sprintf("Break %d", len(breaks)+1),
			DurationSec: minutes * 60,
			AfterLevel:  after,
		})
	}
	return breaks
}
