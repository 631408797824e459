// Package chips maps chip colours to values for the current blind level and
// splits a starting stack into chips.
package chips

import (
	"math"
	"sort"

	"github.com/mcdev12/pokerclock/go/internal/models"
)

// Denomination is a chip colour and the chip value it stands for.
type Denomination struct {
	Color string `json:"color"`
	Value int64  `json:"value"`
}

// StackChip is how many chips of one colour go into a stack.
type StackChip struct {
	Color string `json:"color"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

// Sheet is the chip set for one blind level.
type Sheet struct {
	Level             int            `json:"current_level"`
	BigBlind          int64          `json:"big_blind"`
	SmallestChipValue int64          `json:"smallest_chip_value"`
	ChipValues        []Denomination `json:"chip_values"`
	StartingStack     int64          `json:"starting_stack"`
	StackDistribution []StackChip    `json:"stack_distribution"`
}

// StandardColors are the base chip values, smallest first.
var StandardColors = []Denomination{
	{Color: "white", Value: 1},
	{Color: "red", Value: 5},
	{Color: "blue", Value: 10},
	{Color: "green", Value: 25},
	{Color: "black", Value: 100},
	{Color: "purple", Value: 500},
	{Color: "yellow", Value: 1000},
	{Color: "orange", Value: 5000},
	{Color: "gray", Value: 10000},
}

const (
	smallChipCount  = 20
	mediumChipCount = 10
	topChipCount    = 5
	otherChipCount  = 10
)

// ForLevel builds the chip sheet for level with a stack of startingStack.
func ForLevel(level models.BlindLevel, startingStack int64) Sheet {
	smallest, values := Values(level.BigBlind)
	return Sheet{
		Level:             level.Index,
		BigBlind:          level.BigBlind,
		SmallestChipValue: smallest,
		ChipValues:        values,
		StartingStack:     startingStack,
		StackDistribution: Distribute(values, startingStack),
	}
}

// Values scales StandardColors so the white chip is worth a tenth of the big
// blind, and at least 1.
func Values(bigBlind int64) (int64, []Denomination) {
	smallest := bigBlind / 10
	if smallest < 1 {
		smallest = 1
	}

	values := make([]Denomination, len(StandardColors))
	for i, d := range StandardColors {
		values[i] = Denomination{Color: d.Color, Value: d.Value * smallest}
	}
	return smallest, values
}

// Distribute splits total into chips, largest value first. It hands out up
// to 20 of the smallest and 10 of the next smallest chip, then fills from
// the top (at most 5 of the largest, 10 of the others) and puts what is
// left into the smallest chip. Colours with no chips are omitted; an amount
// below the smallest chip value is left out.
func Distribute(values []Denomination, total int64) []StackChip {
	if len(values) < 2 || total <= 0 {
		return nil
	}

	sorted := make([]Denomination, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	counts := make([]int64, len(sorted))
	remaining := total
	take := func(i int, limit int64) {
		if sorted[i].Value <= 0 {
			return
		}
		n := remaining / sorted[i].Value
		if n > limit {
			n = limit
		}
		counts[i] += n
		remaining -= n * sorted[i].Value
	}

	smallest, medium := len(sorted)-1, len(sorted)-2
	take(smallest, smallChipCount)
	take(medium, mediumChipCount)
	for i := 0; i < medium; i++ {
		limit := int64(otherChipCount)
		if i == 0 {
			limit = topChipCount
		}
		take(i, limit)
	}
	take(smallest, math.MaxInt64)

	out := make([]StackChip, 0, len(sorted))
	for i, d := range sorted {
		if counts[i] > 0 {
			out = append(out, StackChip{Color: d.Color, Value: d.Value, Count: counts[i]})
		}
	}
	return out
}
