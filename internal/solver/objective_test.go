package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chooseVars resolves variable ids for explicit placements so penalty tests
// can pin exact schedules instead of relying on search.
func chooseVars(t *testing.T, m *Model, slots ...Slot) []int {
	t.Helper()
	var chosen []int
	for _, want := range slots {
		found := false
		for _, v := range m.Variables {
			if v.Slot == want {
				chosen = append(chosen, v.ID)
				found = true
				break
			}
		}
		require.True(t, found, "no variable at %s", want)
	}
	return chosen
}

func TestEvaluateIdleGap(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 1, PeriodsPerDay: 6}
	f.subjects[0].Difficulty = DifficultyEasy
	m := f.model(t, BuildOptions{})

	// Periods 0 and 3 on the same day leave two idle periods between.
	b := Evaluate(m, chooseVars(t, m, Slot{Day: 0, Period: 0}, Slot{Day: 0, Period: 3}), DefaultWeights())
	assert.Equal(t, 2, b.IdleGapPeriods)

	// Adjacent periods leave no gap.
	b = Evaluate(m, chooseVars(t, m, Slot{Day: 0, Period: 0}, Slot{Day: 0, Period: 1}), DefaultWeights())
	assert.Equal(t, 0, b.IdleGapPeriods)
}

func TestEvaluateEarlyDifficult(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 1, PeriodsPerDay: 6}
	m := f.model(t, BuildOptions{})

	b := Evaluate(m, chooseVars(t, m, Slot{Day: 0, Period: 2}, Slot{Day: 0, Period: 5}), DefaultWeights())
	assert.Equal(t, 7, b.EarlyDifficult)
	assert.Equal(t, 2, b.IdleGapPeriods)
	// Single-day grid: daily load is uniform, so no spread penalty.
	assert.Equal(t, 0, b.WorkloadSpread)
	assert.Equal(t, 5.0*2+2.0*7, b.Total)
}

func TestEvaluateWorkloadSpread(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 2, PeriodsPerDay: 3}
	f.subjects[0].Difficulty = DifficultyEasy
	m := f.model(t, BuildOptions{})

	// Both periods on one day: max load 2, min 0.
	b := Evaluate(m, chooseVars(t, m, Slot{Day: 0, Period: 0}, Slot{Day: 0, Period: 1}), DefaultWeights())
	assert.Equal(t, 2, b.WorkloadSpread)

	// Spread across both days: max 1, min 1.
	b = Evaluate(m, chooseVars(t, m, Slot{Day: 0, Period: 0}, Slot{Day: 1, Period: 0}), DefaultWeights())
	assert.Equal(t, 0, b.WorkloadSpread)
}

func TestWeightsValidation(t *testing.T) {
	assert.True(t, DefaultWeights().Valid())
	assert.False(t, Weights{IdleGap: -1}.Valid())
	assert.Equal(t, Weights{IdleGap: 5, EarlyDifficult: 2, WorkloadBalance: 1}, DefaultWeights())
}

func TestEvaluateTotalIsWeightedSum(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 1, PeriodsPerDay: 6}
	m := f.model(t, BuildOptions{})

	w := Weights{IdleGap: 3, EarlyDifficult: 1, WorkloadBalance: 2}
	b := Evaluate(m, chooseVars(t, m, Slot{Day: 0, Period: 0}, Slot{Day: 0, Period: 2}), w)
	assert.Equal(t, 1, b.IdleGapPeriods)
	assert.Equal(t, 2, b.EarlyDifficult)
	assert.Equal(t, 0, b.WorkloadSpread)
	assert.Equal(t, 3.0*1+1.0*2, b.Total)
}
