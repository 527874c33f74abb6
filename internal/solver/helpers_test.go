package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// maskBlockingAllBut returns a mask leaving only the given slots open.
func maskBlockingAllBut(grid Grid, open ...Slot) AvailabilityMask {
	openSet := make(map[Slot]bool, len(open))
	for _, slot := range open {
		openSet[slot] = true
	}
	mask := AvailabilityMask{}
	for _, slot := range grid.Slots() {
		if !openSet[slot] {
			mask.Block(slot)
		}
	}
	return mask
}

type fixture struct {
	grid        Grid
	subjects    []Subject
	teachers    []Teacher
	classes     []ClassGroup
	rooms       []Room
	allocations []Allocation
}

func defaultFixture() fixture {
	return fixture{
		grid: Grid{Days: 5, PeriodsPerDay: 6},
		subjects: []Subject{
			{ID: "math", Name: "Mathematics", WeeklyPeriods: 2, Difficulty: DifficultyDifficult},
		},
		teachers: []Teacher{
			{ID: "t1", Name: "Teacher One"},
		},
		classes: []ClassGroup{
			{ID: "c1", Name: "Class 1A", StudentCount: 30, Subjects: []string{"math"}},
		},
		rooms: []Room{
			{ID: "r1", Name: "Room 101", Capacity: 32},
		},
		allocations: []Allocation{
			{ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
		},
	}
}

func (f fixture) snapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(f.grid, f.subjects, f.teachers, f.classes, f.rooms, f.allocations)
	require.NoError(t, err)
	return snap
}

func (f fixture) model(t *testing.T, opts BuildOptions) *Model {
	t.Helper()
	m, err := Build(f.snapshot(t), opts)
	require.NoError(t, err)
	return m
}
