package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSimpleFeasible(t *testing.T) {
	// 1 class, 1 subject needing 2 weekly periods, 1 teacher and 1 room with
	// open masks, 5x6 grid: must be feasible with exactly 2 entries.
	m := defaultFixture().model(t, BuildOptions{})

	res := Solve(context.Background(), m, Config{Weights: DefaultWeights()})
	require.Equal(t, StateFeasible, res.State)

	entries, err := Extract(m, res)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	seen := make(map[Slot]bool)
	for _, entry := range entries {
		assert.False(t, seen[entry.Slot], "teacher/room double-booked at %s", entry.Slot)
		seen[entry.Slot] = true
	}
	assert.Empty(t, CheckAssignment(m, res.Chosen))
}

func TestSolveInfeasibleWhenTeacherHasOneOpenSlot(t *testing.T) {
	f := defaultFixture()
	f.teachers[0].Availability = maskBlockingAllBut(f.grid, Slot{Day: 0, Period: 0})

	m := f.model(t, BuildOptions{})
	res := Solve(context.Background(), m, Config{Weights: DefaultWeights()})
	require.Equal(t, StateInfeasible, res.State)
	assert.Nil(t, res.Chosen)

	reports := Diagnose(m)
	require.NotEmpty(t, reports)
	found := false
	for _, report := range reports {
		if report.Family == FamilyAvailability {
			found = true
			assert.Equal(t, SeverityError, report.Severity)
			assert.Contains(t, report.Message, "t1")
		}
	}
	assert.True(t, found, "expected a teacher-availability report, got %+v", reports)
}

func TestSolveIsDeterministic(t *testing.T) {
	f := defaultFixture()
	f.subjects = append(f.subjects, Subject{ID: "bio", Name: "Biology", WeeklyPeriods: 3, Difficulty: DifficultyFair})
	f.classes[0].Subjects = []string{"bio", "math"}
	f.teachers = append(f.teachers, Teacher{ID: "t2", Name: "Teacher Two"})
	f.allocations = append(f.allocations, Allocation{ClassID: "c1", SubjectID: "bio", TeacherID: "t2"})

	first := Solve(context.Background(), f.model(t, BuildOptions{}), Config{Weights: DefaultWeights()})
	second := Solve(context.Background(), f.model(t, BuildOptions{}), Config{Weights: DefaultWeights()})
	require.Equal(t, StateFeasible, first.State)
	require.Equal(t, first.State, second.State)
	assert.Equal(t, first.Chosen, second.Chosen)
	assert.Equal(t, first.Objective.Total, second.Objective.Total)
}

func TestSolvePlacesDifficultSubjectsEarly(t *testing.T) {
	m := defaultFixture().model(t, BuildOptions{})

	res := Solve(context.Background(), m, Config{Weights: DefaultWeights()})
	require.Equal(t, StateFeasible, res.State)
	entries, err := Extract(m, res)
	require.NoError(t, err)
	for _, entry := range entries {
		// With a free grid the early-difficult term drives periods to 0.
		assert.Equal(t, 0, entry.Slot.Period, "difficult subject should land in the first period")
	}
	assert.Equal(t, 0, res.Objective.EarlyDifficult)
}

func TestSolveConsecutiveSubjectFormsAdjacentPairs(t *testing.T) {
	f := defaultFixture()
	f.subjects = []Subject{{
		ID: "chem", Name: "Chemistry", WeeklyPeriods: 4,
		Difficulty: DifficultyFair, RoomCategory: "lab", Consecutive: true,
	}}
	f.classes[0].Subjects = []string{"chem"}
	f.rooms = []Room{{ID: "lab1", Name: "Lab 1", Category: "lab", Capacity: 32}}
	f.allocations = []Allocation{{ClassID: "c1", SubjectID: "chem", TeacherID: "t1"}}

	m := f.model(t, BuildOptions{})
	res := Solve(context.Background(), m, Config{Weights: DefaultWeights()})
	require.Equal(t, StateFeasible, res.State)

	entries, err := Extract(m, res)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Empty(t, CheckAssignment(m, res.Chosen))

	byDay := make(map[int][]int)
	for _, entry := range entries {
		byDay[entry.Slot.Day] = append(byDay[entry.Slot.Day], entry.Slot.Period)
	}
	for day, periods := range byDay {
		require.Len(t, periods, 2, "day %d should hold exactly one pair", day)
	}
}

func TestSolveNeverMutatesSnapshot(t *testing.T) {
	f := defaultFixture()
	snap := f.snapshot(t)
	m, err := Build(snap, BuildOptions{})
	require.NoError(t, err)

	before := len(snap.Teachers[0].Availability)
	_ = Solve(context.Background(), m, Config{Weights: DefaultWeights()})
	assert.Equal(t, before, len(snap.Teachers[0].Availability))
}

func TestSolveMonotonicObjectiveAcrossRuns(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 3, PeriodsPerDay: 4}
	f.subjects = append(f.subjects,
		Subject{ID: "eng", Name: "English", WeeklyPeriods: 4},
		Subject{ID: "phy", Name: "Physics", WeeklyPeriods: 3, Difficulty: DifficultyDifficult},
	)
	f.classes[0].Subjects = []string{"eng", "math", "phy"}
	f.teachers = append(f.teachers, Teacher{ID: "t2"}, Teacher{ID: "t3"})
	f.allocations = append(f.allocations,
		Allocation{ClassID: "c1", SubjectID: "eng", TeacherID: "t2"},
		Allocation{ClassID: "c1", SubjectID: "phy", TeacherID: "t3"},
	)

	var last float64 = -1
	for i := 0; i < 3; i++ {
		res := Solve(context.Background(), f.model(t, BuildOptions{}), Config{Weights: DefaultWeights()})
		require.True(t, res.HasSolution())
		if last >= 0 {
			assert.Equal(t, last, res.Objective.Total, "identical inputs must reproduce the objective")
		}
		last = res.Objective.Total
	}
}

func TestClampTimeLimit(t *testing.T) {
	assert.Equal(t, DefaultTimeLimit, ClampTimeLimit(0))
	assert.Equal(t, MinTimeLimit, ClampTimeLimit(time.Second))
	assert.Equal(t, MaxTimeLimit, ClampTimeLimit(time.Hour))
	assert.Equal(t, 90*time.Second, ClampTimeLimit(90*time.Second))
}

func TestSolveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := defaultFixture().model(t, BuildOptions{})
	res := Solve(ctx, m, Config{Weights: DefaultWeights()})
	// The first budget check happens on the first branch, so a pre-cancelled
	// context yields no solution and an undetermined outcome.
	assert.Equal(t, StateInfeasibleUnknown, res.State)
}
