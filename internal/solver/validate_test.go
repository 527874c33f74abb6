package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoClassSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	f := defaultFixture()
	f.subjects = append(f.subjects, Subject{ID: "bio", Name: "Biology", WeeklyPeriods: 2})
	f.classes = append(f.classes, ClassGroup{ID: "c2", Name: "Class 1B", StudentCount: 28, Subjects: []string{"bio"}})
	f.rooms = append(f.rooms, Room{ID: "r2", Name: "Room 102", Capacity: 30})
	f.allocations = append(f.allocations, Allocation{ClassID: "c2", SubjectID: "bio", TeacherID: "t1"})
	return f.snapshot(t)
}

func TestValidateMoveRejectsTeacherDoubleBooking(t *testing.T) {
	snap := twoClassSnapshot(t)
	entries := []Entry{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Slot: Slot{Day: 0, Period: 0}},
		{ClassID: "c2", SubjectID: "bio", TeacherID: "t1", RoomID: "r2", Slot: Slot{Day: 0, Period: 2}},
	}

	decision := ValidateMove(snap, entries, Move{
		Entry:   entries[0],
		NewSlot: Slot{Day: 0, Period: 2},
	}, ValidateOptions{})

	require.False(t, decision.Allowed)
	families := make(map[RuleFamily]bool)
	for _, v := range decision.Violations {
		families[v.Family] = true
	}
	assert.True(t, families[FamilyTeacherConflict], "expected teacher double-booking, got %+v", decision.Violations)
}

func TestValidateMoveAcceptsFreeSlot(t *testing.T) {
	snap := twoClassSnapshot(t)
	entries := []Entry{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Slot: Slot{Day: 0, Period: 0}},
		{ClassID: "c2", SubjectID: "bio", TeacherID: "t1", RoomID: "r2", Slot: Slot{Day: 0, Period: 2}},
	}

	decision := ValidateMove(snap, entries, Move{
		Entry:   entries[0],
		NewSlot: Slot{Day: 1, Period: 0},
	}, ValidateOptions{})
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Violations)
}

func TestValidateMoveChecksAvailabilityAndCapacity(t *testing.T) {
	f := defaultFixture()
	f.teachers[0].Availability = AvailabilityMask{{Day: 2, Period: 3}: true}
	f.rooms = append(f.rooms, Room{ID: "small", Name: "Closet", Capacity: 10})
	snap := f.snapshot(t)

	entry := Entry{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Slot: Slot{Day: 0, Period: 0}}

	decision := ValidateMove(snap, []Entry{entry}, Move{Entry: entry, NewSlot: Slot{Day: 2, Period: 3}}, ValidateOptions{})
	require.False(t, decision.Allowed)
	assert.Equal(t, FamilyAvailability, decision.Violations[0].Family)

	decision = ValidateMove(snap, []Entry{entry}, Move{Entry: entry, NewSlot: Slot{Day: 1, Period: 1}, NewRoomID: "small"}, ValidateOptions{})
	require.False(t, decision.Allowed)
	assert.Equal(t, FamilyCapacity, decision.Violations[0].Family)
}

func TestValidateMoveChecksRoomCategory(t *testing.T) {
	f := defaultFixture()
	f.subjects[0].RoomCategory = "lab"
	f.rooms = []Room{
		{ID: "lab1", Category: "lab", Capacity: 32},
		{ID: "r1", Category: "regular", Capacity: 32},
	}
	snap := f.snapshot(t)

	entry := Entry{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "lab1", Slot: Slot{Day: 0, Period: 0}}
	decision := ValidateMove(snap, []Entry{entry}, Move{Entry: entry, NewSlot: Slot{Day: 1, Period: 0}, NewRoomID: "r1"}, ValidateOptions{})
	require.False(t, decision.Allowed)
	assert.Equal(t, FamilyRoomCategory, decision.Violations[0].Family)
}

func TestValidateMoveKeepsConsecutiveBlocksIntact(t *testing.T) {
	f := defaultFixture()
	f.subjects[0].Consecutive = true
	snap := f.snapshot(t)

	entries := []Entry{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Slot: Slot{Day: 0, Period: 0}},
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Slot: Slot{Day: 0, Period: 1}},
	}

	// Breaking the pair apart is rejected.
	decision := ValidateMove(snap, entries, Move{Entry: entries[1], NewSlot: Slot{Day: 3, Period: 4}}, ValidateOptions{})
	require.False(t, decision.Allowed)
	assert.Equal(t, FamilyConsecutive, decision.Violations[0].Family)

	// Sliding the pair's second half to stay adjacent elsewhere keeps the
	// block only if both halves move; a one-slot shift that re-pairs is fine.
	decision = ValidateMove(snap, entries, Move{Entry: entries[1], NewSlot: Slot{Day: 0, Period: 1}}, ValidateOptions{})
	assert.True(t, decision.Allowed)
}

func TestValidateMoveRejectsOutOfGridSlot(t *testing.T) {
	snap := defaultFixture().snapshot(t)
	entry := Entry{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", Slot: Slot{Day: 0, Period: 0}}
	decision := ValidateMove(snap, []Entry{entry}, Move{Entry: entry, NewSlot: Slot{Day: 9, Period: 0}}, ValidateOptions{})
	require.False(t, decision.Allowed)
	assert.Equal(t, FamilyAvailability, decision.Violations[0].Family)
}

func TestExtractDetectsCorruptedAssignment(t *testing.T) {
	m := defaultFixture().model(t, BuildOptions{})
	res := &Result{State: StateFeasible, Chosen: []int{0, 0}}

	_, err := Extract(m, res)
	var consistency *ConsistencyError
	require.ErrorAs(t, err, &consistency)
}

func TestExtractRequiresSolution(t *testing.T) {
	m := defaultFixture().model(t, BuildOptions{})
	_, err := Extract(m, &Result{State: StateInfeasible})
	require.Error(t, err)
	_, err = Extract(m, nil)
	require.Error(t, err)
}
