package solver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrunesStaticEligibility(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 1, PeriodsPerDay: 3}
	f.rooms = append(f.rooms, Room{ID: "small", Name: "Closet", Capacity: 10})
	f.teachers[0].Availability = maskBlockingAllBut(f.grid, Slot{Day: 0, Period: 0}, Slot{Day: 0, Period: 1}, Slot{Day: 0, Period: 2})

	m := f.model(t, BuildOptions{})
	for _, v := range m.Variables {
		assert.NotEqual(t, "small", v.RoomID, "capacity 10 cannot host 30 students")
	}
	// 1 room x 3 open slots.
	assert.Len(t, m.Variables, 3)
	require.Len(t, m.Requirements, 1)
	assert.Equal(t, 2, m.Requirements[0].Periods)
}

func TestBuildExcludesBlockedSlots(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 2, PeriodsPerDay: 2}
	f.rooms[0].Availability = AvailabilityMask{{Day: 0, Period: 0}: true}
	f.teachers[0].Availability = AvailabilityMask{{Day: 1, Period: 1}: true}

	m := f.model(t, BuildOptions{})
	for _, v := range m.Variables {
		assert.NotEqual(t, Slot{Day: 0, Period: 0}, v.Slot)
		assert.NotEqual(t, Slot{Day: 1, Period: 1}, v.Slot)
	}
	assert.Len(t, m.Variables, 2)
}

func TestBuildRejectsEmptyVariableDomain(t *testing.T) {
	f := defaultFixture()
	f.subjects[0].RoomCategory = "lab"
	// Only a regular room exists, so the lab requirement has zero candidates.

	_, err := Build(f.snapshot(t), BuildOptions{})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.NotEmpty(t, cfgErr.Reports)
	assert.Equal(t, SeverityError, cfgErr.Reports[0].Severity)
	assert.Equal(t, FamilyFulfillment, cfgErr.Reports[0].Family)
	assert.Contains(t, cfgErr.Reports[0].Message, "no candidate slots")
}

func TestBuildRejectsMissingAllocation(t *testing.T) {
	f := defaultFixture()
	f.classes[0].Subjects = []string{"math", "history"}
	f.subjects = append(f.subjects, Subject{ID: "history", Name: "History", WeeklyPeriods: 2})

	_, err := Build(f.snapshot(t), BuildOptions{})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	found := false
	for _, report := range cfgErr.Reports {
		if assert.ObjectsAreEqual([]string{"c1", "history"}, report.Entities) {
			found = true
			assert.Contains(t, report.Message, "no teacher is allocated")
		}
	}
	assert.True(t, found)
}

func TestBuildRejectsUnqualifiedTeacher(t *testing.T) {
	f := defaultFixture()
	f.teachers[0].Subjects = map[string]bool{"history": true}

	_, err := Build(f.snapshot(t), BuildOptions{})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "not qualified")
}

func TestBuildOddConsecutiveCount(t *testing.T) {
	f := defaultFixture()
	f.subjects[0].Consecutive = true
	f.subjects[0].WeeklyPeriods = 3

	_, err := Build(f.snapshot(t), BuildOptions{})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, FamilyConsecutive, cfgErr.Reports[0].Family)

	m, err := Build(f.snapshot(t), BuildOptions{AllowOddConsecutive: true})
	require.NoError(t, err)
	assert.Len(t, m.Requirements, 1)
}

func TestBuildResourceIndexes(t *testing.T) {
	f := defaultFixture()
	f.grid = Grid{Days: 1, PeriodsPerDay: 2}
	m := f.model(t, BuildOptions{})

	slot := Slot{Day: 0, Period: 0}
	assert.Len(t, m.VarsForTeacherSlot("t1", slot), 1)
	assert.Len(t, m.VarsForClassSlot("c1", slot), 1)
	assert.Len(t, m.VarsForRoomSlot("r1", slot), 1)
	assert.Empty(t, m.VarsForTeacherSlot("t1", Slot{Day: 3, Period: 0}))
}

func TestNewSnapshotValidation(t *testing.T) {
	f := defaultFixture()
	f.allocations[0].TeacherID = "ghost"
	_, err := NewSnapshot(f.grid, f.subjects, f.teachers, f.classes, f.rooms, f.allocations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown teacher")

	_, err = NewSnapshot(Grid{}, nil, nil, nil, nil, nil)
	require.Error(t, err)
}
