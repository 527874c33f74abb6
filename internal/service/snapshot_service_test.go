package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
)

type fakeEntityStore struct {
	subjects    []models.Subject
	teachers    []models.Teacher
	classes     []models.ClassGroup
	rooms       []models.Room
	allocations []models.Allocation
	settings    *models.SchoolSettings
	slots       []models.TimeSlot
}

func (f *fakeEntityStore) ListAll(ctx context.Context) ([]models.Subject, error) {
	return f.subjects, nil
}

type fakeTeacherStore struct{ store *fakeEntityStore }

func (f fakeTeacherStore) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return f.store.teachers, nil
}

type fakeClassStore struct{ store *fakeEntityStore }

func (f fakeClassStore) ListAll(ctx context.Context) ([]models.ClassGroup, error) {
	return f.store.classes, nil
}

type fakeRoomStore struct{ store *fakeEntityStore }

func (f fakeRoomStore) ListAll(ctx context.Context) ([]models.Room, error) {
	return f.store.rooms, nil
}

type fakeAllocationStore struct{ store *fakeEntityStore }

func (f fakeAllocationStore) ListAll(ctx context.Context) ([]models.Allocation, error) {
	return f.store.allocations, nil
}

type fakeSettingsStore struct{ store *fakeEntityStore }

func (f fakeSettingsStore) Get(ctx context.Context) (*models.SchoolSettings, error) {
	if f.store.settings == nil {
		return nil, sql.ErrNoRows
	}
	return f.store.settings, nil
}

func (f fakeSettingsStore) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	return f.store.slots, nil
}

func (f fakeSettingsStore) ReplaceTimeSlots(ctx context.Context, slots []models.TimeSlot) error {
	f.store.slots = slots
	return nil
}

func newSnapshotService(store *fakeEntityStore) *SnapshotService {
	return NewSnapshotService(
		store,
		fakeTeacherStore{store},
		fakeClassStore{store},
		fakeRoomStore{store},
		fakeAllocationStore{store},
		fakeSettingsStore{store},
		nil,
	)
}

func TestSnapshotBuildMapsEntities(t *testing.T) {
	store := &fakeEntityStore{
		settings: &models.SchoolSettings{DaysPerWeek: 5, PeriodsBeforeBreak: 4, PeriodsAfterBreak: 4},
		subjects: []models.Subject{
			{ID: "math", Name: "Mathematics", WeeklyPeriods: 4, Difficulty: models.DifficultyDifficult, RequiresConsecutive: true},
			{ID: "chem", Name: "Chemistry", WeeklyPeriods: 2, Difficulty: models.DifficultyFair, RequiresRoomType: "lab"},
		},
		teachers: []models.Teacher{
			{
				ID:             "t1",
				FullName:       "Teacher One",
				MaxPeriodsWeek: 20,
				Availability:   types.JSONText(`{"0":{"0":false,"1":true}}`),
				SubjectIDs:     []string{"math"},
			},
		},
		classes: []models.ClassGroup{
			{ID: "c1", Name: "10A", StudentCount: 30, SubjectIDs: []string{"math", "chem"}},
		},
		rooms: []models.Room{
			{ID: "r1", Name: "Lab 1", RoomType: "lab", Capacity: 32},
		},
		allocations: []models.Allocation{
			{ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
		},
	}

	snap, err := newSnapshotService(store).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, solver.Grid{Days: 5, PeriodsPerDay: 8}, snap.Grid)

	math := snap.SubjectByID("math")
	require.NotNil(t, math)
	assert.Equal(t, solver.DifficultyDifficult, math.Difficulty)
	assert.True(t, math.Consecutive)

	teacher := snap.TeacherByID("t1")
	require.NotNil(t, teacher)
	assert.True(t, teacher.Subjects["math"])
	assert.False(t, teacher.Availability.Allows(solver.Slot{Day: 0, Period: 0}))
	assert.True(t, teacher.Availability.Allows(solver.Slot{Day: 0, Period: 1}), "true means available")
	assert.True(t, teacher.Availability.Allows(solver.Slot{Day: 1, Period: 0}), "absent means available")

	room := snap.RoomByID("r1")
	require.NotNil(t, room)
	assert.Equal(t, "lab", room.Category)
}

func TestSnapshotBuildWithoutSettings(t *testing.T) {
	store := &fakeEntityStore{}
	_, err := newSnapshotService(store).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSnapshotBuildRejectsMalformedAvailability(t *testing.T) {
	store := &fakeEntityStore{
		settings: &models.SchoolSettings{DaysPerWeek: 5, PeriodsBeforeBreak: 3, PeriodsAfterBreak: 3},
		teachers: []models.Teacher{
			{ID: "t1", FullName: "Teacher One", Availability: types.JSONText(`{"monday":{"0":false}}`)},
		},
	}
	_, err := newSnapshotService(store).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "availability")
}

func TestGenerateTimeSlotsInsertsBreakOffset(t *testing.T) {
	store := &fakeEntityStore{}
	svc := newSnapshotService(store)

	settings := &models.SchoolSettings{
		DaysPerWeek:        2,
		PeriodsBeforeBreak: 2,
		PeriodsAfterBreak:  2,
		LessonStartTime:    "07:30",
		LessonDurationMin:  40,
		BreakDurationMin:   20,
	}

	slots, err := svc.GenerateTimeSlots(context.Background(), settings)
	require.NoError(t, err)
	require.Len(t, slots, 8)

	day0 := slots[:4]
	assert.Equal(t, "07:30", day0[0].StartTime)
	assert.Equal(t, "08:10", day0[0].EndTime)
	assert.Equal(t, "08:10", day0[1].StartTime)
	// 20 minute break after the second period.
	assert.Equal(t, "09:10", day0[2].StartTime)
	assert.Equal(t, "09:50", day0[3].StartTime)

	// Every day uses the same schedule.
	assert.Equal(t, "07:30", slots[4].StartTime)
	assert.Equal(t, 1, slots[4].DayIndex)

	assert.Equal(t, slots, store.slots, "generated slots replace the stored rows")
}

func TestGenerateTimeSlotsRejectsBadStartTime(t *testing.T) {
	svc := newSnapshotService(&fakeEntityStore{})
	_, err := svc.GenerateTimeSlots(context.Background(), &models.SchoolSettings{LessonStartTime: "7.30"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HH:MM")
}
