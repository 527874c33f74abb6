package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestTimetableRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "class_id", "subject_id", "teacher_id", "room_id", "day_index", "period_index", "is_locked", "created_at", "updated_at"}).
		AddRow("e1", "c1", "s1", "t1", "r1", 0, 0, false, now, now).
		AddRow("e2", "c1", "s2", "t2", "r1", 0, 1, true, now, now)
	mock.ExpectQuery("SELECT id, class_id").
		WithArgs("c1").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.TimetableFilter{ClassID: "c1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "s1", entries[0].SubjectID)
	assert.True(t, entries[1].IsLocked)
}

func TestTimetableRepositoryReplaceUnlocked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries WHERE is_locked = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.TimetableEntry{
		{ClassID: "c1", SubjectID: "s1", TeacherID: "t1", RoomID: "r1", DayIndex: 0, PeriodIndex: 0},
	}
	require.NoError(t, repo.ReplaceUnlocked(context.Background(), entries))
	assert.NotEmpty(t, entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceUnlockedRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries WHERE is_locked = FALSE").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceUnlocked(context.Background(), nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateSlot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectExec("UPDATE timetable_entries SET day_index").
		WithArgs(2, 3, "r2", sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSlot(context.Background(), "e1", 2, 3, "r2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubjectRepository(db)
	mock.ExpectExec("INSERT INTO subjects").
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{
		Code:          "MATH",
		Name:          "Mathematics",
		WeeklyPeriods: 4,
		Difficulty:    models.DifficultyDifficult,
	}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.UpdatedAt.IsZero())
}

func TestSettingsRepositoryReplaceTimeSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM time_slots").
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	slots := []models.TimeSlot{
		{DayIndex: 0, PeriodIndex: 0, StartTime: "07:30", EndTime: "08:15"},
		{DayIndex: 0, PeriodIndex: 1, StartTime: "08:15", EndTime: "09:00"},
	}
	require.NoError(t, repo.ReplaceTimeSlots(context.Background(), slots))
	require.NoError(t, mock.ExpectationsWereMet())
}
