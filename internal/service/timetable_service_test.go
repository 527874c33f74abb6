package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

type fakeTimetableRepo struct {
	entries []models.TimetableEntry
}

func (f *fakeTimetableRepo) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error) {
	return f.entries, nil
}

func (f *fakeTimetableRepo) ListLocked(ctx context.Context) ([]models.TimetableEntry, error) {
	var locked []models.TimetableEntry
	for _, entry := range f.entries {
		if entry.IsLocked {
			locked = append(locked, entry)
		}
	}
	return locked, nil
}

func (f *fakeTimetableRepo) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			return &f.entries[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTimetableRepo) ReplaceUnlocked(ctx context.Context, entries []models.TimetableEntry) error {
	var kept []models.TimetableEntry
	for _, entry := range f.entries {
		if entry.IsLocked {
			kept = append(kept, entry)
		}
	}
	f.entries = append(kept, entries...)
	return nil
}

func (f *fakeTimetableRepo) UpdateSlot(ctx context.Context, id string, dayIndex, periodIndex int, roomID string) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].DayIndex = dayIndex
			f.entries[i].PeriodIndex = periodIndex
			f.entries[i].RoomID = roomID
		}
	}
	return nil
}

func (f *fakeTimetableRepo) SetLocked(ctx context.Context, id string, locked bool) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].IsLocked = locked
		}
	}
	return nil
}

func (f *fakeTimetableRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeConflictRepo struct {
	reports []models.ConflictReport
}

func (f *fakeConflictRepo) ListLatest(ctx context.Context) ([]models.ConflictReport, error) {
	return f.reports, nil
}

func (f *fakeConflictRepo) Replace(ctx context.Context, reports []models.ConflictReport) error {
	f.reports = reports
	return nil
}

func (f *fakeConflictRepo) Clear(ctx context.Context) error {
	f.reports = nil
	return nil
}

type fakeSnapshots struct {
	snap *solver.Snapshot
}

func (f *fakeSnapshots) Build(ctx context.Context) (*solver.Snapshot, error) {
	return f.snap, nil
}

type fakeSolveStore struct {
	locked bool
	record *models.SolveRecord
	jobs   map[string]*dto.SolveJobStatus
}

func (f *fakeSolveStore) AcquireLock(ctx context.Context, ttl time.Duration) (bool, error) {
	if f.locked {
		return false, nil
	}
	f.locked = true
	return true, nil
}

func (f *fakeSolveStore) ReleaseLock(ctx context.Context) error {
	f.locked = false
	return nil
}

func (f *fakeSolveStore) LoadRecord(ctx context.Context) (*models.SolveRecord, error) {
	return f.record, nil
}

func (f *fakeSolveStore) SaveRecord(ctx context.Context, record *models.SolveRecord) error {
	f.record = record
	return nil
}

func (f *fakeSolveStore) SaveJob(ctx context.Context, status *dto.SolveJobStatus) error {
	if f.jobs == nil {
		f.jobs = make(map[string]*dto.SolveJobStatus)
	}
	f.jobs[status.JobID] = status
	return nil
}

func (f *fakeSolveStore) LoadJob(ctx context.Context, jobID string) (*dto.SolveJobStatus, error) {
	return f.jobs[jobID], nil
}

func solveTestSnapshot(t *testing.T) *solver.Snapshot {
	t.Helper()
	snap, err := solver.NewSnapshot(
		solver.Grid{Days: 2, PeriodsPerDay: 3},
		[]solver.Subject{{ID: "math", Name: "Mathematics", WeeklyPeriods: 2}},
		[]solver.Teacher{{ID: "t1", Name: "Teacher One"}},
		[]solver.ClassGroup{{ID: "c1", Name: "10A", StudentCount: 28, Subjects: []string{"math"}}},
		[]solver.Room{{ID: "r1", Name: "R101", Capacity: 30}},
		[]solver.Allocation{{ClassID: "c1", SubjectID: "math", TeacherID: "t1"}},
	)
	require.NoError(t, err)
	return snap
}

func solverConfig() config.SolverConfig {
	return config.SolverConfig{
		Enabled:               true,
		TimeLimit:             10 * time.Second,
		IdleGapWeight:         5,
		EarlyDifficultWeight:  2,
		WorkloadBalanceWeight: 1,
		LockTTL:               time.Minute,
	}
}

func newTestService(t *testing.T, snap *solver.Snapshot) (*TimetableService, *fakeTimetableRepo, *fakeConflictRepo, *fakeSolveStore) {
	t.Helper()
	entries := &fakeTimetableRepo{}
	conflicts := &fakeConflictRepo{}
	store := &fakeSolveStore{}
	svc := NewTimetableService(entries, conflicts, &fakeSnapshots{snap: snap}, store, nil, nil, nil, nil, solverConfig())
	return svc, entries, conflicts, store
}

func TestSolvePersistsFeasibleTimetable(t *testing.T) {
	svc, entries, conflicts, store := newTestService(t, solveTestSnapshot(t))
	conflicts.reports = []models.ConflictReport{{Family: "AVAILABILITY", Message: "stale"}}

	resp, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(solver.StateFeasible), resp.State)
	assert.Len(t, resp.Entries, 2)
	assert.Len(t, entries.entries, 2)
	assert.Empty(t, conflicts.reports, "feasible solve clears stale conflict reports")
	require.NotNil(t, store.record)
	assert.Len(t, store.record.Entries, 2)
	assert.False(t, store.locked, "lock released after the run")
}

func TestSolveRejectsConcurrentRun(t *testing.T) {
	svc, _, _, store := newTestService(t, solveTestSnapshot(t))
	store.locked = true

	_, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestSolveReportsUnsolvableConfiguration(t *testing.T) {
	snap, err := solver.NewSnapshot(
		solver.Grid{Days: 2, PeriodsPerDay: 3},
		[]solver.Subject{{ID: "math", Name: "Mathematics", WeeklyPeriods: 2}},
		[]solver.Teacher{{ID: "t1", Name: "Teacher One"}},
		[]solver.ClassGroup{{ID: "c1", Name: "10A", StudentCount: 28, Subjects: []string{"math"}}},
		[]solver.Room{{ID: "r1", Name: "R101", Capacity: 30}},
		nil, // no allocation for the required subject
	)
	require.NoError(t, err)

	svc, entries, conflicts, _ := newTestService(t, snap)

	resp, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.NoError(t, err)
	assert.Equal(t, StateUnsolvable, resp.State)
	require.NotEmpty(t, resp.Conflicts)
	assert.Equal(t, string(solver.FamilyFulfillment), resp.Conflicts[0].Family)
	assert.NotEmpty(t, conflicts.reports, "reports persist for later inspection")
	assert.Empty(t, entries.entries, "no timetable written")
}

func TestSolveNeverRegressesBelowRecordedSolution(t *testing.T) {
	snap := solveTestSnapshot(t)
	svc, entries, _, store := newTestService(t, snap)

	first, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.NoError(t, err)
	require.NotNil(t, store.record)

	// Simulate an earlier run that found a strictly better solution for the
	// same configuration.
	better := []models.TimetableEntry{
		{ID: "best-1", ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", DayIndex: 0, PeriodIndex: 0},
		{ID: "best-2", ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", DayIndex: 1, PeriodIndex: 0},
	}
	store.record = &models.SolveRecord{
		Fingerprint: store.record.Fingerprint,
		Objective:   store.record.Objective - 1,
		State:       string(solver.StateFeasible),
		SolvedAt:    time.Now().UTC(),
		Entries:     better,
	}

	second, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(solver.StateFeasible), second.State)
	assert.LessOrEqual(t, second.Stats.Objective, first.Stats.Objective)
	require.Len(t, entries.entries, 2)
	assert.Equal(t, "best-1", entries.entries[0].ID, "recorded entries win over a worse re-run")
}

func TestSolveIgnoresRecordForDifferentConfiguration(t *testing.T) {
	svc, _, _, store := newTestService(t, solveTestSnapshot(t))
	store.record = &models.SolveRecord{
		Fingerprint: "different",
		Objective:   -100,
		State:       string(solver.StateFeasible),
		Entries:     []models.TimetableEntry{{ID: "stale"}},
	}

	resp, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(solver.StateFeasible), resp.State)
	require.NotNil(t, store.record)
	assert.NotEqual(t, "different", store.record.Fingerprint, "stale record replaced")
}

func TestSolveRespectsLockedEntries(t *testing.T) {
	svc, entries, _, _ := newTestService(t, solveTestSnapshot(t))
	entries.entries = []models.TimetableEntry{
		{ID: "pin", ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", DayIndex: 0, PeriodIndex: 0, IsLocked: true},
	}

	resp, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(solver.StateFeasible), resp.State)

	// One pinned period plus one solved period; the solved one avoids the
	// pinned teacher slot.
	require.Len(t, entries.entries, 2)
	var pinned, solved *models.TimetableEntry
	for i := range entries.entries {
		if entries.entries[i].IsLocked {
			pinned = &entries.entries[i]
		} else {
			solved = &entries.entries[i]
		}
	}
	require.NotNil(t, pinned)
	require.NotNil(t, solved)
	assert.Equal(t, "pin", pinned.ID)
	assert.False(t, solved.DayIndex == 0 && solved.PeriodIndex == 0, "solver avoids the locked slot")
}

func TestSolveDisabled(t *testing.T) {
	cfg := solverConfig()
	cfg.Enabled = false
	svc := NewTimetableService(&fakeTimetableRepo{}, &fakeConflictRepo{}, &fakeSnapshots{snap: solveTestSnapshot(t)}, &fakeSolveStore{}, nil, nil, nil, nil, cfg)

	_, err := svc.Solve(context.Background(), dto.SolveRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestValidateMoveRejectsTeacherDoubleBooking(t *testing.T) {
	snap, err := solver.NewSnapshot(
		solver.Grid{Days: 2, PeriodsPerDay: 3},
		[]solver.Subject{
			{ID: "math", Name: "Mathematics", WeeklyPeriods: 1},
			{ID: "phys", Name: "Physics", WeeklyPeriods: 1},
		},
		[]solver.Teacher{{ID: "t1", Name: "Teacher One"}},
		[]solver.ClassGroup{
			{ID: "c1", Name: "10A", StudentCount: 20, Subjects: []string{"math"}},
			{ID: "c2", Name: "10B", StudentCount: 20, Subjects: []string{"phys"}},
		},
		[]solver.Room{
			{ID: "r1", Name: "R101", Capacity: 30},
			{ID: "r2", Name: "R102", Capacity: 30},
		},
		[]solver.Allocation{
			{ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
			{ClassID: "c2", SubjectID: "phys", TeacherID: "t1"},
		},
	)
	require.NoError(t, err)

	svc, entries, _, _ := newTestService(t, snap)
	entries.entries = []models.TimetableEntry{
		{ID: "e1", ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", DayIndex: 0, PeriodIndex: 0},
		{ID: "e2", ClassID: "c2", SubjectID: "phys", TeacherID: "t1", RoomID: "r2", DayIndex: 0, PeriodIndex: 1},
	}

	verdict, err := svc.ValidateMove(context.Background(), "e2", dto.MoveRequest{DayIndex: 0, PeriodIndex: 0})
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	require.NotEmpty(t, verdict.Violations)
	assert.Equal(t, string(solver.FamilyTeacherConflict), verdict.Violations[0].Family)

	// Validation never mutates the timetable.
	assert.Equal(t, 1, entries.entries[1].PeriodIndex)
}

func TestApplyMoveCommitsAllowedEdit(t *testing.T) {
	svc, entries, _, _ := newTestService(t, solveTestSnapshot(t))
	entries.entries = []models.TimetableEntry{
		{ID: "e1", ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", DayIndex: 0, PeriodIndex: 0},
	}

	verdict, err := svc.ApplyMove(context.Background(), "e1", dto.MoveRequest{DayIndex: 1, PeriodIndex: 2})
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, 1, entries.entries[0].DayIndex)
	assert.Equal(t, 2, entries.entries[0].PeriodIndex)
}

func TestJobStatusUnknownJob(t *testing.T) {
	svc, _, _, _ := newTestService(t, solveTestSnapshot(t))
	_, err := svc.JobStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
