package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// Solve job type dispatched through the background queue.
const JobTypeSolve = "timetable.solve"

// Response states beyond the solver's own result states.
const (
	StatePending    = "PENDING"
	StateUnsolvable = "UNSOLVABLE"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error)
	ListLocked(ctx context.Context) ([]models.TimetableEntry, error)
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	ReplaceUnlocked(ctx context.Context, entries []models.TimetableEntry) error
	UpdateSlot(ctx context.Context, id string, dayIndex, periodIndex int, roomID string) error
	SetLocked(ctx context.Context, id string, locked bool) error
	Delete(ctx context.Context, id string) error
}

type conflictRepository interface {
	ListLatest(ctx context.Context) ([]models.ConflictReport, error)
	Replace(ctx context.Context, reports []models.ConflictReport) error
	Clear(ctx context.Context) error
}

type snapshotBuilder interface {
	Build(ctx context.Context) (*solver.Snapshot, error)
}

type solveStateStore interface {
	AcquireLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context) error
	LoadRecord(ctx context.Context) (*models.SolveRecord, error)
	SaveRecord(ctx context.Context, record *models.SolveRecord) error
	SaveJob(ctx context.Context, status *dto.SolveJobStatus) error
	LoadJob(ctx context.Context, jobID string) (*dto.SolveJobStatus, error)
}

type solveEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type solveObserver interface {
	ObserveSolve(state string, duration time.Duration, objective float64)
}

// TimetableService orchestrates solve runs and manual timetable edits.
type TimetableService struct {
	entries   timetableRepository
	conflicts conflictRepository
	snapshots snapshotBuilder
	store     solveStateStore
	queue     solveEnqueuer
	metrics   solveObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.SolverConfig
}

// NewTimetableService creates a new timetable service.
func NewTimetableService(
	entries timetableRepository,
	conflicts conflictRepository,
	snapshots snapshotBuilder,
	store solveStateStore,
	queue solveEnqueuer,
	metrics solveObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SolverConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		entries:   entries,
		conflicts: conflicts,
		snapshots: snapshots,
		store:     store,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue attaches the background queue after construction. The queue handler
// is this service's HandleSolveJob, so the two are wired in two steps.
func (s *TimetableService) SetQueue(queue solveEnqueuer) {
	s.queue = queue
}

// Solve runs or enqueues a solve. Synchronous runs return the final outcome;
// asynchronous runs return a PENDING response carrying the job id.
func (s *TimetableService) Solve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve payload")
	}
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the solver is disabled")
	}

	if req.Async {
		if s.queue == nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "background solves are not configured")
		}
		jobID := uuid.NewString()
		status := &dto.SolveJobStatus{JobID: jobID, Status: StatePending}
		if err := s.store.SaveJob(ctx, status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register solve job")
		}
		payload := req
		payload.Async = false
		if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: JobTypeSolve, Payload: payload}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve job")
		}
		return &dto.SolveResponse{State: StatePending, JobID: jobID}, nil
	}

	return s.runSolve(ctx, req)
}

// HandleSolveJob is the queue handler for asynchronous solves.
func (s *TimetableService) HandleSolveJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.SolveRequest)
	if !ok {
		return fmt.Errorf("job %s carries unexpected payload %T", job.ID, job.Payload)
	}

	resp, err := s.runSolve(ctx, req)
	status := &dto.SolveJobStatus{JobID: job.ID}
	if err != nil {
		status.Status = "FAILED"
		status.Error = err.Error()
	} else {
		status.Status = "COMPLETED"
		status.Response = resp
	}
	if saveErr := s.store.SaveJob(ctx, status); saveErr != nil {
		s.logger.Sugar().Errorw("failed to persist job status", "job_id", job.ID, "error", saveErr)
	}
	// Solver failures are terminal outcomes, not retryable job errors.
	return nil
}

// JobStatus returns the status of an asynchronous solve.
func (s *TimetableService) JobStatus(ctx context.Context, jobID string) (*dto.SolveJobStatus, error) {
	status, err := s.store.LoadJob(ctx, jobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job status")
	}
	if status == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "solve job not found")
	}
	return status, nil
}

func (s *TimetableService) runSolve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error) {
	acquired, err := s.store.AcquireLock(ctx, s.cfg.LockTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire solve lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrSolveInProgress, "")
	}
	defer func() {
		if err := s.store.ReleaseLock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Sugar().Warnw("failed to release solve lock", "error", err)
		}
	}()

	snap, err := s.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}

	weights := s.weightsFor(req.Weights)
	if !weights.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "")
	}

	locked, err := s.entries.ListLocked(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locked entries")
	}
	pinned := make([]solver.Entry, 0, len(locked))
	for _, entry := range locked {
		pinned = append(pinned, toSolverEntry(entry))
	}

	model, err := solver.Build(snap, solver.BuildOptions{
		AllowOddConsecutive: req.AllowOddConsecutive || s.cfg.AllowOddConsecutive,
		Pinned:              pinned,
	})
	if err != nil {
		var cfgErr *solver.ConfigError
		if errors.As(err, &cfgErr) {
			reports := toConflictModels(cfgErr.Reports)
			if storeErr := s.conflicts.Replace(ctx, reports); storeErr != nil {
				s.logger.Sugar().Errorw("failed to persist conflict reports", "error", storeErr)
			}
			return &dto.SolveResponse{State: StateUnsolvable, Conflicts: reports}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build solver model")
	}

	timeLimit := s.cfg.TimeLimit
	if req.TimeLimitSeconds > 0 {
		timeLimit = time.Duration(req.TimeLimitSeconds) * time.Second
	}

	started := time.Now()
	result := solver.Solve(ctx, model, solver.Config{TimeLimit: timeLimit, Weights: weights})
	if s.metrics != nil {
		s.metrics.ObserveSolve(string(result.State), result.Stats.Elapsed, result.Objective.Total)
	}
	s.logger.Sugar().Infow("solve finished",
		"state", result.State,
		"branches", result.Stats.Branches,
		"solutions", result.Stats.Solutions,
		"objective", result.Objective.Total,
		"elapsed", time.Since(started),
	)

	stats := &dto.SolveStats{
		Branches:      result.Stats.Branches,
		Propagations:  result.Stats.Propagations,
		Solutions:     result.Stats.Solutions,
		ElapsedMillis: result.Stats.Elapsed.Milliseconds(),
		Objective:     result.Objective.Total,
	}

	switch {
	case result.HasSolution():
		return s.persistSolution(ctx, snap, model, result, locked, stats)
	case result.State == solver.StateInfeasible:
		reports := toConflictModels(solver.Diagnose(model))
		if storeErr := s.conflicts.Replace(ctx, reports); storeErr != nil {
			s.logger.Sugar().Errorw("failed to persist conflict reports", "error", storeErr)
		}
		return &dto.SolveResponse{State: string(result.State), Conflicts: reports, Stats: stats}, nil
	default:
		return &dto.SolveResponse{State: string(result.State), Stats: stats}, nil
	}
}

// persistSolution stores the solved timetable, honouring the monotonic
// contract: when a previously recorded solution for the same configuration
// beats the new one, the recorded entries win.
func (s *TimetableService) persistSolution(
	ctx context.Context,
	snap *solver.Snapshot,
	model *solver.Model,
	result *solver.Result,
	locked []models.TimetableEntry,
	stats *dto.SolveStats,
) (*dto.SolveResponse, error) {
	solved, err := solver.Extract(model, result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternalConsistency.Code, appErrors.ErrInternalConsistency.Status, appErrors.ErrInternalConsistency.Message)
	}

	fingerprint := snapshotFingerprint(snap, locked)
	state := string(result.State)
	objective := result.Objective.Total
	entries := make([]models.TimetableEntry, 0, len(solved))
	for _, entry := range solved {
		entries = append(entries, models.TimetableEntry{
			ClassID:     entry.ClassID,
			SubjectID:   entry.SubjectID,
			TeacherID:   entry.TeacherID,
			RoomID:      entry.RoomID,
			DayIndex:    entry.Slot.Day,
			PeriodIndex: entry.Slot.Period,
		})
	}

	record, err := s.store.LoadRecord(ctx)
	if err != nil {
		s.logger.Sugar().Warnw("failed to load solve record", "error", err)
		record = nil
	}
	reused := false
	if record != nil && record.Fingerprint == fingerprint && record.Objective < objective && len(record.Entries) > 0 {
		entries = record.Entries
		objective = record.Objective
		state = record.State
		stats.Objective = record.Objective
		reused = true
	} else {
		newRecord := &models.SolveRecord{
			Fingerprint: fingerprint,
			Objective:   objective,
			State:       state,
			SolvedAt:    time.Now().UTC(),
			Entries:     entries,
		}
		if saveErr := s.store.SaveRecord(ctx, newRecord); saveErr != nil {
			s.logger.Sugar().Warnw("failed to save solve record", "error", saveErr)
		}
	}

	if err := s.entries.ReplaceUnlocked(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}
	if err := s.conflicts.Clear(ctx); err != nil {
		s.logger.Sugar().Warnw("failed to clear conflict reports", "error", err)
	}

	full, err := s.entries.List(ctx, models.TimetableFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload timetable")
	}
	if reused {
		s.logger.Sugar().Infow("reused recorded solution", "objective", objective)
	}
	return &dto.SolveResponse{State: state, Entries: full, Stats: stats}, nil
}

// List returns timetable entries for the filter.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error) {
	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	return entries, nil
}

// Conflicts returns the stored reports from the latest failed solve.
func (s *TimetableService) Conflicts(ctx context.Context) ([]models.ConflictReport, error) {
	reports, err := s.conflicts.ListLatest(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conflicts")
	}
	return reports, nil
}

// ValidateMove checks a proposed edit against every hard rule without
// mutating anything. The verdict lists all broken rules, not just the first.
func (s *TimetableService) ValidateMove(ctx context.Context, entryID string, req dto.MoveRequest) (*dto.MoveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}

	all, err := s.entries.List(ctx, models.TimetableFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	snap, err := s.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}

	roomID := req.RoomID
	if roomID == "" {
		roomID = entry.RoomID
	}
	move := solver.Move{
		Entry:     toSolverEntry(*entry),
		NewSlot:   solver.Slot{Day: req.DayIndex, Period: req.PeriodIndex},
		NewRoomID: roomID,
	}
	solverEntries := make([]solver.Entry, 0, len(all))
	for _, e := range all {
		solverEntries = append(solverEntries, toSolverEntry(e))
	}

	decision := solver.ValidateMove(snap, solverEntries, move, solver.ValidateOptions{AllowOddConsecutive: s.cfg.AllowOddConsecutive})
	resp := &dto.MoveResponse{Allowed: decision.Allowed}
	for _, violation := range decision.Violations {
		resp.Violations = append(resp.Violations, dto.MoveViolation{
			Family:  string(violation.Family),
			Message: violation.Message,
		})
	}
	return resp, nil
}

// ApplyMove validates the edit and commits it when every rule passes.
func (s *TimetableService) ApplyMove(ctx context.Context, entryID string, req dto.MoveRequest) (*dto.MoveResponse, error) {
	verdict, err := s.ValidateMove(ctx, entryID, req)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return verdict, nil
	}

	roomID := req.RoomID
	if roomID == "" {
		entry, err := s.entries.FindByID(ctx, entryID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
		}
		roomID = entry.RoomID
	}
	if err := s.entries.UpdateSlot(ctx, entryID, req.DayIndex, req.PeriodIndex, roomID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move timetable entry")
	}
	return verdict, nil
}

// SetLocked pins or unpins an entry against regeneration.
func (s *TimetableService) SetLocked(ctx context.Context, entryID string, locked bool) error {
	if _, err := s.entries.FindByID(ctx, entryID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	if err := s.entries.SetLocked(ctx, entryID, locked); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lock state")
	}
	return nil
}

// DeleteEntry removes one timetable entry.
func (s *TimetableService) DeleteEntry(ctx context.Context, entryID string) error {
	if _, err := s.entries.FindByID(ctx, entryID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	if err := s.entries.Delete(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
	}
	return nil
}

func (s *TimetableService) weightsFor(override *dto.ObjectiveWeights) solver.Weights {
	weights := solver.Weights{
		IdleGap:         s.cfg.IdleGapWeight,
		EarlyDifficult:  s.cfg.EarlyDifficultWeight,
		WorkloadBalance: s.cfg.WorkloadBalanceWeight,
	}
	if !weights.Valid() {
		weights = solver.DefaultWeights()
	}
	if override == nil {
		return weights
	}
	if override.IdleGap != nil {
		weights.IdleGap = *override.IdleGap
	}
	if override.EarlyDifficult != nil {
		weights.EarlyDifficult = *override.EarlyDifficult
	}
	if override.WorkloadBalance != nil {
		weights.WorkloadBalance = *override.WorkloadBalance
	}
	return weights
}

func toSolverEntry(entry models.TimetableEntry) solver.Entry {
	return solver.Entry{
		ClassID:   entry.ClassID,
		SubjectID: entry.SubjectID,
		TeacherID: entry.TeacherID,
		RoomID:    entry.RoomID,
		Slot:      solver.Slot{Day: entry.DayIndex, Period: entry.PeriodIndex},
	}
}

func toConflictModels(reports []solver.ConflictReport) []models.ConflictReport {
	out := make([]models.ConflictReport, 0, len(reports))
	for _, report := range reports {
		model := models.ConflictReport{
			Severity: string(report.Severity),
			Family:   string(report.Family),
			Message:  report.Message,
			Entities: report.Entities,
		}
		if len(report.Details) > 0 {
			if raw, err := json.Marshal(report.Details); err == nil {
				model.Details = types.JSONText(raw)
			}
		}
		out = append(out, model)
	}
	return out
}

// snapshotFingerprint hashes the solve inputs. A stored best record only
// applies while the fingerprint matches, so any entity or lock change starts
// a fresh monotonic chain.
func snapshotFingerprint(snap *solver.Snapshot, locked []models.TimetableEntry) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(snap.Grid)
	_ = enc.Encode(snap.Subjects)
	_ = enc.Encode(snap.Teachers)
	_ = enc.Encode(snap.Classes)
	_ = enc.Encode(snap.Rooms)
	_ = enc.Encode(snap.Allocations)
	for _, entry := range locked {
		_ = enc.Encode([]any{entry.ClassID, entry.SubjectID, entry.TeacherID, entry.RoomID, entry.DayIndex, entry.PeriodIndex})
	}
	return hex.EncodeToString(h.Sum(nil))
}
