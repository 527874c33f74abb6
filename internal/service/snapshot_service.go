package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type snapshotSubjectRepository interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type snapshotTeacherRepository interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type snapshotClassRepository interface {
	ListAll(ctx context.Context) ([]models.ClassGroup, error)
}

type snapshotRoomRepository interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type snapshotAllocationRepository interface {
	ListAll(ctx context.Context) ([]models.Allocation, error)
}

type snapshotSettingsRepository interface {
	Get(ctx context.Context) (*models.SchoolSettings, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	ReplaceTimeSlots(ctx context.Context, slots []models.TimeSlot) error
}

// SnapshotService assembles the immutable entity view the solver runs on and
// derives the slot grid from school settings.
type SnapshotService struct {
	subjects    snapshotSubjectRepository
	teachers    snapshotTeacherRepository
	classes     snapshotClassRepository
	rooms       snapshotRoomRepository
	allocations snapshotAllocationRepository
	settings    snapshotSettingsRepository
	logger      *zap.Logger
}

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(
	subjects snapshotSubjectRepository,
	teachers snapshotTeacherRepository,
	classes snapshotClassRepository,
	rooms snapshotRoomRepository,
	allocations snapshotAllocationRepository,
	settings snapshotSettingsRepository,
	logger *zap.Logger,
) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		subjects:    subjects,
		teachers:    teachers,
		classes:     classes,
		rooms:       rooms,
		allocations: allocations,
		settings:    settings,
		logger:      logger,
	}
}

// Build loads every entity set and produces a validated snapshot.
func (s *SnapshotService) Build(ctx context.Context) (*solver.Snapshot, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "school settings are not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school settings")
	}

	grid := solver.Grid{Days: settings.DaysPerWeek, PeriodsPerDay: settings.PeriodsPerDay()}

	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	allocations, err := s.allocations.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}

	snapSubjects := make([]solver.Subject, 0, len(subjects))
	for _, subject := range subjects {
		snapSubjects = append(snapSubjects, solver.Subject{
			ID:            subject.ID,
			Name:          subject.Name,
			WeeklyPeriods: subject.WeeklyPeriods,
			Difficulty:    solver.ParseDifficulty(subject.Difficulty),
			RoomCategory:  subject.RequiresRoomType,
			Consecutive:   subject.RequiresConsecutive,
		})
	}

	snapTeachers := make([]solver.Teacher, 0, len(teachers))
	for _, teacher := range teachers {
		mask, err := decodeAvailability(teacher.Availability)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("teacher %s has malformed availability", teacher.ID))
		}
		qualified := make(map[string]bool, len(teacher.SubjectIDs))
		for _, id := range teacher.SubjectIDs {
			qualified[id] = true
		}
		snapTeachers = append(snapTeachers, solver.Teacher{
			ID:             teacher.ID,
			Name:           teacher.FullName,
			MaxPeriodsWeek: teacher.MaxPeriodsWeek,
			Availability:   mask,
			Subjects:       qualified,
		})
	}

	snapClasses := make([]solver.ClassGroup, 0, len(classes))
	for _, class := range classes {
		snapClasses = append(snapClasses, solver.ClassGroup{
			ID:           class.ID,
			Name:         class.Name,
			StudentCount: class.StudentCount,
			Subjects:     append([]string(nil), class.SubjectIDs...),
		})
	}

	snapRooms := make([]solver.Room, 0, len(rooms))
	for _, room := range rooms {
		mask, err := decodeAvailability(room.Availability)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("room %s has malformed availability", room.ID))
		}
		snapRooms = append(snapRooms, solver.Room{
			ID:           room.ID,
			Name:         room.Name,
			Category:     room.RoomType,
			Capacity:     room.Capacity,
			Availability: mask,
		})
	}

	snapAllocations := make([]solver.Allocation, 0, len(allocations))
	for _, allocation := range allocations {
		snapAllocations = append(snapAllocations, solver.Allocation{
			ClassID:   allocation.ClassID,
			SubjectID: allocation.SubjectID,
			TeacherID: allocation.TeacherID,
		})
	}

	snap, err := solver.NewSnapshot(grid, snapSubjects, snapTeachers, snapClasses, snapRooms, snapAllocations)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return snap, nil
}

// GenerateTimeSlots derives the labelled slot grid from settings and replaces
// the stored rows. Periods after the break start later by the break duration.
func (s *SnapshotService) GenerateTimeSlots(ctx context.Context, settings *models.SchoolSettings) ([]models.TimeSlot, error) {
	start, err := time.Parse("15:04", settings.LessonStartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson start time must be HH:MM")
	}

	lesson := time.Duration(settings.LessonDurationMin) * time.Minute
	pause := time.Duration(settings.BreakDurationMin) * time.Minute
	periods := settings.PeriodsPerDay()

	slots := make([]models.TimeSlot, 0, settings.DaysPerWeek*periods)
	for day := 0; day < settings.DaysPerWeek; day++ {
		cursor := start
		for period := 0; period < periods; period++ {
			if period == settings.PeriodsBeforeBreak {
				cursor = cursor.Add(pause)
			}
			slots = append(slots, models.TimeSlot{
				DayIndex:    day,
				PeriodIndex: period,
				StartTime:   cursor.Format("15:04"),
				EndTime:     cursor.Add(lesson).Format("15:04"),
			})
			cursor = cursor.Add(lesson)
		}
	}

	if err := s.settings.ReplaceTimeSlots(ctx, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store time slots")
	}
	s.logger.Sugar().Infow("time slots regenerated", "days", settings.DaysPerWeek, "periods_per_day", periods)
	return slots, nil
}

// decodeAvailability turns the stored {"day":{"period":bool}} JSON into a
// mask. A value of false blocks the slot; true and absent mean available.
func decodeAvailability(raw types.JSONText) (solver.AvailabilityMask, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload map[string]map[string]bool
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	mask := make(solver.AvailabilityMask)
	for dayKey, periods := range payload {
		day, err := strconv.Atoi(dayKey)
		if err != nil {
			return nil, fmt.Errorf("availability day %q is not a number", dayKey)
		}
		for periodKey, open := range periods {
			period, err := strconv.Atoi(periodKey)
			if err != nil {
				return nil, fmt.Errorf("availability period %q is not a number", periodKey)
			}
			if !open {
				mask.Block(solver.Slot{Day: day, Period: period})
			}
		}
	}
	return mask, nil
}
