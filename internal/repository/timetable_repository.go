package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableRepository manages persisted timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = "id, class_id, subject_id, teacher_id, room_id, day_index, period_index, is_locked, created_at, updated_at"

// List returns timetable entries matching filter criteria, slot ordered.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error) {
	base := "FROM timetable_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayIndex != nil {
		conditions = append(conditions, fmt.Sprintf("day_index = $%d", len(args)+1))
		args = append(args, *filter.DayIndex)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_index, period_index, class_id", timetableColumns, base)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListLocked returns entries pinned by hand that regeneration must keep.
func (r *TimetableRepository) ListLocked(ctx context.Context) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE is_locked = TRUE ORDER BY day_index, period_index, class_id", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list locked entries: %w", err)
	}
	return entries, nil
}

// FindByID returns a timetable entry by ID.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE id = $1", timetableColumns)
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReplaceUnlocked swaps every non-locked entry for the solver's output in a
// single transaction. Locked rows are untouched.
func (r *TimetableRepository) ReplaceUnlocked(ctx context.Context, entries []models.TimetableEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE is_locked = FALSE`); err != nil {
		return fmt.Errorf("clear unlocked entries: %w", err)
	}

	now := time.Now().UTC()
	for i := range entries {
		entry := entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO timetable_entries (id, class_id, subject_id, teacher_id, room_id, day_index, period_index, is_locked, created_at, updated_at) VALUES (:id, :class_id, :subject_id, :teacher_id, :room_id, :day_index, :period_index, :is_locked, :created_at, :updated_at)`, &entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
		entries[i] = entry
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace timetable: %w", err)
	}
	return nil
}

// UpdateSlot moves one entry to a new slot and room.
func (r *TimetableRepository) UpdateSlot(ctx context.Context, id string, dayIndex, periodIndex int, roomID string) error {
	const query = `UPDATE timetable_entries SET day_index = $1, period_index = $2, room_id = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, dayIndex, periodIndex, roomID, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("move timetable entry: %w", err)
	}
	return nil
}

// SetLocked pins or unpins an entry.
func (r *TimetableRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	const query = `UPDATE timetable_entries SET is_locked = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, locked, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("lock timetable entry: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	return nil
}
