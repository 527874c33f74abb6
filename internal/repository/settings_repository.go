package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SettingsRepository manages school settings and the generated time slots.
// Settings are a singleton row; saving them regenerates the slot grid.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the school settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SchoolSettings, error) {
	const query = `SELECT id, days_per_week, periods_before_break, periods_after_break, lesson_start_time, lesson_duration_min, break_duration_min, updated_at FROM school_settings LIMIT 1`
	var settings models.SchoolSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the settings singleton.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.SchoolSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	settings.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO school_settings (id, days_per_week, periods_before_break, periods_after_break, lesson_start_time, lesson_duration_min, break_duration_min, updated_at)
VALUES (:id, :days_per_week, :periods_before_break, :periods_after_break, :lesson_start_time, :lesson_duration_min, :break_duration_min, :updated_at)
ON CONFLICT (id) DO UPDATE SET days_per_week = EXCLUDED.days_per_week, periods_before_break = EXCLUDED.periods_before_break, periods_after_break = EXCLUDED.periods_after_break, lesson_start_time = EXCLUDED.lesson_start_time, lesson_duration_min = EXCLUDED.lesson_duration_min, break_duration_min = EXCLUDED.break_duration_min, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert school settings: %w", err)
	}
	return nil
}

// ListTimeSlots returns the generated grid in day-major order.
func (r *SettingsRepository) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, day_index, period_index, start_time, end_time, created_at FROM time_slots ORDER BY day_index, period_index`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ReplaceTimeSlots swaps the whole slot grid in one transaction.
func (r *SettingsRepository) ReplaceTimeSlots(ctx context.Context, slots []models.TimeSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace time slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM time_slots`); err != nil {
		return fmt.Errorf("clear time slots: %w", err)
	}

	now := time.Now().UTC()
	for i := range slots {
		slot := slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO time_slots (id, day_index, period_index, start_time, end_time, created_at) VALUES (:id, :day_index, :period_index, :start_time, :end_time, :created_at)`, &slot); err != nil {
			return fmt.Errorf("insert time slot: %w", err)
		}
		slots[i] = slot
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace time slots: %w", err)
	}
	return nil
}
