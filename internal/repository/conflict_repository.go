package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ConflictRepository stores the conflict reports produced by failed solve
// runs so they stay inspectable after the run that raised them.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository constructs a new conflict repository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// ListLatest returns the reports from the most recent failed run.
func (r *ConflictRepository) ListLatest(ctx context.Context) ([]models.ConflictReport, error) {
	const query = `SELECT id, severity, family, message, entities, details, created_at FROM conflict_reports ORDER BY created_at DESC, id LIMIT 100`
	var reports []models.ConflictReport
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list conflict reports: %w", err)
	}
	return reports, nil
}

// Replace drops the previous run's reports and stores the new set.
func (r *ConflictRepository) Replace(ctx context.Context, reports []models.ConflictReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace conflicts: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM conflict_reports`); err != nil {
		return fmt.Errorf("clear conflict reports: %w", err)
	}

	now := time.Now().UTC()
	for i := range reports {
		report := reports[i]
		if report.ID == "" {
			report.ID = uuid.NewString()
		}
		if report.CreatedAt.IsZero() {
			report.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO conflict_reports (id, severity, family, message, entities, details, created_at) VALUES (:id, :severity, :family, :message, :entities, :details, :created_at)`, &report); err != nil {
			return fmt.Errorf("insert conflict report: %w", err)
		}
		reports[i] = report
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace conflicts: %w", err)
	}
	return nil
}

// Clear removes all stored reports, called after a feasible solve.
func (r *ConflictRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM conflict_reports`); err != nil {
		return fmt.Errorf("clear conflict reports: %w", err)
	}
	return nil
}
