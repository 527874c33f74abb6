package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.SchoolSettings, error)
	Upsert(ctx context.Context, settings *models.SchoolSettings) error
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

type timeSlotGenerator interface {
	GenerateTimeSlots(ctx context.Context, settings *models.SchoolSettings) ([]models.TimeSlot, error)
}

// SettingsService manages the school configuration that shapes the slot grid.
// Saving settings regenerates the time slots.
type SettingsService struct {
	repo      settingsRepository
	generator timeSlotGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo settingsRepository, generator timeSlotGenerator, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, generator: generator, validator: validate, logger: logger}
}

// Get returns the current school settings.
func (s *SettingsService) Get(ctx context.Context) (*models.SchoolSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school settings are not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update stores the settings and regenerates the time slot grid.
func (s *SettingsService) Update(ctx context.Context, req dto.SettingsRequest) (*models.SchoolSettings, []models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings, err := s.repo.Get(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if settings == nil {
		settings = &models.SchoolSettings{}
	}

	settings.DaysPerWeek = req.DaysPerWeek
	settings.PeriodsBeforeBreak = req.PeriodsBeforeBreak
	settings.PeriodsAfterBreak = req.PeriodsAfterBreak
	settings.LessonStartTime = req.LessonStartTime
	settings.LessonDurationMin = req.LessonDurationMin
	settings.BreakDurationMin = req.BreakDurationMin

	slots, err := s.generator.GenerateTimeSlots(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store settings")
	}

	s.logger.Sugar().Infow("school settings updated", "days_per_week", settings.DaysPerWeek, "periods_per_day", settings.PeriodsPerDay())
	return settings, slots, nil
}

// TimeSlots returns the generated slot grid.
func (s *SettingsService) TimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.ListTimeSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}
