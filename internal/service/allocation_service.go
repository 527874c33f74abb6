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

type allocationRepository interface {
	List(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, int, error)
	FindByID(ctx context.Context, id string) (*models.Allocation, error)
	ExistsForPair(ctx context.Context, classID, subjectID, excludeID string) (bool, error)
	Create(ctx context.Context, allocation *models.Allocation) error
	Update(ctx context.Context, allocation *models.Allocation) error
	Delete(ctx context.Context, id string) error
}

type allocationTeacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type allocationSubjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type allocationClassLookup interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
}

// AllocationService manages which teacher covers each class-subject pair.
type AllocationService struct {
	repo      allocationRepository
	teachers  allocationTeacherLookup
	subjects  allocationSubjectLookup
	classes   allocationClassLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAllocationService creates a new allocation service.
func NewAllocationService(
	repo allocationRepository,
	teachers allocationTeacherLookup,
	subjects allocationSubjectLookup,
	classes allocationClassLookup,
	validate *validator.Validate,
	logger *zap.Logger,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		repo:      repo,
		teachers:  teachers,
		subjects:  subjects,
		classes:   classes,
		validator: validate,
		logger:    logger,
	}
}

// List returns paginated allocations.
func (s *AllocationService) List(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, *models.Pagination, error) {
	allocations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return allocations, pagination, nil
}

// Get returns an allocation by identifier.
func (s *AllocationService) Get(ctx context.Context, id string) (*models.Allocation, error) {
	allocation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}
	return allocation, nil
}

// Create allocates a teacher to a class-subject pair. Each pair takes exactly
// one teacher, and the teacher must be qualified when their subject list is
// restricted.
func (s *AllocationService) Create(ctx context.Context, req dto.AllocationRequest) (*models.Allocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}
	if err := s.checkReferences(ctx, req, ""); err != nil {
		return nil, err
	}

	allocation := &models.Allocation{
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Create(ctx, allocation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create allocation")
	}
	return allocation, nil
}

// Update rewires an existing allocation.
func (s *AllocationService) Update(ctx context.Context, id string, req dto.AllocationRequest) (*models.Allocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	allocation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req, id); err != nil {
		return nil, err
	}

	allocation.ClassID = req.ClassID
	allocation.SubjectID = req.SubjectID
	allocation.TeacherID = req.TeacherID

	if err := s.repo.Update(ctx, allocation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update allocation")
	}
	return allocation, nil
}

// Delete removes an allocation.
func (s *AllocationService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete allocation")
	}
	return nil
}

func (s *AllocationService) checkReferences(ctx context.Context, req dto.AllocationRequest, excludeID string) error {
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
	}
	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if len(teacher.SubjectIDs) > 0 {
		qualified := false
		for _, subjectID := range teacher.SubjectIDs {
			if subjectID == req.SubjectID {
				qualified = true
				break
			}
		}
		if !qualified {
			return appErrors.Clone(appErrors.ErrValidation, "teacher is not qualified for this subject")
		}
	}

	exists, err := s.repo.ExistsForPair(ctx, req.ClassID, req.SubjectID, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check allocation pair")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "class-subject pair already has a teacher")
	}
	return nil
}
