package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, course string) ([]models.ExamSchedule, error)
	Create(ctx context.Context, schedule *models.ExamSchedule) error
	Update(ctx context.Context, schedule *models.ExamSchedule) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ScheduleRequest creates or replaces an exam schedule entry.
type ScheduleRequest struct {
	Course      string    `json:"course" validate:"required,alpha"`
	Type        string    `json:"type" validate:"required"`
	Description string    `json:"description" validate:"required,max=500"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time" validate:"required"`
}

// ScheduleService manages exam and submission schedules.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// List returns schedules, optionally filtered by course, date ascending.
func (s *ScheduleService) List(ctx context.Context, course string) ([]models.ExamSchedule, error) {
	schedules, err := s.repo.List(ctx, course)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Create adds a schedule entry.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.ExamSchedule, error) {
	scheduleType, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	schedule := &models.ExamSchedule{
		Course:      req.Course,
		Type:        scheduleType,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update replaces a schedule entry.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRequest) (*models.ExamSchedule, error) {
	scheduleType, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	schedule := &models.ExamSchedule{
		ID:          id,
		Course:      req.Course,
		Type:        scheduleType,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
	}
	updated, err := s.repo.Update(ctx, schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return schedule, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return nil
}

func (s *ScheduleService) validate(req ScheduleRequest) (models.ScheduleType, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	switch models.ScheduleType(req.Type) {
	case models.ScheduleTypeExam, models.ScheduleTypeSubmission:
		return models.ScheduleType(req.Type), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "type must be Exam or Submission")
	}
}
