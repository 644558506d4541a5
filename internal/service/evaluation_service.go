package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/repository"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

type evaluationRepository interface {
	ListParameters(ctx context.Context) ([]models.EvaluationParameter, error)
	FindParameterByID(ctx context.Context, id string) (*models.EvaluationParameter, error)
	CreateParameter(ctx context.Context, param *models.EvaluationParameter) error
	UpdateParameter(ctx context.Context, param *models.EvaluationParameter) error
	DeleteParameter(ctx context.Context, id string) (bool, error)
	UpsertMark(ctx context.Context, eval *models.ProjectEvaluation) error
	FindMark(ctx context.Context, projectID, parameterID string) (*models.ProjectEvaluationDetail, error)
	ListByProject(ctx context.Context, projectID string) ([]models.ProjectEvaluationDetail, error)
	ListAll(ctx context.Context) ([]models.ProjectEvaluationDetail, error)
}

type projectReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// ParameterRequest creates or replaces a rubric parameter.
type ParameterRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"required,max=500"`
	Marks       float64 `json:"marks" validate:"min=0"`
}

// UpsertMarkRequest records marks for one (project, parameter) pair.
type UpsertMarkRequest struct {
	GivenMarks *float64 `json:"given_marks" validate:"required"`
}

// EvaluationService manages the rubric and the per-project marks ledger.
type EvaluationService struct {
	repo      evaluationRepository
	projects  projectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(repo evaluationRepository, projects projectReader, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{repo: repo, projects: projects, validator: validate, logger: logger}
}

// ListParameters returns the rubric.
func (s *EvaluationService) ListParameters(ctx context.Context) ([]models.EvaluationParameter, error) {
	params, err := s.repo.ListParameters(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluation parameters")
	}
	return params, nil
}

// CreateParameter adds a rubric entry.
func (s *EvaluationService) CreateParameter(ctx context.Context, req ParameterRequest) (*models.EvaluationParameter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parameter payload")
	}

	param := &models.EvaluationParameter{
		Name:        req.Name,
		Description: req.Description,
		Marks:       req.Marks,
	}
	if err := s.repo.CreateParameter(ctx, param); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "parameter name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parameter")
	}
	return param, nil
}

// UpdateParameter replaces a rubric entry.
func (s *EvaluationService) UpdateParameter(ctx context.Context, id string, req ParameterRequest) (*models.EvaluationParameter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parameter payload")
	}

	param, err := s.repo.FindParameterByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation parameter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parameter")
	}

	param.Name = req.Name
	param.Description = req.Description
	param.Marks = req.Marks
	if err := s.repo.UpdateParameter(ctx, param); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "parameter name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parameter")
	}
	return param, nil
}

// DeleteParameter removes a rubric entry.
func (s *EvaluationService) DeleteParameter(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteParameter(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parameter")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "evaluation parameter not found")
	}
	return nil
}

// UpsertMark records marks for a project against a parameter. Both sides
// must exist; re-submitting overwrites the previous marks.
func (s *EvaluationService) UpsertMark(ctx context.Context, projectID, parameterID, adminID string, req UpsertMarkRequest) (*models.ProjectEvaluationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	if req.GivenMarks != nil && *req.GivenMarks < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "given marks cannot be negative")
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project group")
	}
	param, err := s.repo.FindParameterByID(ctx, parameterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation parameter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parameter")
	}
	if req.GivenMarks != nil && *req.GivenMarks > param.Marks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "given marks exceed the parameter maximum")
	}

	eval := &models.ProjectEvaluation{
		ProjectID:   projectID,
		ParameterID: parameterID,
		GivenMarks:  req.GivenMarks,
		EvaluatedBy: adminID,
	}
	if err := s.repo.UpsertMark(ctx, eval); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record marks")
	}

	detail, err := s.repo.FindMark(ctx, projectID, parameterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recorded marks")
	}
	return detail, nil
}

// ListByProject returns all marks recorded for one project group.
func (s *EvaluationService) ListByProject(ctx context.Context, projectID string) ([]models.ProjectEvaluationDetail, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project group")
	}
	marks, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list project evaluations")
	}
	return marks, nil
}

// ListAll returns the whole marks ledger.
func (s *EvaluationService) ListAll(ctx context.Context) ([]models.ProjectEvaluationDetail, error) {
	marks, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return marks, nil
}
