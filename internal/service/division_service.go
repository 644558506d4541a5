package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/repository"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

type divisionRepository interface {
	List(ctx context.Context, filter models.DivisionFilter) ([]models.Division, error)
	FindByID(ctx context.Context, id string) (*models.Division, error)
	ExistsKey(ctx context.Context, course string, semester, year int) (bool, error)
	Create(ctx context.Context, division *models.Division) error
	UpdateStatus(ctx context.Context, id string, status models.DivisionStatus) error
	Delete(ctx context.Context, id string) (bool, error)
}

type enrollmentPurger interface {
	DeleteByDivision(ctx context.Context, divisionID string) (int64, error)
}

// CreateDivisionRequest describes division creation.
type CreateDivisionRequest struct {
	Course   string `json:"course" validate:"required,alpha"`
	Semester int    `json:"semester" validate:"required,min=1,max=8"`
	Year     int    `json:"year" validate:"required"`
	Status   string `json:"status,omitempty"`
}

// DivisionView is the presentation form of a division with the status
// capitalized for display.
type DivisionView struct {
	models.Division
	Status string `json:"status"`
}

// DivisionService manages (course, semester, year) class sections.
type DivisionService struct {
	repo        divisionRepository
	enrollments enrollmentPurger
	academic    config.AcademicConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDivisionService constructs DivisionService.
func NewDivisionService(repo divisionRepository, enrollments enrollmentPurger, academic config.AcademicConfig, validate *validator.Validate, logger *zap.Logger) *DivisionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DivisionService{
		repo:        repo,
		enrollments: enrollments,
		academic:    academic,
		validator:   validate,
		logger:      logger,
	}
}

// List returns divisions sorted year DESC, semester ASC with capitalized
// status presentation.
func (s *DivisionService) List(ctx context.Context, filter models.DivisionFilter) ([]DivisionView, error) {
	filter.Status = models.DivisionStatus(strings.ToLower(string(filter.Status)))
	divisions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list divisions")
	}
	views := make([]DivisionView, 0, len(divisions))
	for _, d := range divisions {
		views = append(views, newDivisionView(d))
	}
	return views, nil
}

// Create validates and inserts a new division. Course is normalized to
// uppercase, status stored lowercase.
func (s *DivisionService) Create(ctx context.Context, req CreateDivisionRequest) (*DivisionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid division payload")
	}

	course := strings.ToUpper(strings.TrimSpace(req.Course))
	if len(s.academic.Courses) > 0 && !containsFold(s.academic.Courses, course) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course must be one of %s", strings.Join(s.academic.Courses, ", ")))
	}
	if req.Year < s.academic.MinYear || req.Year > s.academic.MaxYear {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("year must be between %d and %d", s.academic.MinYear, s.academic.MaxYear))
	}

	status := models.DivisionStatusActive
	if req.Status != "" {
		switch models.DivisionStatus(strings.ToLower(req.Status)) {
		case models.DivisionStatusActive:
			status = models.DivisionStatusActive
		case models.DivisionStatusInactive:
			status = models.DivisionStatusInactive
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Active or Inactive")
		}
	}

	exists, err := s.repo.ExistsKey(ctx, course, req.Semester, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate division")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "division already exists for this course, semester and year")
	}

	division := &models.Division{
		Course:   course,
		Semester: req.Semester,
		Year:     req.Year,
		Status:   status,
	}
	if err := s.repo.Create(ctx, division); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "division already exists for this course, semester and year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create division")
	}

	view := newDivisionView(*division)
	return &view, nil
}

// ToggleStatus flips the division between active and inactive.
func (s *DivisionService) ToggleStatus(ctx context.Context, id string) (*DivisionView, error) {
	division, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "division not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load division")
	}

	next := models.DivisionStatusActive
	if division.Status == models.DivisionStatusActive {
		next = models.DivisionStatusInactive
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update division status")
	}

	division.Status = next
	view := newDivisionView(*division)
	return &view, nil
}

// Delete removes a division and its roster. Enrollments go first so a
// retry after partial failure converges instead of stranding the roster.
func (s *DivisionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "division not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load division")
	}

	purged, err := s.enrollments.DeleteByDivision(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRowReferenced) {
			return appErrors.Clone(appErrors.ErrConflict, "division has enrollments assigned to groups")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete division enrollments")
	}
	if purged > 0 {
		s.logger.Info("division roster purged", zap.String("division_id", id), zap.Int64("enrollments", purged))
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "division enrollments deleted but division removal failed")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "division not found")
	}
	return nil
}

func newDivisionView(d models.Division) DivisionView {
	return DivisionView{Division: d, Status: d.DisplayStatus()}
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
