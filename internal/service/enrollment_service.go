package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/repository"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

// enrollmentNumberPattern: course prefix followed by a 7-digit sequence,
// e.g. BCA2025001.
var enrollmentNumberPattern = regexp.MustCompile(`^[A-Za-z]+\d{7}$`)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsNumber(ctx context.Context, number string) (bool, error)
	FilterExistingNumbers(ctx context.Context, numbers []string) (map[string]bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	CreateBatch(ctx context.Context, enrollments []models.Enrollment) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByDivision(ctx context.Context, divisionID string) (int64, error)
}

type divisionReader interface {
	FindByID(ctx context.Context, id string) (*models.Division, error)
}

// CreateEnrollmentRequest registers a single enrollment number.
type CreateEnrollmentRequest struct {
	DivisionID       string `json:"division_id" validate:"required"`
	EnrollmentNumber string `json:"enrollment_number" validate:"required"`
}

// GenerateEnrollmentsRequest bulk-reserves a numeric range for a division.
type GenerateEnrollmentsRequest struct {
	DivisionID string `json:"division_id" validate:"required"`
	Start      int    `json:"start" validate:"required,min=1"`
	End        int    `json:"end" validate:"required,min=1"`
}

// EnrollmentService manages division rosters.
type EnrollmentService struct {
	repo      enrollmentRepository
	divisions divisionReader
	academic  config.AcademicConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, divisions divisionReader, academic config.AcademicConfig, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if academic.MaxEnrollmentNo == 0 {
		academic.MaxEnrollmentNo = 999
	}
	return &EnrollmentService{
		repo:      repo,
		divisions: divisions,
		academic:  academic,
		validator: validate,
		logger:    logger,
	}
}

// List returns enrollments with division context.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListStudents returns registered enrollments only.
func (s *EnrollmentService) ListStudents(ctx context.Context) ([]models.EnrollmentDetail, error) {
	registered := true
	return s.List(ctx, models.EnrollmentFilter{Registered: &registered})
}

// Create registers one enrollment number under a division.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	number := strings.ToUpper(strings.TrimSpace(req.EnrollmentNumber))
	if !enrollmentNumberPattern.MatchString(number) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment number must be a course prefix followed by 7 digits")
	}

	if _, err := s.divisions.FindByID(ctx, req.DivisionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "division not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load division")
	}

	exists, err := s.repo.ExistsNumber(ctx, number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment number already exists")
	}

	enrollment := &models.Enrollment{
		DivisionID:       req.DivisionID,
		EnrollmentNumber: number,
		IsRegistered:     false,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Generate reserves the numbers <COURSE><year><seq> for seq in
// [start, end], skipping any that already exist. Re-running the same range
// is a no-op that surfaces as "no new enrollments".
func (s *EnrollmentService) Generate(ctx context.Context, req GenerateEnrollmentsRequest) (*models.GenerateEnrollmentsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if req.Start > req.End || req.End > s.academic.MaxEnrollmentNo {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("range must satisfy 1 <= start <= end <= %d", s.academic.MaxEnrollmentNo))
	}

	division, err := s.divisions.FindByID(ctx, req.DivisionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "division not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load division")
	}

	numbers := make([]string, 0, req.End-req.Start+1)
	for seq := req.Start; seq <= req.End; seq++ {
		numbers = append(numbers, fmt.Sprintf("%s%d%03d", division.Course, division.Year, seq))
	}

	existing, err := s.repo.FilterExistingNumbers(ctx, numbers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollments")
	}

	fresh := make([]models.Enrollment, 0, len(numbers))
	for _, number := range numbers {
		if existing[number] {
			continue
		}
		fresh = append(fresh, models.Enrollment{
			DivisionID:       req.DivisionID,
			EnrollmentNumber: number,
			IsRegistered:     false,
		})
	}
	if len(fresh) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no new enrollments to generate for this range")
	}

	if err := s.repo.CreateBatch(ctx, fresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate enrollments")
	}

	s.logger.Info("enrollments generated",
		zap.String("division_id", req.DivisionID),
		zap.Int("inserted", len(fresh)),
		zap.Int("skipped", len(numbers)-len(fresh)),
	)

	return &models.GenerateEnrollmentsResult{
		InsertedCount: len(fresh),
		Inserted:      fresh,
		SkippedCount:  len(numbers) - len(fresh),
	}, nil
}

// Delete removes a single enrollment. Slots that sit in a group are
// protected by the group_members foreign key and refuse deletion.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRowReferenced) {
			return appErrors.Clone(appErrors.ErrConflict, "enrollment belongs to a group")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// DeleteByDivision clears a division's roster and reports how many rows
// were removed.
func (s *EnrollmentService) DeleteByDivision(ctx context.Context, divisionID string) (int64, error) {
	if _, err := s.divisions.FindByID(ctx, divisionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "division not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load division")
	}
	count, err := s.repo.DeleteByDivision(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repository.ErrRowReferenced) {
			return 0, appErrors.Clone(appErrors.ErrConflict, "one or more enrollments belong to a group")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollments")
	}
	return count, nil
}
