package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

type announcementRepository interface {
	ListCourse(ctx context.Context) ([]models.CourseAnnouncement, error)
	CreateCourse(ctx context.Context, a *models.CourseAnnouncement) error
	UpdateCourse(ctx context.Context, a *models.CourseAnnouncement) (bool, error)
	DeleteCourse(ctx context.Context, id string) (bool, error)
	ListGuide(ctx context.Context) ([]models.GuideAnnouncement, error)
	CreateGuide(ctx context.Context, a *models.GuideAnnouncement) error
	UpdateGuide(ctx context.Context, a *models.GuideAnnouncement) (bool, error)
	DeleteGuide(ctx context.Context, id string) (bool, error)
}

// AnnouncementRequest creates or replaces an announcement. Exactly one of
// Courses / GuideIDs applies depending on the endpoint.
type AnnouncementRequest struct {
	Title    string    `json:"title" validate:"required,max=200"`
	Message  string    `json:"message" validate:"required,max=2000"`
	Date     time.Time `json:"date" validate:"required"`
	Courses  []string  `json:"courses,omitempty"`
	GuideIDs []string  `json:"guide_ids,omitempty"`
}

type guideAnnouncementNotifier interface {
	NotifyGuides(a *models.GuideAnnouncement)
}

// AnnouncementService manages course and guide announcements.
type AnnouncementService struct {
	repo      announcementRepository
	notifier  guideAnnouncementNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs AnnouncementService. A nil notifier
// disables mail fan-out.
func NewAnnouncementService(repo announcementRepository, notifier guideAnnouncementNotifier, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// ListCourse returns course announcements, newest first.
func (s *AnnouncementService) ListCourse(ctx context.Context) ([]models.CourseAnnouncement, error) {
	items, err := s.repo.ListCourse(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return items, nil
}

// CreateCourse publishes a course announcement.
func (s *AnnouncementService) CreateCourse(ctx context.Context, req AnnouncementRequest) (*models.CourseAnnouncement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if len(req.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one course is required")
	}

	a := &models.CourseAnnouncement{
		Title:   req.Title,
		Message: req.Message,
		Date:    req.Date,
		Courses: req.Courses,
	}
	if err := s.repo.CreateCourse(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return a, nil
}

// UpdateCourse replaces a course announcement.
func (s *AnnouncementService) UpdateCourse(ctx context.Context, id string, req AnnouncementRequest) (*models.CourseAnnouncement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if len(req.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one course is required")
	}

	a := &models.CourseAnnouncement{
		ID:      id,
		Title:   req.Title,
		Message: req.Message,
		Date:    req.Date,
		Courses: req.Courses,
	}
	updated, err := s.repo.UpdateCourse(ctx, a)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return a, nil
}

// DeleteCourse removes a course announcement.
func (s *AnnouncementService) DeleteCourse(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteCourse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return nil
}

// ListGuide returns guide announcements, newest first.
func (s *AnnouncementService) ListGuide(ctx context.Context) ([]models.GuideAnnouncement, error) {
	items, err := s.repo.ListGuide(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return items, nil
}

// CreateGuide publishes an announcement addressed to specific guides.
func (s *AnnouncementService) CreateGuide(ctx context.Context, req AnnouncementRequest) (*models.GuideAnnouncement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if len(req.GuideIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one guide is required")
	}

	a := &models.GuideAnnouncement{
		Title:    req.Title,
		Message:  req.Message,
		Date:     req.Date,
		GuideIDs: req.GuideIDs,
	}
	if err := s.repo.CreateGuide(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	if s.notifier != nil {
		s.notifier.NotifyGuides(a)
	}
	return a, nil
}

// UpdateGuide replaces a guide announcement.
func (s *AnnouncementService) UpdateGuide(ctx context.Context, id string, req AnnouncementRequest) (*models.GuideAnnouncement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if len(req.GuideIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one guide is required")
	}

	a := &models.GuideAnnouncement{
		ID:       id,
		Title:    req.Title,
		Message:  req.Message,
		Date:     req.Date,
		GuideIDs: req.GuideIDs,
	}
	updated, err := s.repo.UpdateGuide(ctx, a)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return a, nil
}

// DeleteGuide removes a guide announcement.
func (s *AnnouncementService) DeleteGuide(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteGuide(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return nil
}
