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

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error)
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	ExistsName(ctx context.Context, name, excludeID string) (bool, error)
	TakenEnrollments(ctx context.Context, enrollmentIDs []string, excludeGroupID string) ([]string, error)
	CreateWithMembers(ctx context.Context, group *models.Group, enrollmentIDs []string) error
	Update(ctx context.Context, group *models.Group) error
	ReplaceMembers(ctx context.Context, groupID string, enrollmentIDs []string) error
	Delete(ctx context.Context, id string) (bool, error)
	AvailableStudents(ctx context.Context, filter models.AvailableStudentFilter) ([]models.AvailableStudent, error)
}

type guideReader interface {
	FindByID(ctx context.Context, id string) (*models.Guide, error)
}

// guideLinker maintains the guide -> groups back-reference cache. Both
// operations are idempotent so the engine can retry them after partial
// failure without risk of double effect.
type guideLinker interface {
	guideReader
	AddAssignedGroup(ctx context.Context, guideID, groupID string) error
	RemoveAssignedGroup(ctx context.Context, guideID, groupID string) error
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByNumber(ctx context.Context, number string) (*models.Enrollment, error)
}

// CreateGroupRequest describes group creation.
type CreateGroupRequest struct {
	Name               string             `json:"name" validate:"required,max=100"`
	GuideID            string             `json:"guide" validate:"required"`
	ProjectTitle       string             `json:"project_title" validate:"required,max=200"`
	ProjectDescription string             `json:"project_description" validate:"required,max=1000"`
	ProjectTechnology  string             `json:"project_technology" validate:"required,max=100"`
	Year               int                `json:"year" validate:"required"`
	Members            []models.MemberRef `json:"members" validate:"required"`
}

// UpdateGroupRequest carries the mutable subset of a group. Nil fields are
// left untouched.
type UpdateGroupRequest struct {
	Name               *string             `json:"name,omitempty"`
	GuideID            *string             `json:"guide,omitempty"`
	ProjectTitle       *string             `json:"project_title,omitempty"`
	ProjectDescription *string             `json:"project_description,omitempty"`
	ProjectTechnology  *string             `json:"project_technology,omitempty"`
	Year               *int                `json:"year,omitempty"`
	Status             *models.GroupStatus `json:"status,omitempty"`
	Members            []models.MemberRef  `json:"members,omitempty"`
}

// GroupService is the group assignment engine. It owns the membership-size
// and one-group-per-student invariants and keeps the guide back-reference
// cache consistent through ordered, individually idempotent steps.
type GroupService struct {
	repo        groupRepository
	guides      guideLinker
	enrollments enrollmentReader
	academic    config.AcademicConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(repo groupRepository, guides guideLinker, enrollments enrollmentReader, academic config.AcademicConfig, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if academic.MinGroupSize == 0 {
		academic.MinGroupSize = 3
	}
	if academic.MaxGroupSize == 0 {
		academic.MaxGroupSize = 4
	}
	return &GroupService{
		repo:        repo,
		guides:      guides,
		enrollments: enrollments,
		academic:    academic,
		validator:   validate,
		logger:      logger,
	}
}

// List returns groups with guide context.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error) {
	groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// Get returns one group with guide and member details.
func (s *GroupService) Get(ctx context.Context, id string) (*models.GroupDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group members")
	}
	detail.Members = members
	return detail, nil
}

// Create validates and persists a new group, then links the guide
// back-reference. The member insert and the group insert share one
// transaction; the guide link runs after commit and is retried, then
// flagged for reconciliation if it still fails, since the group itself is
// valid and must not be lost.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.GroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	if err := s.checkGuide(ctx, req.GuideID); err != nil {
		return nil, err
	}

	if err := s.checkMemberCount(len(req.Members)); err != nil {
		return nil, err
	}

	memberIDs, err := s.resolveMembers(ctx, req.Members)
	if err != nil {
		return nil, err
	}

	if err := s.checkMembersFree(ctx, memberIDs, ""); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate group name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group name already exists")
	}

	group := &models.Group{
		Name:               req.Name,
		GuideID:            req.GuideID,
		ProjectTitle:       req.ProjectTitle,
		ProjectDescription: req.ProjectDescription,
		ProjectTechnology:  req.ProjectTechnology,
		Year:               req.Year,
		Status:             models.GroupStatusNotStarted,
	}

	if err := s.repo.CreateWithMembers(ctx, group, memberIDs); err != nil {
		return nil, s.mapWriteError(err, "failed to create group")
	}

	// Primary write committed; the back-reference is a secondary,
	// reconcilable step and must never fail the request.
	s.linkGuide(ctx, group.GuideID, group.ID)

	return s.Get(ctx, group.ID)
}

// Update applies a partial update. Guide changes relink the back-reference
// cache remove-old-first so a crash mid-way leaves the group double-linked
// (visible to both guides) rather than unlinked (visible to neither). The
// relink runs right after the group row write, before any member write.
func (s *GroupService) Update(ctx context.Context, id string, req UpdateGroupRequest) (*models.GroupDetail, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	oldGuideID := group.GuideID
	guideChanged := req.GuideID != nil && *req.GuideID != oldGuideID

	if guideChanged {
		if err := s.checkGuide(ctx, *req.GuideID); err != nil {
			return nil, err
		}
		group.GuideID = *req.GuideID
	}

	var memberIDs []string
	if req.Members != nil {
		if err := s.checkMemberCount(len(req.Members)); err != nil {
			return nil, err
		}
		memberIDs, err = s.resolveMembers(ctx, req.Members)
		if err != nil {
			return nil, err
		}
		// The group's current members do not conflict with themselves.
		if err := s.checkMembersFree(ctx, memberIDs, id); err != nil {
			return nil, err
		}
	}

	if req.Name != nil && *req.Name != group.Name {
		taken, err := s.repo.ExistsName(ctx, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate group name")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "group name already exists")
		}
		group.Name = *req.Name
	}
	if req.ProjectTitle != nil {
		group.ProjectTitle = *req.ProjectTitle
	}
	if req.ProjectDescription != nil {
		group.ProjectDescription = *req.ProjectDescription
	}
	if req.ProjectTechnology != nil {
		group.ProjectTechnology = *req.ProjectTechnology
	}
	if req.Year != nil {
		group.Year = *req.Year
	}
	if req.Status != nil {
		switch *req.Status {
		case models.GroupStatusNotStarted, models.GroupStatusInProgress, models.GroupStatusCompleted:
			group.Status = *req.Status
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid group status")
		}
	}

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, s.mapWriteError(err, "failed to update group")
	}

	if guideChanged {
		// The relink must follow the row write immediately: once guide_id
		// is persisted a retry of the same request no longer sees a guide
		// change, so a relink deferred past a failed member write would
		// never run again.
		// Remove-then-add: over-linking is reconcilable, under-linking is
		// invisible to both guides.
		if err := s.guides.RemoveAssignedGroup(ctx, oldGuideID, id); err != nil {
			s.logger.Error("guide unlink pending reconciliation",
				zap.String("group_id", id),
				zap.String("guide_id", oldGuideID),
				zap.Error(appErrors.Wrap(err, appErrors.ErrReconciliation.Code, appErrors.ErrReconciliation.Status, "remove assigned group failed")),
			)
		}
		s.linkGuide(ctx, group.GuideID, id)
	}

	if memberIDs != nil {
		if err := s.repo.ReplaceMembers(ctx, id, memberIDs); err != nil {
			return nil, s.mapWriteError(err, "failed to update group members")
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the group first, then the guide back-reference. A failed
// unlink leaves a dangling cache row which readers filter out.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	if err := s.guides.RemoveAssignedGroup(ctx, group.GuideID, id); err != nil {
		s.logger.Error("guide unlink pending reconciliation",
			zap.String("group_id", id),
			zap.String("guide_id", group.GuideID),
			zap.Error(appErrors.Wrap(err, appErrors.ErrReconciliation.Code, appErrors.ErrReconciliation.Status, "remove assigned group failed")),
		)
	}
	return nil
}

// AvailableStudents returns registered enrollments of the matching cohort
// that are free of any group. When the filter is empty it is inferred from
// the group's own year. The set difference is computed fresh per call.
func (s *GroupService) AvailableStudents(ctx context.Context, groupID string, filter models.AvailableStudentFilter) ([]models.AvailableStudent, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	if filter.Course == "" && filter.Semester == 0 && filter.Year == 0 {
		filter.Year = group.Year
	}

	students, err := s.repo.AvailableStudents(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available students")
	}
	return students, nil
}

// ListAvailableStudents is the group-independent variant used by the
// admin roster view.
func (s *GroupService) ListAvailableStudents(ctx context.Context, filter models.AvailableStudentFilter) ([]models.AvailableStudent, error) {
	students, err := s.repo.AvailableStudents(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available students")
	}
	return students, nil
}

func (s *GroupService) checkGuide(ctx context.Context, guideID string) error {
	guide, err := s.guides.FindByID(ctx, guideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "invalid or inactive guide")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guide")
	}
	if !guide.IsActive || guide.Status != models.GuideStatusApproved {
		return appErrors.Clone(appErrors.ErrValidation, "invalid or inactive guide")
	}
	return nil
}

func (s *GroupService) checkMemberCount(count int) error {
	if count < s.academic.MinGroupSize || count > s.academic.MaxGroupSize {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("group must have %d-%d members", s.academic.MinGroupSize, s.academic.MaxGroupSize))
	}
	return nil
}

// resolveMembers turns polymorphic member references into canonical
// enrollment ids, rejecting unknown numbers, unregistered students and
// duplicates. All checks run before any write.
func (s *GroupService) resolveMembers(ctx context.Context, refs []models.MemberRef) ([]string, error) {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		var enrollment *models.Enrollment
		var err error
		switch {
		case ref.EnrollmentNumber != "":
			enrollment, err = s.enrollments.FindByNumber(ctx, ref.EnrollmentNumber)
		case ref.ID != "":
			enrollment, err = s.enrollments.FindByID(ctx, ref.ID)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid member format")
		}
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("enrollment %s not found", refLabel(ref)))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve member")
		}
		if !enrollment.IsRegistered {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not registered", enrollment.EnrollmentNumber))
		}
		if _, dup := seen[enrollment.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate members not allowed")
		}
		seen[enrollment.ID] = struct{}{}
		ids = append(ids, enrollment.ID)
	}
	return ids, nil
}

// checkMembersFree is the pre-write conflict check. It narrows the race
// window; the group_members unique index closes it.
func (s *GroupService) checkMembersFree(ctx context.Context, enrollmentIDs []string, excludeGroupID string) error {
	taken, err := s.repo.TakenEnrollments(ctx, enrollmentIDs, excludeGroupID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate member availability")
	}
	if len(taken) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "one or more students are already assigned to a group")
	}
	return nil
}

// linkGuide adds the back-reference with one retry. Failure after retry is
// logged for manual reconciliation; the group itself stays valid.
func (s *GroupService) linkGuide(ctx context.Context, guideID, groupID string) {
	err := s.guides.AddAssignedGroup(ctx, guideID, groupID)
	if err != nil {
		err = s.guides.AddAssignedGroup(ctx, guideID, groupID)
	}
	if err != nil {
		s.logger.Error("guide link pending reconciliation",
			zap.String("group_id", groupID),
			zap.String("guide_id", guideID),
			zap.Error(appErrors.Wrap(err, appErrors.ErrReconciliation.Code, appErrors.ErrReconciliation.Status, "add assigned group failed")),
		)
	}
}

func (s *GroupService) mapWriteError(err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrMemberTaken):
		return appErrors.Clone(appErrors.ErrConflict, "one or more students are already assigned to a group")
	case errors.Is(err, repository.ErrDuplicateKey):
		return appErrors.Clone(appErrors.ErrConflict, "group name already exists")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
	}
}

func refLabel(ref models.MemberRef) string {
	if ref.EnrollmentNumber != "" {
		return ref.EnrollmentNumber
	}
	return strings.TrimSpace(ref.ID)
}
