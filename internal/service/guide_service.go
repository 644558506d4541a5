package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/repository"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/mailer"
)

const activeGuidesCacheKey = "dropdown:guides:active"

type guideRepository interface {
	List(ctx context.Context) ([]models.Guide, error)
	ListActive(ctx context.Context) ([]models.Guide, error)
	FindByID(ctx context.Context, id string) (*models.Guide, error)
	FindByEmail(ctx context.Context, email string) (*models.Guide, error)
	Create(ctx context.Context, guide *models.Guide) error
	Update(ctx context.Context, guide *models.Guide) error
	UpdateStatus(ctx context.Context, id string, status models.GuideStatus) error
	UpdateAvailability(ctx context.Context, id string, isActive bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) (bool, error)
	CountGroups(ctx context.Context, id string) (int, error)
	AssignedGroups(ctx context.Context, guideID string) ([]models.AssignedGroupRef, error)
}

type dropdownCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// RegisterGuideRequest is the guide self-signup payload.
type RegisterGuideRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Expertise string  `json:"expertise" validate:"required,max=200"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone,omitempty"`
	Password  string  `json:"password" validate:"required,min=6"`
}

// UpdateGuideRequest is the admin partial-update payload.
type UpdateGuideRequest struct {
	Name      *string `json:"name,omitempty"`
	Expertise *string `json:"expertise,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// GuideService manages guide accounts, approval state and the
// assigned-groups back-reference reads.
type GuideService struct {
	repo      guideRepository
	cache     dropdownCache
	tokens    *TokenService
	mail      mailer.Mailer
	mailCfg   config.MailConfig
	cacheCfg  config.CacheConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuideService constructs GuideService.
func NewGuideService(repo guideRepository, cache dropdownCache, tokens *TokenService, mail mailer.Mailer, mailCfg config.MailConfig, cacheCfg config.CacheConfig, validate *validator.Validate, logger *zap.Logger) *GuideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailCfg.OTPTTL == 0 {
		mailCfg.OTPTTL = 15 * time.Minute
	}
	return &GuideService{
		repo:      repo,
		cache:     cache,
		tokens:    tokens,
		mail:      mail,
		mailCfg:   mailCfg,
		cacheCfg:  cacheCfg,
		validator: validate,
		logger:    logger,
	}
}

// Register creates a pending guide account from self-signup.
func (s *GuideService) Register(ctx context.Context, req RegisterGuideRequest) (*models.Guide, error) {
	return s.create(ctx, req, models.GuideStatusPending)
}

// CreateByAdmin creates a guide that is approved immediately.
func (s *GuideService) CreateByAdmin(ctx context.Context, req RegisterGuideRequest) (*models.Guide, error) {
	guide, err := s.create(ctx, req, models.GuideStatusApproved)
	if err != nil {
		return nil, err
	}
	s.invalidateDropdown(ctx)
	return guide, nil
}

func (s *GuideService) create(ctx context.Context, req RegisterGuideRequest, status models.GuideStatus) (*models.Guide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guide payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	guide := &models.Guide{
		Name:         req.Name,
		Expertise:    req.Expertise,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Status:       status,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, guide); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create guide")
	}

	s.logger.Info("guide created",
		zap.String("guide_id", guide.ID),
		zap.String("email", guide.Email),
		zap.String("status", string(status)),
	)
	return guide, nil
}

// Login verifies credentials and the approval gate, then issues a GUIDE
// token.
func (s *GuideService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	guide, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guide")
	}
	if bcrypt.CompareHashAndPassword([]byte(guide.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if guide.Status != models.GuideStatusApproved {
		return nil, appErrors.ErrNotApproved
	}

	token, issued, err := s.tokens.Issue(guide.ID, models.RoleGuide, guide.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.Expiration().Seconds()),
		IssuedAt:  issued,
		Actor: models.ActorInfo{
			ID:       guide.ID,
			Email:    guide.Email,
			Name:     guide.Name,
			Role:     models.RoleGuide,
			IsActive: guide.IsActive,
		},
	}, nil
}

// List returns all guides for the admin console.
func (s *GuideService) List(ctx context.Context) ([]models.Guide, error) {
	guides, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guides")
	}
	return guides, nil
}

// ListActive returns approved, available guides for assignment dropdowns,
// read through the cache when enabled.
func (s *GuideService) ListActive(ctx context.Context) ([]models.Guide, error) {
	if s.cacheEnabled() {
		var cached []models.Guide
		if err := s.cache.Get(ctx, activeGuidesCacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dropdown cache read failed", zap.Error(err))
		}
	}

	guides, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active guides")
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, activeGuidesCacheKey, guides, s.cacheCfg.TTL); err != nil {
			s.logger.Warn("dropdown cache write failed", zap.Error(err))
		}
	}
	return guides, nil
}

// Get returns one guide.
func (s *GuideService) Get(ctx context.Context, id string) (*models.Guide, error) {
	guide, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guide")
	}
	return guide, nil
}

// Update applies an admin partial update to guide profile fields.
func (s *GuideService) Update(ctx context.Context, id string, req UpdateGuideRequest) (*models.Guide, error) {
	guide, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		guide.Name = *req.Name
	}
	if req.Expertise != nil {
		guide.Expertise = *req.Expertise
	}
	if req.Phone != nil {
		guide.Phone = req.Phone
	}
	if err := s.repo.Update(ctx, guide); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guide")
	}
	s.invalidateDropdown(ctx)
	return guide, nil
}

// SetStatus moves a guide between pending/approved/rejected.
func (s *GuideService) SetStatus(ctx context.Context, id string, status models.GuideStatus) (*models.Guide, error) {
	switch status {
	case models.GuideStatusPending, models.GuideStatusApproved, models.GuideStatusRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be pending, approved or rejected")
	}

	guide, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guide status")
	}
	guide.Status = status
	s.invalidateDropdown(ctx)
	return guide, nil
}

// SetAvailability toggles whether the guide accepts new groups. Guides can
// change their own flag; anything else requires the admin role.
func (s *GuideService) SetAvailability(ctx context.Context, actor models.ActorInfo, id string, isActive bool) (*models.Guide, error) {
	if actor.Role != models.RoleAdmin && actor.ID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change another guide's availability")
	}

	guide, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvailability(ctx, id, isActive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guide availability")
	}
	guide.IsActive = isActive
	s.invalidateDropdown(ctx)
	return guide, nil
}

// Delete removes a guide. Deletion is blocked while live groups still
// reference the guide; the check reads the groups table, not the
// back-reference cache, so dangling cache rows cannot block it.
func (s *GuideService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	assigned, err := s.repo.CountGroups(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assigned groups")
	}
	if assigned > 0 {
		return appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("guide still supervises %d group(s); reassign them first", assigned))
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete guide")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "guide not found")
	}
	s.invalidateDropdown(ctx)
	return nil
}

// AssignedGroups returns the guide's live assigned groups.
func (s *GuideService) AssignedGroups(ctx context.Context, id string) ([]models.AssignedGroupRef, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	refs, err := s.repo.AssignedGroups(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned groups")
	}
	return refs, nil
}

// ChangePassword rotates a guide's password after verifying the old one.
func (s *GuideService) ChangePassword(ctx context.Context, guideID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}

	guide, err := s.Get(ctx, guideID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(guide.PasswordHash), []byte(req.OldPassword)) != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, guideID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// ForgotPassword generates a 6-digit OTP, stores its hash with an expiry
// and mails the code. The response to the caller is identical whether or
// not the email exists.
func (s *GuideService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	guide, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Do not reveal whether the address is registered.
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guide")
	}

	otp, err := generateOTP()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate OTP")
	}
	otpHash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash OTP")
	}

	expiresAt := time.Now().Add(s.mailCfg.OTPTTL)
	if err := s.repo.SetOTP(ctx, guide.ID, string(otpHash), expiresAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store OTP")
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
		otp, int(s.mailCfg.OTPTTL.Minutes()))
	if err := s.mail.Send(ctx, guide.Name, guide.Email, "Password reset code", body); err != nil {
		s.logger.Error("OTP mail delivery failed", zap.String("guide_id", guide.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send reset code")
	}

	s.logger.Info("password reset OTP issued", zap.String("guide_id", guide.ID))
	return nil
}

// ResetPassword completes the OTP flow.
func (s *GuideService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	guide, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "invalid or expired reset code")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guide")
	}

	if guide.OTPHash == nil || guide.OTPExpiresAt == nil || time.Now().After(*guide.OTPExpiresAt) {
		return appErrors.Clone(appErrors.ErrValidation, "invalid or expired reset code")
	}
	if bcrypt.CompareHashAndPassword([]byte(*guide.OTPHash), []byte(req.OTP)) != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid or expired reset code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, guide.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	if err := s.repo.ClearOTP(ctx, guide.ID); err != nil {
		s.logger.Warn("failed to clear used OTP", zap.String("guide_id", guide.ID), zap.Error(err))
	}

	s.logger.Info("guide password reset", zap.String("guide_id", guide.ID))
	return nil
}

func (s *GuideService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func (s *GuideService) invalidateDropdown(ctx context.Context) {
	if s.cacheEnabled() {
		s.cache.Delete(ctx, activeGuidesCacheKey)
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
