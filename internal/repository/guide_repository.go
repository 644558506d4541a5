package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

// GuideRepository handles persistence of guide accounts and their
// assigned-group back-reference cache.
type GuideRepository struct {
	db *sqlx.DB
}

// NewGuideRepository constructs the repository.
func NewGuideRepository(db *sqlx.DB) *GuideRepository {
	return &GuideRepository{db: db}
}

const guideColumns = `id, name, expertise, email, phone, password_hash, status, is_active,
        otp_hash, otp_expires_at, created_at, updated_at`

// List returns all guides.
func (r *GuideRepository) List(ctx context.Context) ([]models.Guide, error) {
	query := fmt.Sprintf(`SELECT %s FROM guides ORDER BY name ASC`, guideColumns)
	var guides []models.Guide
	if err := r.db.SelectContext(ctx, &guides, query); err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	return guides, nil
}

// ListActive returns approved, available guides for assignment dropdowns.
func (r *GuideRepository) ListActive(ctx context.Context) ([]models.Guide, error) {
	query := fmt.Sprintf(`SELECT %s FROM guides WHERE status = $1 AND is_active = TRUE ORDER BY name ASC`, guideColumns)
	var guides []models.Guide
	if err := r.db.SelectContext(ctx, &guides, query, models.GuideStatusApproved); err != nil {
		return nil, fmt.Errorf("list active guides: %w", err)
	}
	return guides, nil
}

// FindByID returns a guide by its ID.
func (r *GuideRepository) FindByID(ctx context.Context, id string) (*models.Guide, error) {
	query := fmt.Sprintf(`SELECT %s FROM guides WHERE id = $1`, guideColumns)
	var guide models.Guide
	if err := r.db.GetContext(ctx, &guide, query, id); err != nil {
		return nil, err
	}
	return &guide, nil
}

// FindByEmail returns a guide by email.
func (r *GuideRepository) FindByEmail(ctx context.Context, email string) (*models.Guide, error) {
	query := fmt.Sprintf(`SELECT %s FROM guides WHERE email = $1`, guideColumns)
	var guide models.Guide
	if err := r.db.GetContext(ctx, &guide, query, email); err != nil {
		return nil, err
	}
	return &guide, nil
}

// Create persists a new guide account.
func (r *GuideRepository) Create(ctx context.Context, guide *models.Guide) error {
	if guide.ID == "" {
		guide.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	guide.CreatedAt = now
	guide.UpdatedAt = now

	const query = `INSERT INTO guides (id, name, expertise, email, phone, password_hash, status, is_active, created_at, updated_at)
        VALUES (:id, :name, :expertise, :email, :phone, :password_hash, :status, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, guide); err != nil {
		return fmt.Errorf("create guide: %w", translateConstraint(err))
	}
	return nil
}

// Update merges mutable profile fields.
func (r *GuideRepository) Update(ctx context.Context, guide *models.Guide) error {
	guide.UpdatedAt = time.Now().UTC()
	const query = `UPDATE guides SET name = :name, expertise = :expertise, email = :email, phone = :phone,
        status = :status, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, guide); err != nil {
		return fmt.Errorf("update guide: %w", translateConstraint(err))
	}
	return nil
}

// UpdateStatus sets the admin-controlled approval status.
func (r *GuideRepository) UpdateStatus(ctx context.Context, id string, status models.GuideStatus) error {
	const query = `UPDATE guides SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update guide status: %w", err)
	}
	return nil
}

// UpdateAvailability sets the guide-controlled availability flag.
func (r *GuideRepository) UpdateAvailability(ctx context.Context, id string, isActive bool) error {
	const query = `UPDATE guides SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, isActive, time.Now().UTC()); err != nil {
		return fmt.Errorf("update guide availability: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *GuideRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE guides SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update guide password: %w", err)
	}
	return nil
}

// SetOTP stores a hashed reset OTP with its expiry.
func (r *GuideRepository) SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	const query = `UPDATE guides SET otp_hash = $2, otp_expires_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, otpHash, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("set guide otp: %w", err)
	}
	return nil
}

// ClearOTP removes any stored reset OTP.
func (r *GuideRepository) ClearOTP(ctx context.Context, id string) error {
	const query = `UPDATE guides SET otp_hash = NULL, otp_expires_at = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear guide otp: %w", err)
	}
	return nil
}

// Delete removes a guide, reporting whether a row was deleted.
func (r *GuideRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM guides WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete guide: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete guide result: %w", err)
	}
	return affected > 0, nil
}

// CountGroups counts live groups supervised by the guide. This reads the
// groups table, not the back-reference cache, so dangling cache rows do not
// block guide deletion.
func (r *GuideRepository) CountGroups(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM groups WHERE guide_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count guide groups: %w", err)
	}
	return count, nil
}

// AddAssignedGroup records a guide -> group link. Idempotent: adding an
// existing link is a no-op so retries after partial failure are safe.
func (r *GuideRepository) AddAssignedGroup(ctx context.Context, guideID, groupID string) error {
	const query = `INSERT INTO guide_assigned_groups (guide_id, group_id) VALUES ($1, $2)
        ON CONFLICT (guide_id, group_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, guideID, groupID); err != nil {
		return fmt.Errorf("add assigned group: %w", err)
	}
	return nil
}

// RemoveAssignedGroup drops a guide -> group link. Idempotent: removing a
// missing link is a no-op.
func (r *GuideRepository) RemoveAssignedGroup(ctx context.Context, guideID, groupID string) error {
	const query = `DELETE FROM guide_assigned_groups WHERE guide_id = $1 AND group_id = $2`
	if _, err := r.db.ExecContext(ctx, query, guideID, groupID); err != nil {
		return fmt.Errorf("remove assigned group: %w", err)
	}
	return nil
}

// AssignedGroups resolves the back-reference cache against live groups.
// The inner join silently drops dangling ids left by failed unlink steps.
func (r *GuideRepository) AssignedGroups(ctx context.Context, guideID string) ([]models.AssignedGroupRef, error) {
	const query = `SELECT g.id AS group_id, g.name AS group_name, g.project_title, g.year
        FROM guide_assigned_groups gag
        JOIN groups g ON g.id = gag.group_id
        WHERE gag.guide_id = $1
        ORDER BY g.name ASC`
	var refs []models.AssignedGroupRef
	if err := r.db.SelectContext(ctx, &refs, query, guideID); err != nil {
		return nil, fmt.Errorf("list assigned groups: %w", err)
	}
	return refs, nil
}
