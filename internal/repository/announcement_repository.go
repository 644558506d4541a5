package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

// AnnouncementRepository handles course and guide announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// ListCourse returns all course announcements, newest date first.
func (r *AnnouncementRepository) ListCourse(ctx context.Context) ([]models.CourseAnnouncement, error) {
	const query = `SELECT id, title, message, date, courses, created_at, updated_at
        FROM course_announcements ORDER BY date DESC`
	var items []models.CourseAnnouncement
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list course announcements: %w", err)
	}
	return items, nil
}

// CreateCourse persists a course announcement.
func (r *AnnouncementRepository) CreateCourse(ctx context.Context, a *models.CourseAnnouncement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	const query = `INSERT INTO course_announcements (id, title, message, date, courses, created_at, updated_at)
        VALUES (:id, :title, :message, :date, :courses, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create course announcement: %w", err)
	}
	return nil
}

// UpdateCourse merges a course announcement, reporting whether a row changed.
func (r *AnnouncementRepository) UpdateCourse(ctx context.Context, a *models.CourseAnnouncement) (bool, error) {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_announcements SET title = :title, message = :message, date = :date,
        courses = :courses, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return false, fmt.Errorf("update course announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update course announcement result: %w", err)
	}
	return affected > 0, nil
}

// DeleteCourse removes a course announcement.
func (r *AnnouncementRepository) DeleteCourse(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM course_announcements WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete course announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course announcement result: %w", err)
	}
	return affected > 0, nil
}

// ListGuide returns all guide announcements, newest date first.
func (r *AnnouncementRepository) ListGuide(ctx context.Context) ([]models.GuideAnnouncement, error) {
	const query = `SELECT id, title, message, date, guide_ids, created_at, updated_at
        FROM guide_announcements ORDER BY date DESC`
	var items []models.GuideAnnouncement
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list guide announcements: %w", err)
	}
	return items, nil
}

// CreateGuide persists a guide announcement.
func (r *AnnouncementRepository) CreateGuide(ctx context.Context, a *models.GuideAnnouncement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	const query = `INSERT INTO guide_announcements (id, title, message, date, guide_ids, created_at, updated_at)
        VALUES (:id, :title, :message, :date, :guide_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create guide announcement: %w", err)
	}
	return nil
}

// UpdateGuide merges a guide announcement, reporting whether a row changed.
func (r *AnnouncementRepository) UpdateGuide(ctx context.Context, a *models.GuideAnnouncement) (bool, error) {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE guide_announcements SET title = :title, message = :message, date = :date,
        guide_ids = :guide_ids, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return false, fmt.Errorf("update guide announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update guide announcement result: %w", err)
	}
	return affected > 0, nil
}

// DeleteGuide removes a guide announcement.
func (r *AnnouncementRepository) DeleteGuide(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM guide_announcements WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete guide announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete guide announcement result: %w", err)
	}
	return affected > 0, nil
}
