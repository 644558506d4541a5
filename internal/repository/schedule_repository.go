package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

// ScheduleRepository handles exam and submission schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules filtered by course, soonest date first.
func (r *ScheduleRepository) List(ctx context.Context, course string) ([]models.ExamSchedule, error) {
	query := `SELECT id, course, type, description, date, time, created_at, updated_at FROM exam_schedules`
	var args []interface{}
	if course != "" {
		query += ` WHERE course = $1`
		args = append(args, course)
	}
	query += ` ORDER BY date ASC`

	var schedules []models.ExamSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// Create persists a schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.ExamSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const query = `INSERT INTO exam_schedules (id, course, type, description, date, time, created_at, updated_at)
        VALUES (:id, :course, :type, :description, :date, :time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update merges a schedule entry, reporting whether a row changed.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.ExamSchedule) (bool, error) {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_schedules SET course = :course, type = :type, description = :description,
        date = :date, time = :time, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, schedule)
	if err != nil {
		return false, fmt.Errorf("update schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update schedule result: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a schedule entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM exam_schedules WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete schedule result: %w", err)
	}
	return affected > 0, nil
}
