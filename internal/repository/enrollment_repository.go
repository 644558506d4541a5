package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollment roster slots.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.division_id, e.enrollment_number, e.is_registered, e.student_name,
        e.created_at, e.updated_at, d.course, d.semester, d.year`

// List returns enrollments with division context.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.DivisionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.division_id = $%d", len(args)+1))
		args = append(args, filter.DivisionID)
	}
	if filter.Registered != nil {
		conditions = append(conditions, fmt.Sprintf("e.is_registered = $%d", len(args)+1))
		args = append(args, *filter.Registered)
	}

	query := fmt.Sprintf(`SELECT %s FROM enrollments e JOIN divisions d ON d.id = e.division_id`, enrollmentDetailColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.enrollment_number ASC"

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, division_id, enrollment_number, is_registered, student_name, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByNumber returns an enrollment by its human-entered number.
func (r *EnrollmentRepository) FindByNumber(ctx context.Context, number string) (*models.Enrollment, error) {
	const query = `SELECT id, division_id, enrollment_number, is_registered, student_name, created_at, updated_at
        FROM enrollments WHERE enrollment_number = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, number); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsNumber reports whether an enrollment number exists anywhere.
func (r *EnrollmentRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE enrollment_number = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, number); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment number: %w", err)
	}
	return true, nil
}

// FilterExistingNumbers returns the subset of the given numbers that are
// already present, as a set.
func (r *EnrollmentRepository) FilterExistingNumbers(ctx context.Context, numbers []string) (map[string]bool, error) {
	if len(numbers) == 0 {
		return map[string]bool{}, nil
	}
	const chunkSize = 100
	existing := make(map[string]bool, len(numbers))
	for start := 0; start < len(numbers); start += chunkSize {
		end := start + chunkSize
		if end > len(numbers) {
			end = len(numbers)
		}
		chunk := numbers[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, n := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = n
		}
		query := fmt.Sprintf("SELECT enrollment_number FROM enrollments WHERE enrollment_number IN (%s)", strings.Join(placeholders, ","))
		rows, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("filter enrollment numbers: %w", err)
		}
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan enrollment number: %w", err)
			}
			existing[n] = true
		}
		rows.Close()
		// A mid-iteration failure would silently shrink the set and let
		// callers attempt inserts doomed on the unique index.
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("filter enrollment numbers: %w", err)
		}
	}
	return existing, nil
}

// Create persists a new enrollment slot.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, division_id, enrollment_number, is_registered, student_name, created_at, updated_at)
        VALUES (:id, :division_id, :enrollment_number, :is_registered, :student_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", translateConstraint(err))
	}
	return nil
}

// CreateBatch inserts the given slots in one transaction.
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, enrollments []models.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment batch tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO enrollments (id, division_id, enrollment_number, is_registered, student_name, created_at, updated_at)
        VALUES (:id, :division_id, :enrollment_number, :is_registered, :student_name, :created_at, :updated_at)`
	for i := range enrollments {
		if _, err = tx.NamedExecContext(ctx, query, &enrollments[i]); err != nil {
			return fmt.Errorf("insert enrollment %s: %w", enrollments[i].EnrollmentNumber, translateConstraint(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment batch tx: %w", err)
	}
	return nil
}

// Delete removes one enrollment, reporting whether a row was deleted. A
// slot still held in a group trips the group_members foreign key and
// surfaces ErrRowReferenced.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM enrollments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", translateConstraint(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment result: %w", err)
	}
	return affected > 0, nil
}

// DeleteByDivision removes every enrollment of a division, returning the count.
func (r *EnrollmentRepository) DeleteByDivision(ctx context.Context, divisionID string) (int64, error) {
	const query = `DELETE FROM enrollments WHERE division_id = $1`
	res, err := r.db.ExecContext(ctx, query, divisionID)
	if err != nil {
		return 0, fmt.Errorf("delete division enrollments: %w", translateConstraint(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete division enrollments result: %w", err)
	}
	return affected, nil
}
