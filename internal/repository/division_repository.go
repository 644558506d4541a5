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

// DivisionRepository handles persistence of divisions.
type DivisionRepository struct {
	db *sqlx.DB
}

// NewDivisionRepository constructs the repository.
func NewDivisionRepository(db *sqlx.DB) *DivisionRepository {
	return &DivisionRepository{db: db}
}

// List returns divisions sorted by year descending, semester ascending.
func (r *DivisionRepository) List(ctx context.Context, filter models.DivisionFilter) ([]models.Division, error) {
	var conditions []string
	var args []interface{}

	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := "SELECT id, course, semester, year, status, created_at, updated_at FROM divisions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY year DESC, semester ASC"

	var divisions []models.Division
	if err := r.db.SelectContext(ctx, &divisions, query, args...); err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	return divisions, nil
}

// FindByID returns a division by its ID.
func (r *DivisionRepository) FindByID(ctx context.Context, id string) (*models.Division, error) {
	const query = `SELECT id, course, semester, year, status, created_at, updated_at FROM divisions WHERE id = $1`
	var division models.Division
	if err := r.db.GetContext(ctx, &division, query, id); err != nil {
		return nil, err
	}
	return &division, nil
}

// ExistsKey reports whether a (course, semester, year) combination exists.
func (r *DivisionRepository) ExistsKey(ctx context.Context, course string, semester, year int) (bool, error) {
	const query = `SELECT 1 FROM divisions WHERE course = $1 AND semester = $2 AND year = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, course, semester, year); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check division key: %w", err)
	}
	return true, nil
}

// Create persists a new division.
func (r *DivisionRepository) Create(ctx context.Context, division *models.Division) error {
	if division.ID == "" {
		division.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	division.CreatedAt = now
	division.UpdatedAt = now

	const query = `INSERT INTO divisions (id, course, semester, year, status, created_at, updated_at)
        VALUES (:id, :course, :semester, :year, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, division); err != nil {
		return fmt.Errorf("create division: %w", translateConstraint(err))
	}
	return nil
}

// UpdateStatus sets the status of a division.
func (r *DivisionRepository) UpdateStatus(ctx context.Context, id string, status models.DivisionStatus) error {
	const query = `UPDATE divisions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update division status: %w", err)
	}
	return nil
}

// Delete removes a division, reporting whether a row was deleted.
func (r *DivisionRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM divisions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete division: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete division result: %w", err)
	}
	return affected > 0, nil
}
