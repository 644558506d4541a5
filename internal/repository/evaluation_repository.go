package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

// EvaluationRepository handles rubric parameters and per-project marks.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// ListParameters returns all rubric parameters, newest first.
func (r *EvaluationRepository) ListParameters(ctx context.Context) ([]models.EvaluationParameter, error) {
	const query = `SELECT id, name, description, marks, created_at, updated_at
        FROM evaluation_parameters ORDER BY created_at DESC`
	var params []models.EvaluationParameter
	if err := r.db.SelectContext(ctx, &params, query); err != nil {
		return nil, fmt.Errorf("list evaluation parameters: %w", err)
	}
	return params, nil
}

// FindParameterByID returns one rubric parameter.
func (r *EvaluationRepository) FindParameterByID(ctx context.Context, id string) (*models.EvaluationParameter, error) {
	const query = `SELECT id, name, description, marks, created_at, updated_at
        FROM evaluation_parameters WHERE id = $1`
	var param models.EvaluationParameter
	if err := r.db.GetContext(ctx, &param, query, id); err != nil {
		return nil, err
	}
	return &param, nil
}

// CreateParameter persists a new rubric parameter.
func (r *EvaluationRepository) CreateParameter(ctx context.Context, param *models.EvaluationParameter) error {
	if param.ID == "" {
		param.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	param.CreatedAt = now
	param.UpdatedAt = now

	const query = `INSERT INTO evaluation_parameters (id, name, description, marks, created_at, updated_at)
        VALUES (:id, :name, :description, :marks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, param); err != nil {
		return fmt.Errorf("create evaluation parameter: %w", translateConstraint(err))
	}
	return nil
}

// UpdateParameter merges rubric parameter fields.
func (r *EvaluationRepository) UpdateParameter(ctx context.Context, param *models.EvaluationParameter) error {
	param.UpdatedAt = time.Now().UTC()
	const query = `UPDATE evaluation_parameters SET name = :name, description = :description,
        marks = :marks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, param); err != nil {
		return fmt.Errorf("update evaluation parameter: %w", translateConstraint(err))
	}
	return nil
}

// DeleteParameter removes a rubric parameter, reporting whether a row went.
func (r *EvaluationRepository) DeleteParameter(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM evaluation_parameters WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete evaluation parameter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete evaluation parameter result: %w", err)
	}
	return affected > 0, nil
}

// UpsertMark creates or overwrites the unique (project, parameter) record.
// Last writer wins; the operation is idempotent by construction.
func (r *EvaluationRepository) UpsertMark(ctx context.Context, eval *models.ProjectEvaluation) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	eval.CreatedAt = now
	eval.UpdatedAt = now

	const query = `INSERT INTO project_evaluations (id, project_id, parameter_id, given_marks, evaluated_by, created_at, updated_at)
        VALUES (:id, :project_id, :parameter_id, :given_marks, :evaluated_by, :created_at, :updated_at)
        ON CONFLICT (project_id, parameter_id) DO UPDATE
        SET given_marks = EXCLUDED.given_marks, evaluated_by = EXCLUDED.evaluated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, eval); err != nil {
		return fmt.Errorf("upsert project evaluation: %w", err)
	}
	return nil
}

// FindMark returns the evaluation detail for a (project, parameter) pair.
func (r *EvaluationRepository) FindMark(ctx context.Context, projectID, parameterID string) (*models.ProjectEvaluationDetail, error) {
	query := evaluationDetailQuery + ` WHERE pe.project_id = $1 AND pe.parameter_id = $2`
	var detail models.ProjectEvaluationDetail
	if err := r.db.GetContext(ctx, &detail, query, projectID, parameterID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByProject returns all marks recorded for one project.
func (r *EvaluationRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProjectEvaluationDetail, error) {
	query := evaluationDetailQuery + ` WHERE pe.project_id = $1 ORDER BY p.name ASC`
	var details []models.ProjectEvaluationDetail
	if err := r.db.SelectContext(ctx, &details, query, projectID); err != nil {
		return nil, fmt.Errorf("list project evaluations: %w", err)
	}
	return details, nil
}

// ListAll returns all recorded marks.
func (r *EvaluationRepository) ListAll(ctx context.Context) ([]models.ProjectEvaluationDetail, error) {
	query := evaluationDetailQuery + ` ORDER BY g.name ASC, p.name ASC`
	var details []models.ProjectEvaluationDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list all evaluations: %w", err)
	}
	return details, nil
}

const evaluationDetailQuery = `SELECT pe.id, pe.project_id, pe.parameter_id, pe.given_marks, pe.evaluated_by,
        pe.created_at, pe.updated_at,
        p.name AS parameter_name, p.description AS parameter_description, p.marks AS parameter_marks,
        g.name AS group_name, g.project_title,
        COALESCE(a.name, '') AS evaluator_name
        FROM project_evaluations pe
        JOIN evaluation_parameters p ON p.id = pe.parameter_id
        JOIN groups g ON g.id = pe.project_id
        LEFT JOIN admins a ON a.id = pe.evaluated_by`
