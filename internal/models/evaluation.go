package models

import "time"

// EvaluationParameter is an admin-defined rubric entry.
type EvaluationParameter struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Marks       float64   `db:"marks" json:"marks"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectEvaluation is the unique (project, parameter) mark record.
type ProjectEvaluation struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	ParameterID string    `db:"parameter_id" json:"parameter_id"`
	GivenMarks  *float64  `db:"given_marks" json:"given_marks"`
	EvaluatedBy string    `db:"evaluated_by" json:"evaluated_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectEvaluationDetail carries denormalized display fields.
type ProjectEvaluationDetail struct {
	ProjectEvaluation
	ParameterName        string  `db:"parameter_name" json:"parameter_name"`
	ParameterDescription string  `db:"parameter_description" json:"parameter_description"`
	ParameterMarks       float64 `db:"parameter_marks" json:"parameter_marks"`
	GroupName            string  `db:"group_name" json:"group_name"`
	ProjectTitle         string  `db:"project_title" json:"project_title"`
	EvaluatorName        string  `db:"evaluator_name" json:"evaluator_name"`
}
