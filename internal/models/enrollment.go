package models

import "time"

// Enrollment is a roster slot within a division. A slot with
// IsRegistered=true and a student name is occupied by a real student;
// otherwise it is a placeholder number reserved by range generation.
type Enrollment struct {
	ID               string    `db:"id" json:"id"`
	DivisionID       string    `db:"division_id" json:"division_id"`
	EnrollmentNumber string    `db:"enrollment_number" json:"enrollment_number"`
	IsRegistered     bool      `db:"is_registered" json:"is_registered"`
	StudentName      *string   `db:"student_name" json:"student_name,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with its division context.
type EnrollmentDetail struct {
	Enrollment
	Course   string `db:"course" json:"course"`
	Semester int    `db:"semester" json:"semester"`
	Year     int    `db:"year" json:"year"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	DivisionID string
	Registered *bool
}

// GenerateEnrollmentsResult reports a bulk range generation.
type GenerateEnrollmentsResult struct {
	InsertedCount int          `json:"inserted_count"`
	Inserted      []Enrollment `json:"inserted"`
	SkippedCount  int          `json:"skipped_count"`
}
