package models

import "time"

// ScheduleType distinguishes exams from submission deadlines.
type ScheduleType string

const (
	ScheduleTypeExam       ScheduleType = "Exam"
	ScheduleTypeSubmission ScheduleType = "Submission"
)

// ExamSchedule is a dated exam or submission entry for a course.
type ExamSchedule struct {
	ID          string       `db:"id" json:"id"`
	Course      string       `db:"course" json:"course"`
	Type        ScheduleType `db:"type" json:"type"`
	Description string       `db:"description" json:"description"`
	Date        time.Time    `db:"date" json:"date"`
	Time        string       `db:"time" json:"time"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
