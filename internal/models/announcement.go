package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseAnnouncement is broadcast to students of the listed courses.
type CourseAnnouncement struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Date      time.Time      `db:"date" json:"date"`
	Courses   pq.StringArray `db:"courses" json:"courses"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// GuideAnnouncement is addressed to specific guides.
type GuideAnnouncement struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Date      time.Time      `db:"date" json:"date"`
	GuideIDs  pq.StringArray `db:"guide_ids" json:"guide_ids"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
