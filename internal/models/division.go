package models

import (
	"strings"
	"time"
)

// DivisionStatus is stored lowercase and presented capitalized.
type DivisionStatus string

const (
	DivisionStatusActive   DivisionStatus = "active"
	DivisionStatusInactive DivisionStatus = "inactive"
)

// Division is a (course, semester, year) class section.
type Division struct {
	ID        string         `db:"id" json:"id"`
	Course    string         `db:"course" json:"course"`
	Semester  int            `db:"semester" json:"semester"`
	Year      int            `db:"year" json:"year"`
	Status    DivisionStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// DisplayStatus returns the capitalized presentation of the stored status.
func (d Division) DisplayStatus() string {
	if d.Status == "" {
		return ""
	}
	s := string(d.Status)
	return strings.ToUpper(s[:1]) + s[1:]
}

// DivisionFilter narrows division listings.
type DivisionFilter struct {
	Course string
	Status DivisionStatus
}
