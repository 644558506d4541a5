package models

import "time"

// GuideStatus gates guide login and is exclusively admin-controlled.
type GuideStatus string

const (
	GuideStatusPending  GuideStatus = "pending"
	GuideStatusApproved GuideStatus = "approved"
	GuideStatusRejected GuideStatus = "rejected"
)

// Guide is a faculty member who can be assigned to supervise groups.
type Guide struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Expertise    string      `db:"expertise" json:"expertise"`
	Email        string      `db:"email" json:"email"`
	Phone        *string     `db:"phone" json:"phone,omitempty"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Status       GuideStatus `db:"status" json:"status"`
	IsActive     bool        `db:"is_active" json:"is_active"`
	OTPHash      *string     `db:"otp_hash" json:"-"`
	OTPExpiresAt *time.Time  `db:"otp_expires_at" json:"-"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// AssignedGroupRef is one entry of a guide's assigned-group back-reference
// cache, joined against the live groups table so dangling ids are filtered.
type AssignedGroupRef struct {
	GroupID      string `db:"group_id" json:"group_id"`
	GroupName    string `db:"group_name" json:"group_name"`
	ProjectTitle string `db:"project_title" json:"project_title"`
	Year         int    `db:"year" json:"year"`
}
