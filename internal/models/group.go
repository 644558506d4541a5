package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// GroupStatus is free-form admin-set progress, no transition graph.
type GroupStatus string

const (
	GroupStatusNotStarted GroupStatus = "Not Started"
	GroupStatusInProgress GroupStatus = "In Progress"
	GroupStatusCompleted  GroupStatus = "Completed"
)

// Group is a 3-4 student project team with one assigned guide.
type Group struct {
	ID                 string      `db:"id" json:"id"`
	Name               string      `db:"name" json:"name"`
	GuideID            string      `db:"guide_id" json:"guide_id"`
	ProjectTitle       string      `db:"project_title" json:"project_title"`
	ProjectDescription string      `db:"project_description" json:"project_description"`
	ProjectTechnology  string      `db:"project_technology" json:"project_technology"`
	Year               int         `db:"year" json:"year"`
	Status             GroupStatus `db:"status" json:"status"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// GroupMember is a member row resolved against its enrollment.
type GroupMember struct {
	EnrollmentID     string  `db:"enrollment_id" json:"enrollment_id"`
	EnrollmentNumber string  `db:"enrollment_number" json:"enrollment_number"`
	StudentName      *string `db:"student_name" json:"student_name,omitempty"`
	DivisionID       string  `db:"division_id" json:"division_id"`
	Position         int     `db:"position" json:"position"`
}

// GroupDetail is a group with its guide and member context attached.
type GroupDetail struct {
	Group
	GuideName      string        `db:"guide_name" json:"guide_name"`
	GuideEmail     string        `db:"guide_email" json:"guide_email"`
	GuideExpertise string        `db:"guide_expertise" json:"guide_expertise"`
	Members        []GroupMember `json:"members"`
}

// GroupFilter narrows group listings.
type GroupFilter struct {
	Year    int
	GuideID string
}

// AvailableStudent is a registered enrollment not currently in any group.
type AvailableStudent struct {
	EnrollmentNumber string `db:"enrollment_number" json:"enrollment_number"`
	Name             string `db:"name" json:"name"`
	ClassName        string `db:"class_name" json:"class_name"`
}

// AvailableStudentFilter narrows the cohort searched for free students.
type AvailableStudentFilter struct {
	Course   string
	Semester int
	Year     int
}

// MemberRef is a polymorphic member reference as entered by the admin UI:
// either a bare enrollment id string, or an object carrying a human-entered
// enrollment number under "enrollment" or "enrollmentNumber".
type MemberRef struct {
	ID               string
	EnrollmentNumber string
}

// UnmarshalJSON accepts both accepted wire shapes.
func (m *MemberRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		if id == "" {
			return fmt.Errorf("empty member reference")
		}
		m.ID = id
		return nil
	}

	var obj struct {
		ID               string `json:"id"`
		Enrollment       string `json:"enrollment"`
		EnrollmentNumber string `json:"enrollmentNumber"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid member format")
	}

	switch {
	case obj.Enrollment != "":
		m.EnrollmentNumber = obj.Enrollment
	case obj.EnrollmentNumber != "":
		m.EnrollmentNumber = obj.EnrollmentNumber
	case obj.ID != "":
		m.ID = obj.ID
	default:
		return fmt.Errorf("invalid member format")
	}
	return nil
}

// MarshalJSON renders the canonical form.
func (m MemberRef) MarshalJSON() ([]byte, error) {
	if m.ID != "" {
		return json.Marshal(m.ID)
	}
	return json.Marshal(struct {
		EnrollmentNumber string `json:"enrollmentNumber"`
	}{m.EnrollmentNumber})
}
