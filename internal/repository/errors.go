package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced when a storage-level constraint resolves a race
// the application-level checks could not close.
var (
	// ErrDuplicateKey reports a unique-constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrMemberTaken reports that an enrollment is already a member of
	// another group (the group_members unique index fired).
	ErrMemberTaken = errors.New("enrollment already assigned to a group")
	// ErrRowReferenced reports a foreign-key violation: the row is still
	// referenced by dependent records.
	ErrRowReferenced = errors.New("row referenced by dependent records")
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

const memberUniqueConstraint = "group_members_enrollment_id_key"

// translateConstraint converts lib/pq constraint violations into sentinel
// errors, leaving other errors untouched.
func translateConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		if pqErr.Constraint == memberUniqueConstraint {
			return ErrMemberTaken
		}
		return ErrDuplicateKey
	case foreignKeyViolation:
		return ErrRowReferenced
	}
	return err
}
