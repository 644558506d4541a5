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

// GroupRepository handles persistence of project groups and their member
// association rows. The group_members unique index on enrollment_id is the
// storage-level arbiter of the one-group-per-student invariant; writes that
// lose a race surface ErrMemberTaken and roll back.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupDetailColumns = `g.id, g.name, g.guide_id, g.project_title, g.project_description,
        g.project_technology, g.year, g.status, g.created_at, g.updated_at,
        COALESCE(gu.name, '') AS guide_name, COALESCE(gu.email, '') AS guide_email,
        COALESCE(gu.expertise, '') AS guide_expertise`

// List returns groups with guide context, newest first.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("g.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.GuideID != "" {
		conditions = append(conditions, fmt.Sprintf("g.guide_id = $%d", len(args)+1))
		args = append(args, filter.GuideID)
	}

	query := fmt.Sprintf(`SELECT %s FROM groups g LEFT JOIN guides gu ON gu.id = g.guide_id`, groupDetailColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY g.created_at DESC"

	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID returns the bare group row.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name, guide_id, project_title, project_description, project_technology,
        year, status, created_at, updated_at FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindDetailByID returns a group with guide context. A deleted guide leaves
// the guide columns empty rather than failing the read.
func (r *GroupRepository) FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error) {
	const query = `SELECT g.id, g.name, g.guide_id, g.project_title, g.project_description,
        g.project_technology, g.year, g.status, g.created_at, g.updated_at,
        COALESCE(gu.name, '') AS guide_name, COALESCE(gu.email, '') AS guide_email,
        COALESCE(gu.expertise, '') AS guide_expertise
        FROM groups g LEFT JOIN guides gu ON gu.id = g.guide_id WHERE g.id = $1`
	var detail models.GroupDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListMembers returns the member rows of a group in stored order.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	const query = `SELECT gm.enrollment_id, e.enrollment_number, e.student_name, e.division_id, gm.position
        FROM group_members gm
        JOIN enrollments e ON e.id = gm.enrollment_id
        WHERE gm.group_id = $1
        ORDER BY gm.position ASC`
	var members []models.GroupMember
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// ExistsName reports whether a group name is taken by another group.
func (r *GroupRepository) ExistsName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT 1 FROM groups WHERE name = $1`
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// TakenEnrollments returns, for the given enrollment ids, those already held
// by some other group (the group identified by excludeGroupID is ignored).
func (r *GroupRepository) TakenEnrollments(ctx context.Context, enrollmentIDs []string, excludeGroupID string) ([]string, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(enrollmentIDs))
	args := make([]interface{}, 0, len(enrollmentIDs)+1)
	for i, id := range enrollmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT gm.enrollment_id FROM group_members gm WHERE gm.enrollment_id IN (%s)`, strings.Join(placeholders, ","))
	if excludeGroupID != "" {
		args = append(args, excludeGroupID)
		query += fmt.Sprintf(" AND gm.group_id <> $%d", len(args))
	}

	var taken []string
	if err := r.db.SelectContext(ctx, &taken, query, args...); err != nil {
		return nil, fmt.Errorf("check taken enrollments: %w", err)
	}
	return taken, nil
}

// CreateWithMembers inserts the group and its member rows in one
// transaction. Losing a concurrent race on any member's unique index rolls
// the whole insert back and returns ErrMemberTaken.
func (r *GroupRepository) CreateWithMembers(ctx context.Context, group *models.Group, enrollmentIDs []string) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	if group.Status == "" {
		group.Status = models.GroupStatusNotStarted
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create group tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertGroup = `INSERT INTO groups (id, name, guide_id, project_title, project_description,
        project_technology, year, status, created_at, updated_at)
        VALUES (:id, :name, :guide_id, :project_title, :project_description,
        :project_technology, :year, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertGroup, group); err != nil {
		err = fmt.Errorf("insert group: %w", translateConstraint(err))
		return err
	}

	if err = insertMembers(ctx, tx, group.ID, enrollmentIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create group tx: %w", err)
	}
	return nil
}

// Update merges mutable group fields.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, guide_id = :guide_id, project_title = :project_title,
        project_description = :project_description, project_technology = :project_technology,
        year = :year, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", translateConstraint(err))
	}
	return nil
}

// ReplaceMembers swaps the full member set of a group in one transaction.
func (r *GroupRepository) ReplaceMembers(ctx context.Context, groupID string, enrollmentIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace members tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		err = fmt.Errorf("clear group members: %w", err)
		return err
	}

	if err = insertMembers(ctx, tx, groupID, enrollmentIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace members tx: %w", err)
	}
	return nil
}

// Delete removes the group; member rows go with it via cascade.
func (r *GroupRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM groups WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete group result: %w", err)
	}
	return affected > 0, nil
}

// AvailableStudents computes, fresh on every call, the registered
// enrollments of the matching divisions that are not a member of any group.
func (r *GroupRepository) AvailableStudents(ctx context.Context, filter models.AvailableStudentFilter) ([]models.AvailableStudent, error) {
	var conditions []string
	var args []interface{}

	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("d.course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("d.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("d.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	query := `SELECT e.enrollment_number,
        COALESCE(e.student_name, 'Unknown Student') AS name,
        d.course || ' ' || d.semester AS class_name
        FROM enrollments e
        JOIN divisions d ON d.id = e.division_id
        WHERE e.is_registered = TRUE
        AND NOT EXISTS (SELECT 1 FROM group_members gm WHERE gm.enrollment_id = e.id)`
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.enrollment_number ASC"

	var students []models.AvailableStudent
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list available students: %w", err)
	}
	return students, nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, groupID string, enrollmentIDs []string) error {
	const query = `INSERT INTO group_members (group_id, enrollment_id, position) VALUES ($1, $2, $3)`
	for i, enrollmentID := range enrollmentIDs {
		if _, err := tx.ExecContext(ctx, query, groupID, enrollmentID, i); err != nil {
			return fmt.Errorf("insert group member %s: %w", enrollmentID, translateConstraint(err))
		}
	}
	return nil
}
