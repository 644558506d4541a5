package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

func newGroupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGroupRepositoryCreateWithMembers(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO groups").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs(sqlmock.AnyArg(), "e1", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs(sqlmock.AnyArg(), "e2", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs(sqlmock.AnyArg(), "e3", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	group := &models.Group{Name: "Team Alpha", GuideID: "guide-1", Year: 2026}
	err := repo.CreateWithMembers(context.Background(), group, []string{"e1", "e2", "e3"})
	require.NoError(t, err)
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, models.GroupStatusNotStarted, group.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryCreateRollsBackOnMemberRace(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO groups").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs(sqlmock.AnyArg(), "e1", 0).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "group_members_enrollment_id_key"})
	mock.ExpectRollback()

	group := &models.Group{Name: "Team Beta", GuideID: "guide-1", Year: 2026}
	err := repo.CreateWithMembers(context.Background(), group, []string{"e1", "e2", "e3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemberTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryCreateDuplicateName(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO groups").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "groups_name_key"})
	mock.ExpectRollback()

	group := &models.Group{Name: "Team Alpha", GuideID: "guide-1", Year: 2026}
	err := repo.CreateWithMembers(context.Background(), group, []string{"e1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryTakenEnrollments(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT gm.enrollment_id FROM group_members gm WHERE gm.enrollment_id IN ($1,$2,$3) AND gm.group_id <> $4")).
		WithArgs("e1", "e2", "e3", "group-1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id"}).AddRow("e2"))

	taken, err := repo.TakenEnrollments(context.Background(), []string{"e1", "e2", "e3"}, "group-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryTakenEnrollmentsEmptyInput(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	taken, err := repo.TakenEnrollments(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryAvailableStudents(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"enrollment_number", "name", "class_name"}).
		AddRow("BCA2026001", "Unknown Student", "BCA 6").
		AddRow("BCA2026004", "Free Student", "BCA 6")
	mock.ExpectQuery("SELECT e.enrollment_number").
		WithArgs("BCA", 2026).
		WillReturnRows(rows)

	students, err := repo.AvailableStudents(context.Background(), models.AvailableStudentFilter{Course: "BCA", Year: 2026})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "BCA2026001", students[0].EnrollmentNumber)
	assert.Equal(t, "BCA 6", students[1].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryExistsName(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM groups WHERE name = $1 AND id <> $2 LIMIT 1")).
		WithArgs("Team Alpha", "group-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsName(context.Background(), "Team Alpha", "group-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryReplaceMembers(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM group_members WHERE group_id = $1")).
		WithArgs("group-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs("group-1", "e4", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs("group-1", "e5", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs("group-1", "e6", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceMembers(context.Background(), "group-1", []string{"e4", "e5", "e6"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM groups WHERE id = $1")).
		WithArgs("group-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM groups WHERE id = $1")).
		WithArgs("group-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "group-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "group-1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListMembers(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	name := "Some Student"
	rows := sqlmock.NewRows([]string{"enrollment_id", "enrollment_number", "student_name", "division_id", "position"}).
		AddRow("e1", "BCA2026001", name, "d1", 0).
		AddRow("e2", "BCA2026002", nil, "d1", 1)
	mock.ExpectQuery("SELECT gm.enrollment_id, e.enrollment_number").
		WithArgs("group-1").
		WillReturnRows(rows)

	members, err := repo.ListMembers(context.Background(), "group-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "BCA2026001", members[0].EnrollmentNumber)
	require.NotNil(t, members[0].StudentName)
	assert.Equal(t, name, *members[0].StudentName)
	assert.Nil(t, members[1].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListFiltersByYearAndGuide(t *testing.T) {
	db, mock, cleanup := newGroupMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "guide_id", "project_title", "project_description",
		"project_technology", "year", "status", "created_at", "updated_at",
		"guide_name", "guide_email", "guide_expertise"}).
		AddRow("group-1", "Team Alpha", "guide-1", "Portal", "", "Go", 2026,
			models.GroupStatusInProgress, time.Now(), time.Now(), "Dr. Guide", "guide@example.com", "Databases")
	mock.ExpectQuery("SELECT g.id, g.name, g.guide_id").
		WithArgs(2026, "guide-1").
		WillReturnRows(rows)

	groups, err := repo.List(context.Background(), models.GroupFilter{Year: 2026, GuideID: "guide-1"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Dr. Guide", groups[0].GuideName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
