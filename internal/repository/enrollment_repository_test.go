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

func newEnrollmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryListRegistered(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "division_id", "enrollment_number", "is_registered", "student_name",
		"created_at", "updated_at", "course", "semester", "year"}).
		AddRow("e1", "d1", "BCA2026001", true, "Some Student", time.Now(), time.Now(), "BCA", 6, 2026)
	mock.ExpectQuery("SELECT e.id, e.division_id, e.enrollment_number").
		WithArgs("d1", true).
		WillReturnRows(rows)

	registered := true
	enrollments, err := repo.List(context.Background(), models.EnrollmentFilter{DivisionID: "d1", Registered: &registered})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "BCA2026001", enrollments[0].EnrollmentNumber)
	assert.Equal(t, 6, enrollments[0].Semester)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFilterExistingNumbers(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT enrollment_number FROM enrollments WHERE enrollment_number IN ($1,$2,$3)")).
		WithArgs("BCA2026001", "BCA2026002", "BCA2026003").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_number"}).AddRow("BCA2026002"))

	existing, err := repo.FilterExistingNumbers(context.Background(), []string{"BCA2026001", "BCA2026002", "BCA2026003"})
	require.NoError(t, err)
	assert.True(t, existing["BCA2026002"])
	assert.False(t, existing["BCA2026001"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFilterExistingNumbersRowError(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	// A failure mid-iteration must surface instead of silently shrinking
	// the existing set.
	rows := sqlmock.NewRows([]string{"enrollment_number"}).
		AddRow("BCA2026001").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT enrollment_number FROM enrollments WHERE enrollment_number IN ($1,$2)")).
		WithArgs("BCA2026001", "BCA2026002").
		WillReturnRows(rows)

	_, err := repo.FilterExistingNumbers(context.Background(), []string{"BCA2026001", "BCA2026002"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter enrollment numbers")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec("INSERT INTO enrollments").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	enrollments := []models.Enrollment{
		{ID: "e1", DivisionID: "d1", EnrollmentNumber: "BCA2026001", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: "e2", DivisionID: "d1", EnrollmentNumber: "BCA2026002", CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), enrollments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteGroupedMember(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("e1").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "group_members_enrollment_id_fkey"})

	_, err := repo.Delete(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRowReferenced))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteByDivision(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE division_id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 5))

	count, err := repo.DeleteByDivision(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
