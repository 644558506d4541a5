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

func newDivisionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDivisionRepositoryList(t *testing.T) {
	db, mock, cleanup := newDivisionMock(t)
	defer cleanup()
	repo := NewDivisionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course", "semester", "year", "status", "created_at", "updated_at"}).
		AddRow("d1", "BCA", 6, 2026, models.DivisionStatusActive, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, course, semester, year, status, created_at, updated_at FROM divisions WHERE course = \\$1 AND status = \\$2").
		WithArgs("BCA", models.DivisionStatusActive).
		WillReturnRows(rows)

	divisions, err := repo.List(context.Background(), models.DivisionFilter{Course: "BCA", Status: models.DivisionStatusActive})
	require.NoError(t, err)
	require.Len(t, divisions, 1)
	assert.Equal(t, "BCA", divisions[0].Course)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDivisionRepositoryCreateDuplicateKey(t *testing.T) {
	db, mock, cleanup := newDivisionMock(t)
	defer cleanup()
	repo := NewDivisionRepository(db)

	mock.ExpectExec("INSERT INTO divisions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "divisions_course_semester_year_key"})

	division := &models.Division{Course: "BCA", Semester: 6, Year: 2026, Status: models.DivisionStatusActive}
	err := repo.Create(context.Background(), division)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDivisionRepositoryExistsKey(t *testing.T) {
	db, mock, cleanup := newDivisionMock(t)
	defer cleanup()
	repo := NewDivisionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM divisions WHERE course = $1 AND semester = $2 AND year = $3 LIMIT 1")).
		WithArgs("BCA", 6, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsKey(context.Background(), "BCA", 6, 2026)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDivisionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newDivisionMock(t)
	defer cleanup()
	repo := NewDivisionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM divisions WHERE id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
