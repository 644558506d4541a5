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

func newGuideMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func guideRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "expertise", "email", "phone", "password_hash",
		"status", "is_active", "otp_hash", "otp_expires_at", "created_at", "updated_at"})
}

func TestGuideRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newGuideMock(t)
	defer cleanup()
	repo := NewGuideRepository(db)

	rows := guideRows().
		AddRow("guide-1", "Dr. Guide", "Databases", "guide@example.com", nil, "hash",
			models.GuideStatusApproved, true, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM guides WHERE status = \\$1 AND is_active = TRUE").
		WithArgs(models.GuideStatusApproved).
		WillReturnRows(rows)

	guides, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "Dr. Guide", guides[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuideRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newGuideMock(t)
	defer cleanup()
	repo := NewGuideRepository(db)

	mock.ExpectExec("INSERT INTO guides").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "guides_email_key"})

	guide := &models.Guide{Name: "Dr. Guide", Email: "guide@example.com", Status: models.GuideStatusPending}
	err := repo.Create(context.Background(), guide)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuideRepositorySetAndClearOTP(t *testing.T) {
	db, mock, cleanup := newGuideMock(t)
	defer cleanup()
	repo := NewGuideRepository(db)

	expires := time.Now().Add(15 * time.Minute)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE guides SET otp_hash = $2, otp_expires_at = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("guide-1", "otp-hash", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE guides SET otp_hash = NULL, otp_expires_at = NULL, updated_at = $2 WHERE id = $1")).
		WithArgs("guide-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetOTP(context.Background(), "guide-1", "otp-hash", expires))
	require.NoError(t, repo.ClearOTP(context.Background(), "guide-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuideRepositoryCountGroups(t *testing.T) {
	db, mock, cleanup := newGuideMock(t)
	defer cleanup()
	repo := NewGuideRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM groups WHERE guide_id = $1")).
		WithArgs("guide-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountGroups(context.Background(), "guide-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuideRepositoryAssignedGroupLinks(t *testing.T) {
	db, mock, cleanup := newGuideMock(t)
	defer cleanup()
	repo := NewGuideRepository(db)

	mock.ExpectExec("INSERT INTO guide_assigned_groups").
		WithArgs("guide-1", "group-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Replayed link hits the ON CONFLICT clause and affects no rows.
	mock.ExpectExec("INSERT INTO guide_assigned_groups").
		WithArgs("guide-1", "group-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM guide_assigned_groups WHERE guide_id = $1 AND group_id = $2")).
		WithArgs("guide-1", "group-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM guide_assigned_groups WHERE guide_id = $1 AND group_id = $2")).
		WithArgs("guide-1", "group-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddAssignedGroup(context.Background(), "guide-1", "group-1"))
	require.NoError(t, repo.AddAssignedGroup(context.Background(), "guide-1", "group-1"))
	require.NoError(t, repo.RemoveAssignedGroup(context.Background(), "guide-1", "group-1"))
	require.NoError(t, repo.RemoveAssignedGroup(context.Background(), "guide-1", "group-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuideRepositoryAssignedGroupsFiltersDangling(t *testing.T) {
	db, mock, cleanup := newGuideMock(t)
	defer cleanup()
	repo := NewGuideRepository(db)

	rows := sqlmock.NewRows([]string{"group_id", "group_name", "project_title", "year"}).
		AddRow("group-1", "Team Alpha", "Portal", 2026)
	mock.ExpectQuery("SELECT g.id AS group_id, g.name AS group_name").
		WithArgs("guide-1").
		WillReturnRows(rows)

	refs, err := repo.AssignedGroups(context.Background(), "guide-1")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Team Alpha", refs[0].GroupName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
