package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/repository"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	byNumber  map[string]models.Enrollment
	byID      map[string]models.Enrollment
	batches   [][]models.Enrollment
	deleteErr error
}

func newMockEnrollmentRepo(enrollments ...models.Enrollment) *mockEnrollmentRepo {
	m := &mockEnrollmentRepo{
		byNumber: make(map[string]models.Enrollment),
		byID:     make(map[string]models.Enrollment),
	}
	for _, e := range enrollments {
		m.byNumber[e.EnrollmentNumber] = e
		m.byID[e.ID] = e
	}
	return m
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	out := make([]models.EnrollmentDetail, 0, len(m.byNumber))
	for _, e := range m.byNumber {
		if filter.Registered != nil && e.IsRegistered != *filter.Registered {
			continue
		}
		out = append(out, models.EnrollmentDetail{Enrollment: e})
	}
	return out, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.byID[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsNumber(ctx context.Context, number string) (bool, error) {
	_, ok := m.byNumber[number]
	return ok, nil
}

func (m *mockEnrollmentRepo) FilterExistingNumbers(ctx context.Context, numbers []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	for _, n := range numbers {
		if _, ok := m.byNumber[n]; ok {
			existing[n] = true
		}
	}
	return existing, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = fmt.Sprintf("enr-%d", len(m.byNumber)+1)
	}
	m.byNumber[enrollment.EnrollmentNumber] = *enrollment
	m.byID[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) CreateBatch(ctx context.Context, enrollments []models.Enrollment) error {
	m.batches = append(m.batches, enrollments)
	for _, e := range enrollments {
		m.byNumber[e.EnrollmentNumber] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	e, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	delete(m.byID, id)
	delete(m.byNumber, e.EnrollmentNumber)
	return true, nil
}

func (m *mockEnrollmentRepo) DeleteByDivision(ctx context.Context, divisionID string) (int64, error) {
	var n int64
	for id, e := range m.byID {
		if e.DivisionID == divisionID {
			delete(m.byID, id)
			delete(m.byNumber, e.EnrollmentNumber)
			n++
		}
	}
	return n, nil
}

func enrollmentFixture(t *testing.T, existing ...models.Enrollment) (*EnrollmentService, *mockEnrollmentRepo) {
	t.Helper()
	repo := newMockEnrollmentRepo(existing...)
	divisions := newMockDivisionRepo(models.Division{
		ID: "d1", Course: "BCA", Semester: 6, Year: 2026, Status: models.DivisionStatusActive,
	})
	svc := NewEnrollmentService(repo, divisions, config.AcademicConfig{MaxEnrollmentNo: 999}, nil, nil)
	return svc, repo
}

func TestEnrollmentServiceCreate(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	e, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		DivisionID: "d1", EnrollmentNumber: "bca2026001",
	})
	require.NoError(t, err)
	assert.Equal(t, "BCA2026001", e.EnrollmentNumber)
	assert.False(t, e.IsRegistered)
}

func TestEnrollmentServiceCreateBadFormat(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	for _, number := range []string{"2026001", "BCA26001", "BCA2026001X", "BCA-202601"} {
		_, err := svc.Create(context.Background(), CreateEnrollmentRequest{DivisionID: "d1", EnrollmentNumber: number})
		require.Error(t, err, number)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestEnrollmentServiceCreateDuplicate(t *testing.T) {
	svc, _ := enrollmentFixture(t, models.Enrollment{ID: "e1", DivisionID: "d1", EnrollmentNumber: "BCA2026001"})

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{DivisionID: "d1", EnrollmentNumber: "BCA2026001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateDivisionMissing(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{DivisionID: "nope", EnrollmentNumber: "BCA2026001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceGenerate(t *testing.T) {
	svc, repo := enrollmentFixture(t)

	result, err := svc.Generate(context.Background(), GenerateEnrollmentsRequest{DivisionID: "d1", Start: 1, End: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, result.InsertedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, "BCA2026001", result.Inserted[0].EnrollmentNumber)
	assert.Equal(t, "BCA2026005", result.Inserted[4].EnrollmentNumber)
	require.Len(t, repo.batches, 1)
}

func TestEnrollmentServiceGenerateSkipsExisting(t *testing.T) {
	svc, _ := enrollmentFixture(t,
		models.Enrollment{ID: "e2", DivisionID: "d1", EnrollmentNumber: "BCA2026002"},
		models.Enrollment{ID: "e4", DivisionID: "d1", EnrollmentNumber: "BCA2026004"},
	)

	result, err := svc.Generate(context.Background(), GenerateEnrollmentsRequest{DivisionID: "d1", Start: 1, End: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, result.InsertedCount)
	assert.Equal(t, 2, result.SkippedCount)

	numbers := make([]string, 0, len(result.Inserted))
	for _, e := range result.Inserted {
		numbers = append(numbers, e.EnrollmentNumber)
	}
	assert.ElementsMatch(t, []string{"BCA2026001", "BCA2026003", "BCA2026005"}, numbers)
}

func TestEnrollmentServiceGenerateIdempotent(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	_, err := svc.Generate(context.Background(), GenerateEnrollmentsRequest{DivisionID: "d1", Start: 1, End: 3})
	require.NoError(t, err)

	// same range again: everything exists now
	_, err = svc.Generate(context.Background(), GenerateEnrollmentsRequest{DivisionID: "d1", Start: 1, End: 3})
	require.Error(t, err)
	got := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, got.Code)
	assert.Contains(t, got.Message, "no new enrollments")
}

func TestEnrollmentServiceGenerateBadRange(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	cases := []GenerateEnrollmentsRequest{
		{DivisionID: "d1", Start: 5, End: 2},
		{DivisionID: "d1", Start: 1, End: 1000},
		{DivisionID: "d1", Start: 0, End: 5},
	}
	for _, req := range cases {
		_, err := svc.Generate(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestEnrollmentServiceListStudents(t *testing.T) {
	name := "Asha"
	svc, _ := enrollmentFixture(t,
		models.Enrollment{ID: "e1", DivisionID: "d1", EnrollmentNumber: "BCA2026001", IsRegistered: true, StudentName: &name},
		models.Enrollment{ID: "e2", DivisionID: "d1", EnrollmentNumber: "BCA2026002"},
	)

	students, err := svc.ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "BCA2026001", students[0].EnrollmentNumber)
}

func TestEnrollmentServiceDelete(t *testing.T) {
	svc, _ := enrollmentFixture(t, models.Enrollment{ID: "e1", DivisionID: "d1", EnrollmentNumber: "BCA2026001"})

	require.NoError(t, svc.Delete(context.Background(), "e1"))

	err := svc.Delete(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDeleteGroupedMemberConflicts(t *testing.T) {
	svc, repo := enrollmentFixture(t, models.Enrollment{ID: "e1", DivisionID: "d1", EnrollmentNumber: "BCA2026001", IsRegistered: true})
	repo.deleteErr = fmt.Errorf("delete enrollment: %w", repository.ErrRowReferenced)

	err := svc.Delete(context.Background(), "e1")
	require.Error(t, err)
	got := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, got.Code)
	assert.Contains(t, got.Message, "belongs to a group")
}
