package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/storage"
)

type mockMarksReader struct {
	marks []models.ProjectEvaluationDetail
}

func (m *mockMarksReader) ListAll(ctx context.Context) ([]models.ProjectEvaluationDetail, error) {
	return m.marks, nil
}

func reportFixture(t *testing.T) (*ReportService, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewLinkSigner("test-secret", time.Hour)

	given := 18.0
	marks := &mockMarksReader{marks: []models.ProjectEvaluationDetail{
		{
			ProjectEvaluation: models.ProjectEvaluation{ProjectID: "proj-1", ParameterID: "p1", GivenMarks: &given},
			ParameterName:     "Implementation",
			ParameterMarks:    20,
			GroupName:         "Team Alpha",
			ProjectTitle:      "Portal",
			EvaluatorName:     "Dr. Guide",
		},
		{
			ProjectEvaluation: models.ProjectEvaluation{ProjectID: "proj-2", ParameterID: "p1"},
			ParameterName:     "Implementation",
			ParameterMarks:    20,
			GroupName:         "Team Beta",
			ProjectTitle:      "Tracker",
			EvaluatorName:     "Dr. Guide",
		},
	}}
	return NewReportService(marks, store, signer, nil), store
}

func TestReportServiceGenerateCSVRoundTrip(t *testing.T) {
	svc, _ := reportFixture(t)

	link, err := svc.Generate(context.Background(), "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link.FileName, ".csv"))
	assert.True(t, link.ExpiresAt.After(time.Now()))

	file, err := svc.ResolveDownload(link.Token)
	require.NoError(t, err)
	defer file.File.Close()
	assert.Equal(t, "text/csv", file.ContentType)

	content, err := io.ReadAll(file.File)
	require.NoError(t, err)
	body := string(content)
	assert.Contains(t, body, "Group,Project,Parameter,Given Marks,Max Marks,Evaluated By")
	assert.Contains(t, body, "Team Alpha,Portal,Implementation,18,20,Dr. Guide")
	// ungraded mark renders with an empty cell
	assert.Contains(t, body, "Team Beta,Tracker,Implementation,,20,Dr. Guide")
}

func TestReportServiceGeneratePDF(t *testing.T) {
	svc, _ := reportFixture(t)

	link, err := svc.Generate(context.Background(), "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link.FileName, ".pdf"))

	file, err := svc.ResolveDownload(link.Token)
	require.NoError(t, err)
	defer file.File.Close()
	assert.Equal(t, "application/pdf", file.ContentType)

	header := make([]byte, 5)
	_, err = io.ReadFull(file.File, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(header))
}

func TestReportServiceDefaultsToCSV(t *testing.T) {
	svc, _ := reportFixture(t)
	link, err := svc.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link.FileName, ".csv"))
}

func TestReportServiceUnsupportedFormat(t *testing.T) {
	svc, _ := reportFixture(t)
	_, err := svc.Generate(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRejectsForgedToken(t *testing.T) {
	svc, _ := reportFixture(t)
	_, err := svc.ResolveDownload("forged.token.value")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceMissingFileIsNotFound(t *testing.T) {
	svc, store := reportFixture(t)

	link, err := svc.Generate(context.Background(), "csv")
	require.NoError(t, err)
	require.NoError(t, store.Delete(link.FileName))

	_, err = svc.ResolveDownload(link.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExpiredToken(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewLinkSigner("test-secret", time.Nanosecond)
	svc := NewReportService(&mockMarksReader{}, store, signer, nil)

	link, err := svc.Generate(context.Background(), "csv")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = svc.ResolveDownload(link.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "expired")
}
