package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/export"
	"github.com/fyp-portal/fyp-admin-api/pkg/storage"
)

type marksReader interface {
	ListAll(ctx context.Context) ([]models.ProjectEvaluationDetail, error)
}

type reportStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
}

type downloadSigner interface {
	Sign(name string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// ReportLink points the admin UI at a freshly generated report file.
type ReportLink struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportFile is an open stored report ready for streaming.
type ReportFile struct {
	Name        string
	ContentType string
	File        *os.File
}

// ReportService renders the evaluation marks ledger into downloadable
// documents and resolves signed download tokens back to stored files.
type ReportService struct {
	marks     marksReader
	store     reportStore
	signer    downloadSigner
	renderers map[string]export.Renderer
	logger    *zap.Logger
}

// NewReportService constructs ReportService with CSV and PDF renderers.
func NewReportService(marks marksReader, store reportStore, signer downloadSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		marks:  marks,
		store:  store,
		signer: signer,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSV(),
			"pdf": export.NewPDF(),
		},
		logger: logger,
	}
}

// Generate renders the full marks matrix in the requested format, stores
// the file and returns a signed download link.
func (s *ReportService) Generate(ctx context.Context, format string) (*ReportLink, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}

	marks, err := s.marks.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation marks")
	}

	data, err := renderer.Render(marksTable(marks))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	name := fmt.Sprintf("evaluations-%s.%s", time.Now().UTC().Format("20060102-150405"), renderer.Extension())
	if _, err := s.store.Save(name, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Sign(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("evaluation report generated",
		zap.String("file", name),
		zap.String("format", format),
		zap.Int("rows", len(marks)),
	)
	return &ReportLink{FileName: name, Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveDownload validates a signed token and opens the file it grants
// access to. The caller owns the returned file handle.
func (s *ReportService) ResolveDownload(token string) (*ReportFile, error) {
	name, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid download link")
	}

	file, err := s.store.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report")
	}

	contentType := "application/octet-stream"
	for _, renderer := range s.renderers {
		if strings.HasSuffix(name, "."+renderer.Extension()) {
			contentType = renderer.ContentType()
			break
		}
	}
	return &ReportFile{Name: name, ContentType: contentType, File: file}, nil
}

func marksTable(marks []models.ProjectEvaluationDetail) export.Table {
	table := export.Table{
		Title:   "Project Evaluation Marks",
		Columns: []string{"Group", "Project", "Parameter", "Given Marks", "Max Marks", "Evaluated By"},
	}
	for _, m := range marks {
		given := ""
		if m.GivenMarks != nil {
			given = trimFloat(*m.GivenMarks)
		}
		table.Rows = append(table.Rows, []string{
			m.GroupName,
			m.ProjectTitle,
			m.ParameterName,
			given,
			trimFloat(m.ParameterMarks),
			m.EvaluatorName,
		})
	}
	return table
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
