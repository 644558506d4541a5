package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// ReportHandler exposes evaluation report generation and signed downloads.
type ReportHandler struct {
	reports  *service.ReportService
	basePath string
}

// NewReportHandler constructs ReportHandler. basePath is the API prefix
// used to build download URLs.
func NewReportHandler(reports *service.ReportService, basePath string) *ReportHandler {
	return &ReportHandler{reports: reports, basePath: strings.TrimRight(basePath, "/")}
}

// Generate renders the marks ledger as csv (default) or pdf and returns a
// signed download link.
func (h *ReportHandler) Generate(c *gin.Context) {
	link, err := h.reports.Generate(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"file_name":    link.FileName,
		"download_url": fmt.Sprintf("%s/reports/download/%s", h.basePath, link.Token),
		"expires_at":   link.ExpiresAt,
	}, nil)
}

// Download streams a stored report. The signed token in the path is the
// only credential required.
func (h *ReportHandler) Download(c *gin.Context) {
	file, err := h.reports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.File.Close() //nolint:errcheck

	info, err := file.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), file.ContentType, file.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Name),
	})
}
