package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// EnrollmentHandler exposes enrollment and student roster endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	groups      *service.GroupService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, groups *service.GroupService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, groups: groups}
}

// List returns enrollments, optionally narrowed to a division or
// registration state.
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{DivisionID: c.Query("divisionId")}
	switch c.Query("registered") {
	case "true":
		v := true
		filter.Registered = &v
	case "false":
		v := false
		filter.Registered = &v
	}
	enrollments, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// ListByDivision returns the roster of one division.
func (h *EnrollmentHandler) ListByDivision(c *gin.Context) {
	enrollments, err := h.enrollments.List(c.Request.Context(), models.EnrollmentFilter{
		DivisionID: c.Param("divisionId"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Create registers one enrollment number.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Generate bulk-reserves a numeric range for a division.
func (h *EnrollmentHandler) Generate(c *gin.Context) {
	var req service.GenerateEnrollmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete removes one enrollment.
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "enrollment deleted", nil)
}

// DeleteByDivision clears a division's roster.
func (h *EnrollmentHandler) DeleteByDivision(c *gin.Context) {
	count, err := h.enrollments.DeleteByDivision(c.Request.Context(), c.Param("divisionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted_count": count}, nil)
}

// ListStudents returns registered students with division context.
func (h *EnrollmentHandler) ListStudents(c *gin.Context) {
	students, err := h.enrollments.ListStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ListAvailableStudents returns registered students of the requested
// cohort that belong to no group.
func (h *EnrollmentHandler) ListAvailableStudents(c *gin.Context) {
	filter := availableStudentFilter(c)
	students, err := h.groups.ListAvailableStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
