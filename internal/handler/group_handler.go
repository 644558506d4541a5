package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

type groupService interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error)
	Get(ctx context.Context, id string) (*models.GroupDetail, error)
	Create(ctx context.Context, req service.CreateGroupRequest) (*models.GroupDetail, error)
	Update(ctx context.Context, id string, req service.UpdateGroupRequest) (*models.GroupDetail, error)
	Delete(ctx context.Context, id string) error
	AvailableStudents(ctx context.Context, groupID string, filter models.AvailableStudentFilter) ([]models.AvailableStudent, error)
}

// GroupHandler exposes project group endpoints.
type GroupHandler struct {
	groups groupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups groupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List returns groups, optionally narrowed by year or guide.
func (h *GroupHandler) List(c *gin.Context) {
	var filter models.GroupFilter
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	filter.GuideID = c.Query("guideId")

	groups, err := h.groups.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get returns one group with guide and member details.
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create forms a new project group.
func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update applies a partial update to a group.
func (h *GroupHandler) Update(c *gin.Context) {
	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete disbands a group.
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "group deleted", nil)
}

// AvailableStudents returns free students eligible to join the group.
func (h *GroupHandler) AvailableStudents(c *gin.Context) {
	filter := availableStudentFilter(c)
	students, err := h.groups.AvailableStudents(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

func availableStudentFilter(c *gin.Context) models.AvailableStudentFilter {
	var filter models.AvailableStudentFilter
	filter.Course = c.Query("course")
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		filter.Semester = semester
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	return filter
}
