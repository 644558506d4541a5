package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	announcements *service.AnnouncementService
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(announcements *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// ListCourse returns course announcements.
func (h *AnnouncementHandler) ListCourse(c *gin.Context) {
	items, err := h.announcements.ListCourse(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateCourse publishes a course announcement.
func (h *AnnouncementHandler) CreateCourse(c *gin.Context) {
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.announcements.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateCourse replaces a course announcement.
func (h *AnnouncementHandler) UpdateCourse(c *gin.Context) {
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.announcements.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteCourse removes a course announcement.
func (h *AnnouncementHandler) DeleteCourse(c *gin.Context) {
	if err := h.announcements.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "announcement deleted", nil)
}

// ListGuide returns guide announcements.
func (h *AnnouncementHandler) ListGuide(c *gin.Context) {
	items, err := h.announcements.ListGuide(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateGuide publishes a guide announcement.
func (h *AnnouncementHandler) CreateGuide(c *gin.Context) {
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.announcements.CreateGuide(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateGuide replaces a guide announcement.
func (h *AnnouncementHandler) UpdateGuide(c *gin.Context) {
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.announcements.UpdateGuide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteGuide removes a guide announcement.
func (h *AnnouncementHandler) DeleteGuide(c *gin.Context) {
	if err := h.announcements.DeleteGuide(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "announcement deleted", nil)
}
