package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// DivisionHandler exposes division endpoints.
type DivisionHandler struct {
	divisions *service.DivisionService
}

// NewDivisionHandler constructs DivisionHandler.
func NewDivisionHandler(divisions *service.DivisionService) *DivisionHandler {
	return &DivisionHandler{divisions: divisions}
}

// List returns divisions, optionally filtered by course and status.
func (h *DivisionHandler) List(c *gin.Context) {
	filter := models.DivisionFilter{
		Course: c.Query("course"),
		Status: models.DivisionStatus(c.Query("status")),
	}
	divisions, err := h.divisions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, divisions, nil)
}

// Create adds a division.
func (h *DivisionHandler) Create(c *gin.Context) {
	var req service.CreateDivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	division, err := h.divisions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, division)
}

// ToggleStatus flips a division between active and inactive.
func (h *DivisionHandler) ToggleStatus(c *gin.Context) {
	division, err := h.divisions.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, division, nil)
}

// Delete removes a division and its roster.
func (h *DivisionHandler) Delete(c *gin.Context) {
	if err := h.divisions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "division deleted", nil)
}
