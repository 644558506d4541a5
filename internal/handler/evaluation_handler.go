package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// EvaluationHandler exposes rubric and marks endpoints.
type EvaluationHandler struct {
	evaluations *service.EvaluationService
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(evaluations *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

// ListParameters returns the rubric.
func (h *EvaluationHandler) ListParameters(c *gin.Context) {
	params, err := h.evaluations.ListParameters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// CreateParameter adds a rubric entry.
func (h *EvaluationHandler) CreateParameter(c *gin.Context) {
	var req service.ParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	param, err := h.evaluations.CreateParameter(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, param)
}

// UpdateParameter replaces a rubric entry.
func (h *EvaluationHandler) UpdateParameter(c *gin.Context) {
	var req service.ParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	param, err := h.evaluations.UpdateParameter(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, param, nil)
}

// DeleteParameter removes a rubric entry.
func (h *EvaluationHandler) DeleteParameter(c *gin.Context) {
	if err := h.evaluations.DeleteParameter(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "parameter deleted", nil)
}

// UpsertMark records marks for one (project, parameter) pair.
func (h *EvaluationHandler) UpsertMark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.evaluations.UpsertMark(c.Request.Context(),
		c.Param("projectId"), c.Param("parameterId"), claims.ActorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListByProject returns the marks recorded for one project group.
func (h *EvaluationHandler) ListByProject(c *gin.Context) {
	marks, err := h.evaluations.ListByProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// ListAll returns the full marks ledger.
func (h *EvaluationHandler) ListAll(c *gin.Context) {
	marks, err := h.evaluations.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
