package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// GuideHandler exposes guide registry endpoints.
type GuideHandler struct {
	guides *service.GuideService
}

// NewGuideHandler constructs GuideHandler.
func NewGuideHandler(guides *service.GuideService) *GuideHandler {
	return &GuideHandler{guides: guides}
}

// Register is the public guide self-signup endpoint.
func (h *GuideHandler) Register(c *gin.Context) {
	var req service.RegisterGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guide, err := h.guides.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusCreated, "registration submitted, awaiting approval", guide)
}

// Login authenticates an approved guide.
func (h *GuideHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.guides.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// List returns all guides for the admin console.
func (h *GuideHandler) List(c *gin.Context) {
	guides, err := h.guides.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guides, nil)
}

// ListActive returns approved, available guides for dropdowns.
func (h *GuideHandler) ListActive(c *gin.Context) {
	guides, err := h.guides.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guides, nil)
}

// Create adds a pre-approved guide (admin only).
func (h *GuideHandler) Create(c *gin.Context) {
	var req service.RegisterGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guide, err := h.guides.CreateByAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, guide)
}

// Update applies a partial update to a guide's profile.
func (h *GuideHandler) Update(c *gin.Context) {
	var req service.UpdateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guide, err := h.guides.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guide, nil)
}

// SetStatus moves a guide between pending/approved/rejected.
func (h *GuideHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guide, err := h.guides.SetStatus(c.Request.Context(), c.Param("id"), models.GuideStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guide, nil)
}

// SetAvailability toggles whether the guide accepts new groups.
func (h *GuideHandler) SetAvailability(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "is_active is required"))
		return
	}
	guide, err := h.guides.SetAvailability(c.Request.Context(), actorFromContext(c), c.Param("id"), *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guide, nil)
}

// Delete removes a guide with no assigned groups.
func (h *GuideHandler) Delete(c *gin.Context) {
	if err := h.guides.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "guide deleted", nil)
}

// AssignedGroups returns the guide's live assigned groups.
func (h *GuideHandler) AssignedGroups(c *gin.Context) {
	refs, err := h.guides.AssignedGroups(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refs, nil)
}

// ChangePassword rotates the logged-in guide's password.
func (h *GuideHandler) ChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.guides.ChangePassword(c.Request.Context(), claims.ActorID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "password updated", nil)
}

// ForgotPassword starts the OTP reset flow.
func (h *GuideHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.guides.ForgotPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "if the email is registered, a reset code has been sent", nil)
}

// ResetPassword completes the OTP reset flow.
func (h *GuideHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.guides.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Messagef(c, http.StatusOK, "password reset", nil)
}
