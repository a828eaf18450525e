package handlers

import (
	"net/http"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/middleware"
	"etaca_backend/internal/models"
	"etaca_backend/internal/services"
	"etaca_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	*BaseHandler
	orgs services.OrganizationService
	qr   services.QRService
}

func NewOrganizationHandler(v *validator.Validator, orgs services.OrganizationService, qr services.QRService) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler: NewBaseHandler(v),
		orgs:        orgs,
		qr:          qr,
	}
}

// Register godoc
// POST /api/v1/organizations
func (h *OrganizationHandler) Register(c *gin.Context) {
	var req dto.RegisterOrganizationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	org, err := h.orgs.Register(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     org.ID,
		"slug":   org.Slug,
		"status": org.Status,
	})
}

// GetPublic godoc
// GET /api/v1/organizations/:slug
func (h *OrganizationHandler) GetPublic(c *gin.Context) {
	resp, err := h.orgs.GetPublicBySlug(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QRCode godoc
// GET /api/v1/organizations/:slug/qr?size=256
func (h *OrganizationHandler) QRCode(c *gin.Context) {
	slug := c.Param("slug")
	if _, err := h.orgs.GetPublicBySlug(h.GetDB(c), slug); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	size := ParseQueryInt(c, "size", 256)
	png, err := h.qr.OrganizationPageQR(slug, size)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// List godoc
// GET /api/v1/admin/organizations?status=pending (только админ)
func (h *OrganizationHandler) List(c *gin.Context) {
	var status *models.OrganizationStatus
	if s := c.Query("status"); s != "" {
		st := models.OrganizationStatus(s)
		status = &st
	}

	orgs, err := h.orgs.List(h.GetDB(c), status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// Activate godoc
// POST /api/v1/admin/organizations/:id/activate (только админ)
func (h *OrganizationHandler) Activate(c *gin.Context) {
	id, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orgs.Activate(h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.OrganizationStatusActive})
}

// Suspend godoc
// POST /api/v1/admin/organizations/:id/suspend (только админ)
func (h *OrganizationHandler) Suspend(c *gin.Context) {
	id, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orgs.Suspend(h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.OrganizationStatusSuspended})
}

// UpdatePaymentConfig godoc
// PUT /api/v1/org/payment-config (владелец организации)
func (h *OrganizationHandler) UpdatePaymentConfig(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}

	var req dto.UpdatePaymentConfigRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if err := h.orgs.UpdatePaymentConfig(h.GetDB(c), orgID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
