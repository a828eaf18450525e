package handlers

import (
	"net/http"
	"time"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/logger"
	"etaca_backend/internal/middleware"
	"etaca_backend/internal/services"
	"etaca_backend/internal/services/payment"
	"etaca_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	*BaseHandler
	donations  services.DonationService
	exports    services.ExportService
	reconciler payment.Reconciler
}

func NewDonationHandler(
	v *validator.Validator,
	donations services.DonationService,
	exports services.ExportService,
	reconciler payment.Reconciler,
) *DonationHandler {
	return &DonationHandler{
		BaseHandler: NewBaseHandler(v),
		donations:   donations,
		exports:     exports,
		reconciler:  reconciler,
	}
}

// Initiate godoc
// POST /api/v1/donations
func (h *DonationHandler) Initiate(c *gin.Context) {
	var req dto.InitiateDonationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.donations.Initiate(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Webhook принимает S2S-уведомление шлюза (form-urlencoded).
// Контракт ответа: 200 для всего, что долговечно записано (включая
// отклонённые и проигнорированные доставки), иначе шлюз ретраит вечно.
// 400 только для нераспознаваемого тела, 500 для инфраструктурных сбоев.
func (h *DonationHandler) Webhook(c *gin.Context) {
	ctx := c.Request.Context()

	if err := c.Request.ParseForm(); err != nil {
		logger.CtxWarn(ctx, "webhook body is not parseable form data", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable payload"})
		return
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	outcome, err := h.reconciler.Reconcile(ctx, h.GetDB(c), fields)
	if err != nil {
		logger.CtxWithError(ctx, "webhook reconciliation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	if !outcome.Acknowledged() {
		c.JSON(http.StatusBadRequest, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetByExternalRef godoc
// GET /api/v1/donations/:external_ref
// Публичный endpoint для страниц success/fail фронтенда.
func (h *DonationHandler) GetByExternalRef(c *gin.Context) {
	externalRef := c.Param("external_ref")
	if externalRef == "" {
		appErrors.HandleError(c, appErrors.NewBadRequestError("Missing external reference"))
		return
	}

	resp, err := h.donations.GetByExternalRef(h.GetDB(c), externalRef)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// GET /api/v1/org/donations (владелец организации)
func (h *DonationHandler) List(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}

	page, pageSize := ParsePagination(c)
	resp, err := h.donations.ListByOrganization(h.GetDB(c), orgID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportCSV godoc
// GET /api/v1/org/donations/export (владелец организации)
func (h *DonationHandler) ExportCSV(c *gin.Context) {
	orgID, ok := middleware.GetOrganizationID(c)
	if !ok {
		appErrors.HandleError(c, appErrors.ErrForbidden)
		return
	}

	from, to, err := ParseQueryDateRange(c)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	filename := "donations-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := h.exports.DonationsCSV(h.GetDB(c), orgID, from, to, c.Writer); err != nil {
		logger.CtxWithError(c.Request.Context(), "donation export failed", err, "organization_id", orgID)
		// Заголовки уже могли уйти, статус менять поздно.
	}
}
