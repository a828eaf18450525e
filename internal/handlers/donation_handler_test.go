package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"etaca_backend/internal/handlers"
	"etaca_backend/internal/models"
	"etaca_backend/internal/services/payment"
	"etaca_backend/internal/validator"
	"etaca_backend/pkg/contextkeys"
	"etaca_backend/test/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubReconciler возвращает заранее заданный исход и запоминает поля.
type stubReconciler struct {
	outcome payment.Outcome
	err     error
	fields  map[string]string
}

func (s *stubReconciler) Reconcile(ctx context.Context, db *gorm.DB, fields map[string]string) (payment.Outcome, error) {
	s.fields = fields
	return s.outcome, s.err
}

func (s *stubReconciler) Recover(ctx context.Context, db *gorm.DB, event *models.WebhookEvent) (payment.Outcome, error) {
	return s.outcome, s.err
}

func newWebhookRouter(t *testing.T, reconciler payment.Reconciler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := helpers.OpenTestDB(t)
	handler := handlers.NewDonationHandler(validator.New(), nil, nil, reconciler)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(string(contextkeys.DBContextKey), db)
		c.Next()
	})
	r.POST("/api/v1/webhooks/fiserv", handler.Webhook)
	return r
}

func postForm(t *testing.T, r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/fiserv", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_AcknowledgedOutcomeReturns200(t *testing.T) {
	// Даже отклоненная, но записанная доставка подтверждается success-ответом,
	// иначе шлюз будет ретраить ее бесконечно.
	for _, outcome := range []payment.Outcome{
		payment.Applied(),
		payment.Ignored(payment.ReasonAlreadyProcessed),
		payment.Rejected(payment.ReasonSignatureMismatch),
		payment.Rejected(payment.ReasonUnknownExternalRef),
		payment.Rejected(payment.ReasonConflictingPayload),
	} {
		stub := &stubReconciler{outcome: outcome}
		r := newWebhookRouter(t, stub)

		w := postForm(t, r, url.Values{"oid": {"DON-1-11111"}, "status": {"APPROVED"}})
		assert.Equal(t, http.StatusOK, w.Code, "outcome %+v", outcome)
	}
}

func TestWebhook_MalformedOutcomeReturns400(t *testing.T) {
	stub := &stubReconciler{outcome: payment.Rejected(payment.ReasonMalformedPayload)}
	r := newWebhookRouter(t, stub)

	w := postForm(t, r, url.Values{"status": {"APPROVED"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_InfrastructureErrorReturns500(t *testing.T) {
	stub := &stubReconciler{err: assert.AnError}
	r := newWebhookRouter(t, stub)

	w := postForm(t, r, url.Values{"oid": {"DON-1-11111"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhook_PassesAllFormFields(t *testing.T) {
	stub := &stubReconciler{outcome: payment.Applied()}
	r := newWebhookRouter(t, stub)

	form := url.Values{
		"oid":          {"DON-1-11111"},
		"status":       {"APPROVED"},
		"storename":    {"store-1"},
		"hash":         {"abc"},
		"custom_field": {"kept-verbatim"},
	}
	w := postForm(t, r, form)
	require.Equal(t, http.StatusOK, w.Code)

	// Все поля, включая неизвестные, доходят до реконсилятора.
	assert.Equal(t, "kept-verbatim", stub.fields["custom_field"])
	assert.Equal(t, "DON-1-11111", stub.fields["oid"])
	assert.Len(t, stub.fields, 5)
}
