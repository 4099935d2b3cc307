package purchase

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"leadmarket/internal/payment"
)

func webhookRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhook", h.Webhook)
	return router
}

func signedRequest(payload []byte, secret string) *http.Request {
	ts := time.Now().Unix()
	sig := payment.ComputeSignature(ts, payload, secret)
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, sig))
	return req
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	f := newFixture()
	h := &Handler{service: f.svc, webhookSecret: "whsec_test"}
	router := webhookRouter(h)

	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	req := signedRequest(payload, "whsec_wrong")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.repo.AssertNotCalled(t, "FindPurchaseBySession", mock.Anything, mock.Anything)
}

func TestWebhook_AcksUnrecoverableSession(t *testing.T) {
	f := newFixture()
	h := &Handler{service: f.svc, webhookSecret: "whsec_test"}
	router := webhookRouter(h)

	// No row and no usable metadata: retrying will never help, so the
	// event must be acknowledged with a 200.
	f.repo.On("FindPurchaseBySession", mock.Anything, "cs_ghost").Return(nil, ErrRecordNotFound)
	f.repo.On("FindSubscriptionBySession", mock.Anything, "cs_ghost").Return(nil, ErrRecordNotFound)

	payload := []byte(`{"id": "evt_2", "type": "checkout.session.completed", "data": {"object": {"id": "cs_ghost"}}}`)
	req := signedRequest(payload, "whsec_test")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}

func TestWebhook_RetryableFailureReturns500(t *testing.T) {
	f := newFixture()
	h := &Handler{service: f.svc, webhookSecret: "whsec_test"}
	router := webhookRouter(h)

	pending := &Purchase{ID: 9, UserID: 4, PaymentSessionID: "cs_123", Status: StatusPending, LeadCoins: 50}
	f.repo.On("FindPurchaseBySession", mock.Anything, "cs_123").Return(pending, nil)
	f.provider.On("GetSessionStatus", mock.Anything, "cs_123").
		Return(payment.SessionStatus(""), payment.ErrProviderUnavailable)

	payload := []byte(`{"id": "evt_3", "type": "checkout.session.completed", "data": {"object": {"id": "cs_123"}}}`)
	req := signedRequest(payload, "whsec_test")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
