package entitlement

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"leadmarket/internal/auth"
	"leadmarket/internal/ledger"
)

func unlockRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.AuthMiddleware("test-secret"))
	router.POST("/leads/:leadID/view", h.Unlock)
	return router
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(1, "test@example.com", "user", "test-secret")
	assert.NoError(t, err)
	return token
}

func newHandlerFixture() (*MockEntitlementRepo, *MockLeadRepo, *MockLedgerRepo, *MockNotifier, *Handler) {
	er := new(MockEntitlementRepo)
	lr := new(MockLeadRepo)
	wr := new(MockLedgerRepo)
	nf := new(MockNotifier)
	h := &Handler{service: NewService(er, lr, wr, nf)}
	return er, lr, wr, nf, h
}

func TestUnlockHandler_InsufficientBalanceReturns402(t *testing.T) {
	er, lr, wr, _, h := newHandlerFixture()
	router := unlockRouter(h)
	token := testToken(t)

	lr.On("GetByID", mock.Anything, 7).Return(testLead(), nil)
	er.On("GetView", mock.Anything, 1, 7, ViewContactInfo).Return(nil, nil)
	er.On("GetSettings", mock.Anything).Return(defaultSettings(), nil)
	er.On("UnlockLead", mock.Anything, 1, 7, 5, ViewContactInfo).Return(0, ledger.ErrInsufficientBalance)
	wr.On("GetBalance", mock.Anything, 1).Return(3, nil)

	body := bytes.NewBufferString(`{"view_type": "contact_info"}`)
	req := httptest.NewRequest("POST", "/leads/7/view", body)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), `"required":5`)
	assert.Contains(t, w.Body.String(), `"available":3`)
}

func TestUnlockHandler_RejectsUnknownViewType(t *testing.T) {
	er, _, _, _, h := newHandlerFixture()
	router := unlockRouter(h)
	token := testToken(t)

	body := bytes.NewBufferString(`{"view_type": "premium"}`)
	req := httptest.NewRequest("POST", "/leads/7/view", body)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	er.AssertNotCalled(t, "UnlockLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnlockHandler_ReturnsContactPayload(t *testing.T) {
	er, lr, _, nf, h := newHandlerFixture()
	router := unlockRouter(h)
	token := testToken(t)

	lr.On("GetByID", mock.Anything, 7).Return(testLead(), nil)
	er.On("GetView", mock.Anything, 1, 7, ViewContactInfo).Return(nil, nil)
	er.On("GetSettings", mock.Anything).Return(defaultSettings(), nil)
	er.On("UnlockLead", mock.Anything, 1, 7, 5, ViewContactInfo).Return(15, nil)
	nf.On("CheckLowBalance", mock.Anything, 1, 15).Return()

	body := bytes.NewBufferString(`{"view_type": "contact_info"}`)
	req := httptest.NewRequest("POST", "/leads/7/view", body)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dana@example.com")
	assert.Contains(t, w.Body.String(), `"remaining_coins":15`)
}
