package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "999", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "4", r.PostForm.Get("metadata[user_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cs_123", "url": "https://pay.test/cs_123", "expires_at": 1900000000}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutItem{
		Name:        "Starter - 50 LeadCoins",
		AmountCents: 999,
		Metadata:    map[string]string{"user_id": "4"},
	}, "https://app.test/success", "https://app.test/cancel")

	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.test/cs_123", session.URL)
}

func TestCreateCheckoutSession_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutItem{Name: "x", AmountCents: 1}, "s", "c")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGetSessionStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       SessionStatus
		wantErr    error
	}{
		{
			name:       "paid",
			statusCode: http.StatusOK,
			body:       `{"id": "cs_123", "payment_status": "paid", "status": "complete"}`,
			want:       StatusPaid,
		},
		{
			name:       "expired maps to failed",
			statusCode: http.StatusOK,
			body:       `{"id": "cs_123", "payment_status": "unpaid", "status": "expired"}`,
			want:       StatusFailed,
		},
		{
			name:       "open stays unpaid",
			statusCode: http.StatusOK,
			body:       `{"id": "cs_123", "payment_status": "unpaid", "status": "open"}`,
			want:       StatusUnpaid,
		},
		{
			name:       "unknown session",
			statusCode: http.StatusNotFound,
			body:       `{"error": {"type": "invalid_request_error"}}`,
			wantErr:    ErrSessionNotFound,
		},
		{
			name:       "provider down",
			statusCode: http.StatusBadGateway,
			body:       ``,
			wantErr:    ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/checkout/sessions/cs_123", r.URL.Path)
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "sk_test")
			status, err := client.GetSessionStatus(context.Background(), "cs_123")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, status)
			}
		})
	}
}
