package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusPaid   SessionStatus = "paid"
	StatusUnpaid SessionStatus = "unpaid"
	StatusFailed SessionStatus = "failed"
)

var (
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrSessionNotFound     = errors.New("checkout session not found")
)

type CheckoutItem struct {
	Name        string
	AmountCents int64
	Metadata    map[string]string
}

type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// Provider is the external payment processor. Implementations must be safe
// to call redundantly: reconciliation treats it as the authority on whether
// a session was paid.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, item CheckoutItem, successURL, cancelURL string) (*CheckoutSession, error)
	GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)
}

// Client talks to a Stripe-compatible checkout API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type sessionPayload struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	ExpiresAt     int64             `json:"expires_at"`
	Metadata      map[string]string `json:"metadata"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, item CheckoutItem, successURL, cancelURL string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][product_data][name]", item.Name)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
	form.Set("line_items[0][quantity]", "1")
	for k, v := range item.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: checkout session create returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: bad response: %v", ErrProviderUnavailable, err)
	}

	return &CheckoutSession{
		ID:        payload.ID,
		URL:       payload.URL,
		ExpiresAt: time.Unix(payload.ExpiresAt, 0),
	}, nil
}

func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrSessionNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: session status returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: bad response: %v", ErrProviderUnavailable, err)
	}

	switch {
	case payload.PaymentStatus == "paid":
		return StatusPaid, nil
	case payload.Status == "expired":
		return StatusFailed, nil
	default:
		return StatusUnpaid, nil
	}
}
