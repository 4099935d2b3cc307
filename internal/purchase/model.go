package purchase

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusActive    Status = "active"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a record may never transition again. Any event
// arriving for a terminal row is a no-op.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusActive, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type CoinPackage struct {
	ID         int       `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	LeadCoins  int       `db:"lead_coins" json:"lead_coins"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Purchase struct {
	ID               int        `db:"id" json:"id"`
	UserID           int        `db:"user_id" json:"user_id"`
	PackageID        int        `db:"package_id" json:"package_id"`
	PaymentSessionID string     `db:"payment_session_id" json:"payment_session_id"`
	Status           Status     `db:"status" json:"status"`
	LeadCoins        int        `db:"lead_coins" json:"lead_coins"`
	AmountCents      int64      `db:"amount_cents" json:"amount_cents"`
	PaymentVerified  bool       `db:"payment_verified" json:"payment_verified"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Subscription tracks a plan purchase. The granted coin amount is immutable;
// the spendable balance lives on the user row like every other credit.
type Subscription struct {
	ID               int        `db:"id" json:"id"`
	UserID           int        `db:"user_id" json:"user_id"`
	PlanType         string     `db:"plan_type" json:"plan_type"`
	PaymentSessionID string     `db:"payment_session_id" json:"payment_session_id"`
	Status           Status     `db:"status" json:"status"`
	LeadCoinsGranted int        `db:"lead_coins_granted" json:"lead_coins_granted"`
	AmountCents      int64      `db:"amount_cents" json:"amount_cents"`
	PaymentVerified  bool       `db:"payment_verified" json:"payment_verified"`
	ValidFrom        *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil       *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type PurchaseCoinsRequest struct {
	PackageID int `json:"package_id" binding:"required,gt=0"`
}

type PurchaseSubscriptionRequest struct {
	PlanType string `json:"plan_type" binding:"required"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// ReconcileResult summarizes one reconciliation pass for a session.
type ReconcileResult struct {
	Kind             string `json:"kind"`
	Status           Status `json:"status"`
	Credited         bool   `json:"credited"`
	CoinsCredited    int    `json:"coins_credited"`
	AlreadyProcessed bool   `json:"already_processed"`
}
