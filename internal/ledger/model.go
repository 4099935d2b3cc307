package ledger

import "time"

type Kind string

const (
	KindPurchase   Kind = "purchase"
	KindAdminTopup Kind = "admin_topup"
	KindSpent      Kind = "spent"
	KindRefund     Kind = "refund"
	KindCoupon     Kind = "coupon"
)

// Transaction is one append-only ledger entry. Amount is signed: credits
// are positive, debits negative.
type Transaction struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	AdminID     *int      `db:"admin_id" json:"admin_id,omitempty"`
	Amount      int       `db:"amount" json:"amount"`
	Kind        Kind      `db:"kind" json:"kind"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type BalanceResponse struct {
	UserID       int `json:"user_id"`
	LeadCoins    int `json:"lead_coins"`
	MonthlySpend int `json:"monthly_spend"`
}

type SendCoinsRequest struct {
	Amount      int    `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}
