package notification

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	TypeLowBalance    = "low_balance"
	TypeCoinsReceived = "coins_received"
	TypeCouponClaimed = "coupon_claimed"
)

// Thresholds at which a dropping balance raises a low_balance notification,
// lowest first. A crossing fires the lowest threshold at or above the new
// balance, at most one per debit.
var LowBalanceThresholds = []int{0, 5, 10}

type Notification struct {
	ID        int            `db:"id" json:"id"`
	UserID    int            `db:"user_id" json:"user_id"`
	Type      string         `db:"type" json:"type"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Read      bool           `db:"read" json:"read"`
	Metadata  types.JSONText `db:"metadata" json:"metadata"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
