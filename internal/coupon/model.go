package coupon

import "time"

type Coupon struct {
	ID          int       `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	CoinAmount  int       `db:"coin_amount" json:"coin_amount"`
	MaxUses     int       `db:"max_uses" json:"max_uses"`
	CurrentUses int       `db:"current_uses" json:"current_uses"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Claim struct {
	ID            int       `db:"id" json:"id"`
	CouponID      int       `db:"coupon_id" json:"coupon_id"`
	UserID        int       `db:"user_id" json:"user_id"`
	CoinsReceived int       `db:"coins_received" json:"coins_received"`
	ClaimedAt     time.Time `db:"claimed_at" json:"claimed_at"`
}

type ClaimRequest struct {
	Code string `json:"code" binding:"required"`
}

type ClaimResult struct {
	CoinsReceived int `json:"coins_received"`
	NewBalance    int `json:"new_balance"`
}

type CreateCouponRequest struct {
	Code       string `json:"code" binding:"required,min=3,max=50"`
	CoinAmount int    `json:"coin_amount" binding:"required,gt=0"`
	MaxUses    int    `json:"max_uses" binding:"required,gt=0"`
}
