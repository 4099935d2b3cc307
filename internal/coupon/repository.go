package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"leadmarket/internal/ledger"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrInactive       = errors.New("coupon is inactive")
	ErrExhausted      = errors.New("coupon has no uses left")
	ErrAlreadyClaimed = errors.New("coupon already claimed by this user")
	ErrCodeExists     = errors.New("coupon code already exists")
)

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := r.db.GetContext(ctx, &c,
		`SELECT id, code, coin_amount, max_uses, current_uses, active, created_at
		 FROM coupons WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	query := `
		INSERT INTO coupons (code, coin_amount, max_uses)
		VALUES ($1, $2, $3)
		RETURNING id, code, coin_amount, max_uses, current_uses, active, created_at
	`

	var c Coupon
	if err := r.db.GetContext(ctx, &c, query, req.Code, req.CoinAmount, req.MaxUses); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrCodeExists
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) List(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	err := r.db.SelectContext(ctx, &coupons,
		`SELECT id, code, coin_amount, max_uses, current_uses, active, created_at
		 FROM coupons
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

// Claim performs the whole redemption in one transaction. The unique
// (coupon_id, user_id) index rejects a concurrent double-claim by the same
// user; the conditional current_uses increment caps capacity. Either guard
// failing rolls back the credit.
func (r *repository) Claim(ctx context.Context, userID int, coupon *Coupon) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO coupon_claims (coupon_id, user_id, coins_received)
		 VALUES ($1, $2, $3)`,
		coupon.ID, userID, coupon.CoinAmount,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return 0, ErrAlreadyClaimed
		}
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE coupons
		 SET current_uses = current_uses + 1
		 WHERE id = $1 AND active AND current_uses < max_uses`,
		coupon.ID,
	)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rowsAffected == 0 {
		return 0, ErrExhausted
	}

	balance, err := ledger.Credit(ctx, tx, userID, coupon.CoinAmount)
	if err != nil {
		return 0, err
	}

	description := fmt.Sprintf("Coupon %s: %d LeadCoins", coupon.Code, coupon.CoinAmount)
	if err := ledger.LogTransaction(ctx, tx, userID, nil, coupon.CoinAmount, ledger.KindCoupon, description); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return balance, nil
}
