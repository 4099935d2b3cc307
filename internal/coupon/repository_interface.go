package coupon

import "context"

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Claim(ctx context.Context, userID int, coupon *Coupon) (int, error)
}
