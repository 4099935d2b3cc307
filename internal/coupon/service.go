package coupon

import (
	"context"

	"leadmarket/internal/logger"
	"leadmarket/internal/metrics"
)

type Notifier interface {
	NotifyCouponClaimed(ctx context.Context, userID, coins int, code string)
	BalanceRecovered(ctx context.Context, userID, newBalance int)
}

type Service interface {
	ClaimCoupon(ctx context.Context, userID int, code string) (*ClaimResult, error)
	CreateCoupon(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
	ListCoupons(ctx context.Context) ([]Coupon, error)
}

type service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
	}
}

// ClaimCoupon redeems a code for the caller. The precondition reads give
// friendly errors on the common paths; the claim transaction itself re-checks
// both guards atomically, so racing claims cannot exceed capacity or claim
// twice.
func (s *service) ClaimCoupon(ctx context.Context, userID int, code string) (*ClaimResult, error) {
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		metrics.RecordCouponClaim("not_found")
		return nil, err
	}

	if !coupon.Active {
		metrics.RecordCouponClaim("inactive")
		return nil, ErrInactive
	}
	if coupon.CurrentUses >= coupon.MaxUses {
		metrics.RecordCouponClaim("exhausted")
		return nil, ErrExhausted
	}

	balance, err := s.repo.Claim(ctx, userID, coupon)
	if err != nil {
		switch err {
		case ErrAlreadyClaimed:
			metrics.RecordCouponClaim("already_claimed")
		case ErrExhausted:
			metrics.RecordCouponClaim("exhausted")
		default:
			metrics.RecordCouponClaim("error")
		}
		return nil, err
	}

	metrics.RecordCouponClaim("claimed")
	metrics.RecordCredit("coupon", coupon.CoinAmount)
	logger.Infof("Coupon claimed: user=%d code=%s coins=%d", userID, code, coupon.CoinAmount)

	s.notifier.NotifyCouponClaimed(ctx, userID, coupon.CoinAmount, code)
	s.notifier.BalanceRecovered(ctx, userID, balance)

	return &ClaimResult{
		CoinsReceived: coupon.CoinAmount,
		NewBalance:    balance,
	}, nil
}

func (s *service) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	return s.repo.Create(ctx, req)
}

func (s *service) ListCoupons(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}
