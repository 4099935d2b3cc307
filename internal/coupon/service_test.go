package coupon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCouponRepo struct{ mock.Mock }
type MockNotifier struct{ mock.Mock }

func (m *MockCouponRepo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockCouponRepo) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockCouponRepo) List(ctx context.Context) ([]Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Coupon), args.Error(1)
}

func (m *MockCouponRepo) Claim(ctx context.Context, userID int, coupon *Coupon) (int, error) {
	args := m.Called(ctx, userID, coupon)
	return args.Int(0), args.Error(1)
}

func (m *MockNotifier) NotifyCouponClaimed(ctx context.Context, userID, coins int, code string) {
	m.Called(ctx, userID, coins, code)
}

func (m *MockNotifier) BalanceRecovered(ctx context.Context, userID, newBalance int) {
	m.Called(ctx, userID, newBalance)
}

func launchCoupon() *Coupon {
	return &Coupon{ID: 1, Code: "LAUNCH10", CoinAmount: 10, MaxUses: 100, CurrentUses: 40, Active: true}
}

func TestClaimCoupon_Success(t *testing.T) {
	repo := new(MockCouponRepo)
	nf := new(MockNotifier)

	repo.On("GetByCode", mock.Anything, "LAUNCH10").Return(launchCoupon(), nil)
	repo.On("Claim", mock.Anything, 4, mock.Anything).Return(30, nil)
	nf.On("NotifyCouponClaimed", mock.Anything, 4, 10, "LAUNCH10").Return()
	nf.On("BalanceRecovered", mock.Anything, 4, 30).Return()

	svc := NewService(repo, nf)
	result, err := svc.ClaimCoupon(context.Background(), 4, "LAUNCH10")

	require.NoError(t, err)
	assert.Equal(t, 10, result.CoinsReceived)
	assert.Equal(t, 30, result.NewBalance)
	repo.AssertExpectations(t)
	nf.AssertExpectations(t)
}

func TestClaimCoupon_NotFound(t *testing.T) {
	repo := new(MockCouponRepo)
	nf := new(MockNotifier)

	repo.On("GetByCode", mock.Anything, "NOPE").Return(nil, ErrCouponNotFound)

	svc := NewService(repo, nf)
	_, err := svc.ClaimCoupon(context.Background(), 4, "NOPE")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestClaimCoupon_Inactive(t *testing.T) {
	repo := new(MockCouponRepo)
	nf := new(MockNotifier)

	c := launchCoupon()
	c.Active = false
	repo.On("GetByCode", mock.Anything, "LAUNCH10").Return(c, nil)

	svc := NewService(repo, nf)
	_, err := svc.ClaimCoupon(context.Background(), 4, "LAUNCH10")
	assert.ErrorIs(t, err, ErrInactive)
	repo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestClaimCoupon_Exhausted(t *testing.T) {
	repo := new(MockCouponRepo)
	nf := new(MockNotifier)

	c := launchCoupon()
	c.CurrentUses = c.MaxUses
	repo.On("GetByCode", mock.Anything, "LAUNCH10").Return(c, nil)

	svc := NewService(repo, nf)
	_, err := svc.ClaimCoupon(context.Background(), 4, "LAUNCH10")
	assert.ErrorIs(t, err, ErrExhausted)
	repo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestClaimCoupon_RaceOnLastUse(t *testing.T) {
	repo := new(MockCouponRepo)
	nf := new(MockNotifier)

	// The read saw one use left, but another claim took it before our
	// transaction's conditional increment ran.
	c := launchCoupon()
	c.CurrentUses = c.MaxUses - 1
	repo.On("GetByCode", mock.Anything, "LAUNCH10").Return(c, nil)
	repo.On("Claim", mock.Anything, 4, mock.Anything).Return(0, ErrExhausted)

	svc := NewService(repo, nf)
	_, err := svc.ClaimCoupon(context.Background(), 4, "LAUNCH10")
	assert.ErrorIs(t, err, ErrExhausted)
	nf.AssertNotCalled(t, "NotifyCouponClaimed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClaimCoupon_SecondClaimRejected(t *testing.T) {
	repo := new(MockCouponRepo)
	nf := new(MockNotifier)

	repo.On("GetByCode", mock.Anything, "LAUNCH10").Return(launchCoupon(), nil)
	repo.On("Claim", mock.Anything, 4, mock.Anything).Return(0, ErrAlreadyClaimed)

	svc := NewService(repo, nf)
	_, err := svc.ClaimCoupon(context.Background(), 4, "LAUNCH10")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	nf.AssertNotCalled(t, "BalanceRecovered", mock.Anything, mock.Anything, mock.Anything)
}
