package entitlement

import (
	"context"
	"errors"
	"fmt"

	"leadmarket/internal/lead"
	"leadmarket/internal/ledger"
	"leadmarket/internal/logger"
	"leadmarket/internal/metrics"
)

// InsufficientBalanceError carries what the unlock needed against what the
// account holds.
type InsufficientBalanceError struct {
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ledger.ErrInsufficientBalance
}

// Notifier is invoked after a successful debit; it must never fail the unlock.
type Notifier interface {
	CheckLowBalance(ctx context.Context, userID, newBalance int)
}

type Service interface {
	UnlockLead(ctx context.Context, userID, leadID int, viewType ViewType) (*UnlockResult, error)
	HasViewed(ctx context.Context, userID, leadID int) (bool, error)
	GetSettings(ctx context.Context) (*CostSettings, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*CostSettings, error)
}

type service struct {
	repo     Repository
	leads    lead.Repository
	coins    ledger.Repository
	notifier Notifier
}

func NewService(repo Repository, leads lead.Repository, coins ledger.Repository, notifier Notifier) Service {
	return &service{
		repo:     repo,
		leads:    leads,
		coins:    coins,
		notifier: notifier,
	}
}

func (s *service) UnlockLead(ctx context.Context, userID, leadID int, viewType ViewType) (*UnlockResult, error) {
	l, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	// A tier already paid for is free on every later request.
	existing, err := s.repo.GetView(ctx, userID, leadID, viewType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.freeResult(ctx, userID, l, viewType)
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	cost := settings.CostFor(viewType)

	remaining, err := s.repo.UnlockLead(ctx, userID, leadID, cost, viewType)
	if err != nil {
		if errors.Is(err, ErrAlreadyUnlocked) {
			// Lost a race against our own duplicate request; the debit
			// rolled back, so serve the already-paid view.
			return s.freeResult(ctx, userID, l, viewType)
		}
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			available, balErr := s.coins.GetBalance(ctx, userID)
			if balErr != nil {
				logger.Errorf("Failed to read balance for user %d: %v", userID, balErr)
			}
			metrics.RecordLeadUnlock(string(viewType), "insufficient_balance", 0)
			return nil, &InsufficientBalanceError{Required: cost, Available: available}
		}
		return nil, err
	}

	metrics.RecordLeadUnlock(string(viewType), "success", cost)
	logger.Infof("Lead unlocked: user=%d lead=%d tier=%s cost=%d remaining=%d", userID, leadID, viewType, cost, remaining)

	s.notifier.CheckLowBalance(ctx, userID, remaining)

	return &UnlockResult{
		LeadID:         leadID,
		ViewType:       viewType,
		CoinsSpent:     cost,
		RemainingCoins: remaining,
		Contact:        l.Contact(),
	}, nil
}

func (s *service) freeResult(ctx context.Context, userID int, l *lead.Lead, viewType ViewType) (*UnlockResult, error) {
	balance, err := s.coins.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics.RecordLeadUnlock(string(viewType), "already_unlocked", 0)

	return &UnlockResult{
		LeadID:         l.ID,
		ViewType:       viewType,
		CoinsSpent:     0,
		RemainingCoins: balance,
		Contact:        l.Contact(),
	}, nil
}

func (s *service) HasViewed(ctx context.Context, userID, leadID int) (bool, error) {
	return s.repo.HasViewed(ctx, userID, leadID)
}

func (s *service) GetSettings(ctx context.Context) (*CostSettings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *service) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*CostSettings, error) {
	return s.repo.UpdateSettings(ctx, req)
}
