package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"leadmarket/internal/logger"
	"leadmarket/internal/metrics"
	"leadmarket/internal/payment"
	"leadmarket/internal/user"
)

var ErrPlanNotFound = errors.New("subscription plan not found")

const (
	kindCoinPurchase = "coin_purchase"
	kindSubscription = "subscription"
)

// Notifier covers the post-credit side effects. All of them are best-effort.
type Notifier interface {
	NotifyCoinsReceived(ctx context.Context, userID, amount int, description string)
	BalanceRecovered(ctx context.Context, userID, newBalance int)
}

type Mailer interface {
	SendPurchaseConfirmation(ctx context.Context, email, name string, coins int) error
	SendSubscriptionActivated(ctx context.Context, email, name, planName string, coins int) error
}

type CheckoutURLs struct {
	SuccessURL string
	CancelURL  string
}

type Service interface {
	ListPackages(ctx context.Context) ([]CoinPackage, error)
	PurchaseCoins(ctx context.Context, userID, packageID int) (*CheckoutResponse, error)
	PurchaseSubscription(ctx context.Context, userID int, planType string) (*CheckoutResponse, error)
	Reconcile(ctx context.Context, sessionID string) (*ReconcileResult, error)
	HandleWebhookEvent(ctx context.Context, event *payment.Event) error
	ListPurchases(ctx context.Context, userID int) ([]Purchase, error)
	ListSubscriptions(ctx context.Context, userID int) ([]Subscription, error)
}

type service struct {
	repo     Repository
	provider payment.Provider
	users    user.Repository
	notifier Notifier
	mailer   Mailer
	urls     CheckoutURLs
}

func NewService(repo Repository, provider payment.Provider, users user.Repository, notifier Notifier, mailer Mailer, urls CheckoutURLs) Service {
	return &service{
		repo:     repo,
		provider: provider,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		urls:     urls,
	}
}

func (s *service) ListPackages(ctx context.Context) ([]CoinPackage, error) {
	return s.repo.ListPackages(ctx)
}

// PurchaseCoins opens a checkout session for a coin package. An unexpired
// pending purchase for the same package is reused instead of opening a
// second session; this path is user-initiated, so check-then-create is
// enough here.
func (s *service) PurchaseCoins(ctx context.Context, userID, packageID int) (*CheckoutResponse, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if pending, err := s.repo.FindPendingPurchase(ctx, userID, packageID); err != nil {
		return nil, err
	} else if pending != nil {
		return &CheckoutResponse{SessionID: pending.PaymentSessionID}, nil
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutItem{
		Name:        fmt.Sprintf("%s - %d LeadCoins", pkg.Name, pkg.LeadCoins),
		AmountCents: pkg.PriceCents,
		Metadata: map[string]string{
			"type":       kindCoinPurchase,
			"user_id":    strconv.Itoa(userID),
			"package_id": strconv.Itoa(packageID),
		},
	}, s.urls.SuccessURL, s.urls.CancelURL)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.CreatePurchase(ctx, userID, packageID, session.ID, pkg.LeadCoins, pkg.PriceCents); err != nil {
		return nil, err
	}

	return &CheckoutResponse{SessionID: session.ID, RedirectURL: session.URL}, nil
}

func (s *service) PurchaseSubscription(ctx context.Context, userID int, planType string) (*CheckoutResponse, error) {
	plan, err := findPlan(planType)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	if pending, err := s.repo.FindPendingSubscription(ctx, userID, planType); err != nil {
		return nil, err
	} else if pending != nil {
		return &CheckoutResponse{SessionID: pending.PaymentSessionID}, nil
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutItem{
		Name:        fmt.Sprintf("%s subscription - %d LeadCoins/month", plan.Name, plan.LeadCoins),
		AmountCents: plan.PriceCents,
		Metadata: map[string]string{
			"type":      kindSubscription,
			"user_id":   strconv.Itoa(userID),
			"plan_type": planType,
		},
	}, s.urls.SuccessURL, s.urls.CancelURL)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateSubscription(ctx, userID, planType, session.ID, plan.LeadCoins, plan.PriceCents); err != nil {
		return nil, err
	}

	return &CheckoutResponse{SessionID: session.ID, RedirectURL: session.URL}, nil
}

// Reconcile drives a session to its final state. It is safe to call from the
// polling endpoint and the webhook concurrently: the repository's
// conditional transition guarantees at most one caller credits.
func (s *service) Reconcile(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	if p, err := s.repo.FindPurchaseBySession(ctx, sessionID); err == nil {
		return s.reconcilePurchase(ctx, p)
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	sub, err := s.repo.FindSubscriptionBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.reconcileSubscription(ctx, sub)
}

func (s *service) reconcilePurchase(ctx context.Context, p *Purchase) (*ReconcileResult, error) {
	if p.Status.Terminal() {
		metrics.RecordReconciliation(kindCoinPurchase, "already_processed")
		return &ReconcileResult{Kind: kindCoinPurchase, Status: p.Status, AlreadyProcessed: true}, nil
	}

	status, err := s.provider.GetSessionStatus(ctx, p.PaymentSessionID)
	if err != nil {
		// Row stays pending; the caller or the provider retries.
		return nil, err
	}

	switch status {
	case payment.StatusPaid:
		completed, balance, err := s.repo.CompletePurchase(ctx, p.PaymentSessionID)
		if err != nil {
			if errors.Is(err, ErrAlreadyProcessed) {
				metrics.RecordReconciliation(kindCoinPurchase, "already_processed")
				return &ReconcileResult{Kind: kindCoinPurchase, Status: StatusCompleted, AlreadyProcessed: true}, nil
			}
			return nil, err
		}

		metrics.RecordReconciliation(kindCoinPurchase, "completed")
		metrics.RecordCredit("purchase", completed.LeadCoins)
		logger.Infof("Purchase completed: user=%d coins=%d session=%s", completed.UserID, completed.LeadCoins, p.PaymentSessionID)

		s.afterCredit(ctx, completed.UserID, completed.LeadCoins, balance, "Coin package purchase confirmed.", "")
		return &ReconcileResult{
			Kind:          kindCoinPurchase,
			Status:        StatusCompleted,
			Credited:      true,
			CoinsCredited: completed.LeadCoins,
		}, nil

	case payment.StatusFailed:
		if err := s.repo.FailPurchase(ctx, p.PaymentSessionID); err != nil {
			return nil, err
		}
		metrics.RecordReconciliation(kindCoinPurchase, "failed")
		return &ReconcileResult{Kind: kindCoinPurchase, Status: StatusFailed}, nil

	default:
		metrics.RecordReconciliation(kindCoinPurchase, "pending")
		return &ReconcileResult{Kind: kindCoinPurchase, Status: StatusPending}, nil
	}
}

func (s *service) reconcileSubscription(ctx context.Context, sub *Subscription) (*ReconcileResult, error) {
	if sub.Status.Terminal() {
		metrics.RecordReconciliation(kindSubscription, "already_processed")
		return &ReconcileResult{Kind: kindSubscription, Status: sub.Status, AlreadyProcessed: true}, nil
	}

	status, err := s.provider.GetSessionStatus(ctx, sub.PaymentSessionID)
	if err != nil {
		return nil, err
	}

	switch status {
	case payment.StatusPaid:
		plan, planErr := findPlan(sub.PlanType)
		periodDays := 30
		if planErr == nil {
			periodDays = plan.PeriodDays
		}

		active, balance, err := s.repo.ActivateSubscription(ctx, sub.PaymentSessionID, periodDays)
		if err != nil {
			if errors.Is(err, ErrAlreadyProcessed) {
				metrics.RecordReconciliation(kindSubscription, "already_processed")
				return &ReconcileResult{Kind: kindSubscription, Status: StatusActive, AlreadyProcessed: true}, nil
			}
			return nil, err
		}

		metrics.RecordReconciliation(kindSubscription, "activated")
		metrics.RecordCredit("subscription", active.LeadCoinsGranted)
		logger.Infof("Subscription activated: user=%d plan=%s coins=%d", active.UserID, active.PlanType, active.LeadCoinsGranted)

		s.afterCredit(ctx, active.UserID, active.LeadCoinsGranted, balance, "Subscription activated.", plan.Name)
		return &ReconcileResult{
			Kind:          kindSubscription,
			Status:        StatusActive,
			Credited:      true,
			CoinsCredited: active.LeadCoinsGranted,
		}, nil

	case payment.StatusFailed:
		if err := s.repo.FailSubscription(ctx, sub.PaymentSessionID); err != nil {
			return nil, err
		}
		metrics.RecordReconciliation(kindSubscription, "failed")
		return &ReconcileResult{Kind: kindSubscription, Status: StatusFailed}, nil

	default:
		metrics.RecordReconciliation(kindSubscription, "pending")
		return &ReconcileResult{Kind: kindSubscription, Status: StatusPending}, nil
	}
}

func (s *service) afterCredit(ctx context.Context, userID, coins, balance int, description, planName string) {
	s.notifier.NotifyCoinsReceived(ctx, userID, coins, description)
	s.notifier.BalanceRecovered(ctx, userID, balance)

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("Cannot load user %d for purchase email: %v", userID, err)
		return
	}

	if planName != "" {
		err = s.mailer.SendSubscriptionActivated(ctx, u.Email, u.Name, planName, coins)
	} else {
		err = s.mailer.SendPurchaseConfirmation(ctx, u.Email, u.Name, coins)
	}
	if err != nil {
		logger.Errorf("Purchase email to %s failed: %v", u.Email, err)
	}
}

// HandleWebhookEvent feeds a verified provider event into reconciliation.
// A completed session with no local row is recovered from the session
// metadata instead of being dropped.
func (s *service) HandleWebhookEvent(ctx context.Context, event *payment.Event) error {
	session := event.Data.Object

	switch event.Type {
	case payment.EventCheckoutCompleted:
		_, err := s.Reconcile(ctx, session.ID)
		if errors.Is(err, ErrRecordNotFound) {
			if createErr := s.createFromMetadata(ctx, session); createErr != nil {
				return createErr
			}
			_, err = s.Reconcile(ctx, session.ID)
		}
		return err

	case payment.EventCheckoutExpired:
		if err := s.repo.FailPurchase(ctx, session.ID); err != nil {
			return err
		}
		return s.repo.FailSubscription(ctx, session.ID)

	default:
		logger.Debugf("Ignoring webhook event type %s", event.Type)
		return nil
	}
}

func (s *service) createFromMetadata(ctx context.Context, session payment.WebhookSession) error {
	userID, err := strconv.Atoi(session.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("webhook session %s has no usable user_id metadata: %w", session.ID, ErrRecordNotFound)
	}

	switch session.Metadata["type"] {
	case kindSubscription:
		plan, err := findPlan(session.Metadata["plan_type"])
		if err != nil {
			return fmt.Errorf("webhook session %s references unknown plan: %w", session.ID, ErrRecordNotFound)
		}
		_, err = s.repo.CreateSubscription(ctx, userID, plan.Type, session.ID, plan.LeadCoins, plan.PriceCents)
		return err

	case kindCoinPurchase:
		packageID, err := strconv.Atoi(session.Metadata["package_id"])
		if err != nil {
			return fmt.Errorf("webhook session %s has no usable package_id metadata: %w", session.ID, ErrRecordNotFound)
		}
		pkg, err := s.repo.GetPackage(ctx, packageID)
		if err != nil {
			return err
		}
		_, err = s.repo.CreatePurchase(ctx, userID, packageID, session.ID, pkg.LeadCoins, pkg.PriceCents)
		return err

	default:
		return fmt.Errorf("webhook session %s has unknown type metadata: %w", session.ID, ErrRecordNotFound)
	}
}

func (s *service) ListPurchases(ctx context.Context, userID int) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, userID)
}

func (s *service) ListSubscriptions(ctx context.Context, userID int) ([]Subscription, error) {
	return s.repo.ListSubscriptions(ctx, userID)
}
