package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"leadmarket/internal/ledger"
)

var (
	ErrPackageNotFound  = errors.New("coin package not found")
	ErrRecordNotFound   = errors.New("purchase record not found")
	ErrAlreadyProcessed = errors.New("payment already processed")
)

const purchaseColumns = `id, user_id, package_id, payment_session_id, status, lead_coins, amount_cents, payment_verified, created_at, completed_at`

const subscriptionColumns = `id, user_id, plan_type, payment_session_id, status, lead_coins_granted, amount_cents, payment_verified, valid_from, valid_until, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPackages(ctx context.Context) ([]CoinPackage, error) {
	var packages []CoinPackage
	err := r.db.SelectContext(ctx, &packages, `
		SELECT id, name, lead_coins, price_cents, active, created_at
		FROM coin_packages
		WHERE active
		ORDER BY price_cents
	`)
	if err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *repository) GetPackage(ctx context.Context, id int) (*CoinPackage, error) {
	var p CoinPackage
	err := r.db.GetContext(ctx, &p,
		`SELECT id, name, lead_coins, price_cents, active, created_at
		 FROM coin_packages WHERE id = $1 AND active`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreatePurchase(ctx context.Context, userID, packageID int, sessionID string, coins int, amountCents int64) (*Purchase, error) {
	query := `
		INSERT INTO coin_purchases (user_id, package_id, payment_session_id, lead_coins, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + purchaseColumns

	var p Purchase
	if err := r.db.GetContext(ctx, &p, query, userID, packageID, sessionID, coins, amountCents); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindPendingPurchase(ctx context.Context, userID, packageID int) (*Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM coin_purchases
		WHERE user_id = $1 AND package_id = $2 AND status = 'pending'
		  AND created_at > NOW() - INTERVAL '24 hours'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p Purchase
	if err := r.db.GetContext(ctx, &p, query, userID, packageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindPurchaseBySession(ctx context.Context, sessionID string) (*Purchase, error) {
	var p Purchase
	err := r.db.GetContext(ctx, &p,
		`SELECT `+purchaseColumns+` FROM coin_purchases WHERE payment_session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CompletePurchase flips a pending purchase to completed and credits the
// ledger in one transaction. The conditional UPDATE on status = 'pending' is
// the idempotency gate: a duplicate webhook or a poll racing the webhook
// matches zero rows, rolls back and reports ErrAlreadyProcessed, so the
// credit lands exactly once.
func (r *repository) CompletePurchase(ctx context.Context, sessionID string) (*Purchase, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	query := `
		UPDATE coin_purchases
		SET status = 'completed', payment_verified = TRUE, completed_at = NOW()
		WHERE payment_session_id = $1 AND status = 'pending'
		RETURNING ` + purchaseColumns

	var p Purchase
	if err := tx.GetContext(ctx, &p, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, r.classifyMissedPurchase(ctx, sessionID)
		}
		return nil, 0, err
	}

	balance, err := ledger.Credit(ctx, tx, p.UserID, p.LeadCoins)
	if err != nil {
		return nil, 0, err
	}

	description := fmt.Sprintf("Purchased %d LeadCoins (session %s)", p.LeadCoins, sessionID)
	if err := ledger.LogTransaction(ctx, tx, p.UserID, nil, p.LeadCoins, ledger.KindPurchase, description); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	return &p, balance, nil
}

func (r *repository) classifyMissedPurchase(ctx context.Context, sessionID string) error {
	var status Status
	err := r.db.GetContext(ctx, &status,
		`SELECT status FROM coin_purchases WHERE payment_session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}
	if status.Terminal() {
		return ErrAlreadyProcessed
	}
	return fmt.Errorf("purchase %s in unexpected state %s", sessionID, status)
}

func (r *repository) FailPurchase(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE coin_purchases
		 SET status = 'failed', completed_at = NOW()
		 WHERE payment_session_id = $1 AND status = 'pending'`,
		sessionID,
	)
	return err
}

func (r *repository) ListPurchases(ctx context.Context, userID int) ([]Purchase, error) {
	var purchases []Purchase
	err := r.db.SelectContext(ctx, &purchases,
		`SELECT `+purchaseColumns+`
		 FROM coin_purchases
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *repository) CreateSubscription(ctx context.Context, userID int, planType, sessionID string, coins int, amountCents int64) (*Subscription, error) {
	query := `
		INSERT INTO user_subscriptions (user_id, plan_type, payment_session_id, lead_coins_granted, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + subscriptionColumns

	var s Subscription
	if err := r.db.GetContext(ctx, &s, query, userID, planType, sessionID, coins, amountCents); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindPendingSubscription(ctx context.Context, userID int, planType string) (*Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscriptions
		WHERE user_id = $1 AND plan_type = $2 AND status = 'pending'
		  AND created_at > NOW() - INTERVAL '24 hours'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var s Subscription
	if err := r.db.GetContext(ctx, &s, query, userID, planType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindSubscriptionBySession(ctx context.Context, sessionID string) (*Subscription, error) {
	var s Subscription
	err := r.db.GetContext(ctx, &s,
		`SELECT `+subscriptionColumns+` FROM user_subscriptions WHERE payment_session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ActivateSubscription mirrors CompletePurchase: conditional transition out
// of pending, coin grant and log entry in one transaction.
func (r *repository) ActivateSubscription(ctx context.Context, sessionID string, periodDays int) (*Subscription, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		UPDATE user_subscriptions
		SET status = 'active', payment_verified = TRUE,
		    valid_from = NOW(), valid_until = NOW() + INTERVAL '%d days', updated_at = NOW()
		WHERE payment_session_id = $1 AND status = 'pending'
		RETURNING `+subscriptionColumns, periodDays)

	var s Subscription
	if err := tx.GetContext(ctx, &s, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, r.classifyMissedSubscription(ctx, sessionID)
		}
		return nil, 0, err
	}

	balance, err := ledger.Credit(ctx, tx, s.UserID, s.LeadCoinsGranted)
	if err != nil {
		return nil, 0, err
	}

	description := fmt.Sprintf("Subscription %s activated: %d LeadCoins (session %s)", s.PlanType, s.LeadCoinsGranted, sessionID)
	if err := ledger.LogTransaction(ctx, tx, s.UserID, nil, s.LeadCoinsGranted, ledger.KindPurchase, description); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	return &s, balance, nil
}

func (r *repository) classifyMissedSubscription(ctx context.Context, sessionID string) error {
	var status Status
	err := r.db.GetContext(ctx, &status,
		`SELECT status FROM user_subscriptions WHERE payment_session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}
	if status.Terminal() {
		return ErrAlreadyProcessed
	}
	return fmt.Errorf("subscription %s in unexpected state %s", sessionID, status)
}

func (r *repository) FailSubscription(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_subscriptions
		 SET status = 'failed', updated_at = NOW()
		 WHERE payment_session_id = $1 AND status = 'pending'`,
		sessionID,
	)
	return err
}

func (r *repository) ListSubscriptions(ctx context.Context, userID int) ([]Subscription, error) {
	var subs []Subscription
	err := r.db.SelectContext(ctx, &subs,
		`SELECT `+subscriptionColumns+`
		 FROM user_subscriptions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return subs, nil
}
