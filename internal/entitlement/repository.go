package entitlement

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
	ErrInvalidViewType = errors.New("invalid view type")
	ErrAlreadyUnlocked = errors.New("tier already unlocked")
)

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSettings(ctx context.Context) (*CostSettings, error) {
	var s CostSettings
	err := r.db.GetContext(ctx, &s,
		`SELECT id, contact_info_cost, detailed_info_cost, full_access_cost, updated_at
		 FROM lead_coin_settings WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cost settings: %w", err)
	}
	return &s, nil
}

func (r *repository) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*CostSettings, error) {
	var s CostSettings
	err := r.db.GetContext(ctx, &s, `
		UPDATE lead_coin_settings
		SET contact_info_cost = $1, detailed_info_cost = $2, full_access_cost = $3, updated_at = NOW()
		WHERE id = 1
		RETURNING id, contact_info_cost, detailed_info_cost, full_access_cost, updated_at
	`, req.ContactInfoCost, req.DetailedInfoCost, req.FullAccessCost)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetView(ctx context.Context, userID, leadID int, viewType ViewType) (*LeadView, error) {
	query := `
		SELECT id, user_id, lead_id, coins_spent, view_type, viewed_at
		FROM lead_views
		WHERE user_id = $1 AND lead_id = $2 AND view_type = $3
	`

	var v LeadView
	if err := r.db.GetContext(ctx, &v, query, userID, leadID, viewType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &v, nil
}

func (r *repository) HasViewed(ctx context.Context, userID, leadID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM lead_views
			WHERE user_id = $1 AND lead_id = $2
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, leadID); err != nil {
		return false, err
	}

	return exists, nil
}

// UnlockLead performs the debit, the spent log entry and the view record as
// one transaction. The conditional debit keeps the balance non-negative
// under concurrent unlocks; the (user, lead, view_type) unique index turns
// a concurrent duplicate of the same tier into ErrAlreadyUnlocked with the
// whole transaction rolled back, so the loser is never charged.
func (r *repository) UnlockLead(ctx context.Context, userID, leadID, cost int, viewType ViewType) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	remaining, err := ledger.Debit(ctx, tx, userID, cost)
	if err != nil {
		return 0, err
	}

	description := fmt.Sprintf("Unlocked %s for lead #%d", viewType, leadID)
	if err := ledger.LogTransaction(ctx, tx, userID, nil, -cost, ledger.KindSpent, description); err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lead_views (user_id, lead_id, coins_spent, view_type)
		 VALUES ($1, $2, $3, $4)`,
		userID, leadID, cost, viewType,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return 0, ErrAlreadyUnlocked
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return remaining, nil
}
