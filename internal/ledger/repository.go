package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBalance(ctx context.Context, userID int) (int, error) {
	var balance int
	err := r.db.GetContext(ctx, &balance,
		`SELECT lead_coins FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, admin_id, amount, kind, description, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *repository) MonthlySpend(ctx context.Context, userID int) (int, error) {
	var spent int
	err := r.db.GetContext(ctx, &spent, `
		SELECT COALESCE(SUM(-amount), 0)
		FROM coin_transactions
		WHERE user_id = $1
		  AND kind = 'spent'
		  AND created_at >= date_trunc('month', NOW())
	`, userID)
	if err != nil {
		return 0, err
	}
	return spent, nil
}

// SendCoins credits a user on behalf of an administrator. The credit and its
// log entry commit as one unit.
func (r *repository) SendCoins(ctx context.Context, adminID, userID, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("send amount must be positive")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := Credit(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}

	if err := LogTransaction(ctx, tx, userID, &adminID, amount, KindAdminTopup, description); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return balance, nil
}
