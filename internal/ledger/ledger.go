package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
)

// Debit decrements a user's coin balance only when it covers the amount.
// The conditional UPDATE is the single gate against concurrent overdraws:
// two racing debits cannot both match `lead_coins >= amount`.
// Runs against the caller's transaction so the debit commits together with
// whatever record justified it.
func Debit(ctx context.Context, q sqlx.ExtContext, userID, amount int) (int, error) {
	row := q.QueryRowxContext(ctx,
		`UPDATE users
		 SET lead_coins = lead_coins - $2, updated_at = NOW()
		 WHERE id = $1 AND lead_coins >= $2
		 RETURNING lead_coins`,
		userID, amount,
	)

	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientBalance
		}
		return 0, err
	}

	return remaining, nil
}

// Credit increments a user's coin balance unconditionally.
func Credit(ctx context.Context, q sqlx.ExtContext, userID, amount int) (int, error) {
	row := q.QueryRowxContext(ctx,
		`UPDATE users
		 SET lead_coins = lead_coins + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING lead_coins`,
		userID, amount,
	)

	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	return balance, nil
}

// LogTransaction appends one ledger entry. Every balance mutation gets
// exactly one entry, written in the same transaction as the mutation.
func LogTransaction(ctx context.Context, q sqlx.ExtContext, userID int, adminID *int, amount int, kind Kind, description string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO coin_transactions (user_id, admin_id, amount, kind, description)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, adminID, amount, kind, description,
	)
	return err
}
