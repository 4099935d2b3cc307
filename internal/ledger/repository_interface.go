package ledger

import "context"

type Repository interface {
	GetBalance(ctx context.Context, userID int) (int, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
	MonthlySpend(ctx context.Context, userID int) (int, error)
	SendCoins(ctx context.Context, adminID, userID, amount int, description string) (int, error)
}
