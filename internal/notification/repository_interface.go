package notification

import "context"

type Repository interface {
	Create(ctx context.Context, userID int, ntype, title, message string, metadata map[string]interface{}) (*Notification, error)
	HasUnreadLowBalance(ctx context.Context, userID, threshold int) (bool, error)
	MarkLowBalanceRead(ctx context.Context, userID int) error
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
}
