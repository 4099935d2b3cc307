package purchase

import "context"

type Repository interface {
	ListPackages(ctx context.Context) ([]CoinPackage, error)
	GetPackage(ctx context.Context, id int) (*CoinPackage, error)

	CreatePurchase(ctx context.Context, userID, packageID int, sessionID string, coins int, amountCents int64) (*Purchase, error)
	FindPendingPurchase(ctx context.Context, userID, packageID int) (*Purchase, error)
	FindPurchaseBySession(ctx context.Context, sessionID string) (*Purchase, error)
	CompletePurchase(ctx context.Context, sessionID string) (*Purchase, int, error)
	FailPurchase(ctx context.Context, sessionID string) error
	ListPurchases(ctx context.Context, userID int) ([]Purchase, error)

	CreateSubscription(ctx context.Context, userID int, planType, sessionID string, coins int, amountCents int64) (*Subscription, error)
	FindPendingSubscription(ctx context.Context, userID int, planType string) (*Subscription, error)
	FindSubscriptionBySession(ctx context.Context, sessionID string) (*Subscription, error)
	ActivateSubscription(ctx context.Context, sessionID string, periodDays int) (*Subscription, int, error)
	FailSubscription(ctx context.Context, sessionID string) error
	ListSubscriptions(ctx context.Context, userID int) ([]Subscription, error)
}
