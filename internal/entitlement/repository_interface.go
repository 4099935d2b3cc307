package entitlement

import "context"

type Repository interface {
	GetSettings(ctx context.Context) (*CostSettings, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*CostSettings, error)
	GetView(ctx context.Context, userID, leadID int, viewType ViewType) (*LeadView, error)
	HasViewed(ctx context.Context, userID, leadID int) (bool, error)
	UnlockLead(ctx context.Context, userID, leadID, cost int, viewType ViewType) (int, error)
}
