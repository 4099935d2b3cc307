package entitlement

import (
	"time"

	"leadmarket/internal/lead"
)

type ViewType string

const (
	ViewContactInfo  ViewType = "contact_info"
	ViewDetailedInfo ViewType = "detailed_info"
	ViewFullAccess   ViewType = "full_access"
)

// ParseViewType rejects unknown tiers instead of silently downgrading them
// to contact_info; a bad tier is a client error, not a cheaper purchase.
func ParseViewType(s string) (ViewType, error) {
	switch ViewType(s) {
	case ViewContactInfo, ViewDetailedInfo, ViewFullAccess:
		return ViewType(s), nil
	}
	return "", ErrInvalidViewType
}

// CostSettings is the singleton row holding per-tier unlock prices.
type CostSettings struct {
	ID               int       `db:"id" json:"-"`
	ContactInfoCost  int       `db:"contact_info_cost" json:"contact_info_cost"`
	DetailedInfoCost int       `db:"detailed_info_cost" json:"detailed_info_cost"`
	FullAccessCost   int       `db:"full_access_cost" json:"full_access_cost"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (s *CostSettings) CostFor(vt ViewType) int {
	switch vt {
	case ViewDetailedInfo:
		return s.DetailedInfoCost
	case ViewFullAccess:
		return s.FullAccessCost
	default:
		return s.ContactInfoCost
	}
}

type LeadView struct {
	ID         int       `db:"id" json:"id"`
	UserID     int       `db:"user_id" json:"user_id"`
	LeadID     int       `db:"lead_id" json:"lead_id"`
	CoinsSpent int       `db:"coins_spent" json:"coins_spent"`
	ViewType   ViewType  `db:"view_type" json:"view_type"`
	ViewedAt   time.Time `db:"viewed_at" json:"viewed_at"`
}

type UnlockRequest struct {
	ViewType string `json:"view_type" binding:"required"`
}

type UnlockResult struct {
	LeadID         int          `json:"lead_id"`
	ViewType       ViewType     `json:"view_type"`
	CoinsSpent     int          `json:"coins_spent"`
	RemainingCoins int          `json:"remaining_coins"`
	Contact        lead.Contact `json:"contact"`
}

type UpdateSettingsRequest struct {
	ContactInfoCost  int `json:"contact_info_cost" binding:"required,gt=0"`
	DetailedInfoCost int `json:"detailed_info_cost" binding:"required,gt=0"`
	FullAccessCost   int `json:"full_access_cost" binding:"required,gt=0"`
}
