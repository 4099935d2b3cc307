package purchase

import "errors"

type Plan struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LeadCoins   int    `json:"lead_coins"`
	PriceCents  int64  `json:"price_cents"`
	PeriodDays  int    `json:"period_days"`
}

func Plans() []Plan {
	return []Plan{
		{
			Type:        "starter_monthly",
			Name:        "Starter",
			Description: "50 LeadCoins every month",
			LeadCoins:   50,
			PriceCents:  1499,
			PeriodDays:  30,
		},
		{
			Type:        "pro_monthly",
			Name:        "Pro",
			Description: "120 LeadCoins every month",
			LeadCoins:   120,
			PriceCents:  2999,
			PeriodDays:  30,
		},
		{
			Type:        "agency_monthly",
			Name:        "Agency",
			Description: "300 LeadCoins every month",
			LeadCoins:   300,
			PriceCents:  5999,
			PeriodDays:  30,
		},
	}
}

func findPlan(planType string) (Plan, error) {
	for _, p := range Plans() {
		if p.Type == planType {
			return p, nil
		}
	}
	return Plan{}, errors.New("unknown plan type")
}
