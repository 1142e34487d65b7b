// Package payments provides the subscription paywall: static plan listing,
// checkout session creation and status polling against the payment provider,
// and the provider webhook.
package payments

import "strings"

// Plan is one purchasable subscription plan.
type Plan struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Period string  `json:"period"`
}

// Plans is the static plan table. Plan prices live server-side only; the
// client never supplies an amount.
var Plans = map[string]Plan{
	"premium_monthly": {Name: "Premium Monthly", Price: 4.99, Period: "monthly"},
	"premium_yearly":  {Name: "Premium Yearly", Price: 39.99, Period: "yearly"},
}

// PeriodDays returns the subscription length granted by a plan.
func PeriodDays(planID string) int {
	if strings.Contains(planID, "yearly") {
		return 365
	}
	return 30
}
