// Package pricing derives effective unit prices from quantity tiers.
package pricing

import "github.com/mdbytes/reads-backend/pkg/db/models"

// Tier boundaries for quantity pricing. Quantities of fifty or fewer
// pay the base price, fifty-one through one hundred pay the mid tier,
// and anything above one hundred pays the bulk tier.
const (
	BaseTierMax = 50
	MidTierMax  = 100
)

// UnitPriceCents returns the effective per-unit price in cents for the
// given quantity. Non-positive quantities price at the base tier.
func UnitPriceCents(p *models.Product, quantity int) int {
	switch {
	case quantity <= BaseTierMax:
		return p.PriceCents
	case quantity <= MidTierMax:
		return p.Price50Cents
	default:
		return p.Price100Cents
	}
}

// LineTotalCents returns quantity times the effective unit price.
func LineTotalCents(p *models.Product, quantity int) int {
	return quantity * UnitPriceCents(p, quantity)
}
