// Package coupon models discount-card pricing at pharmacies.
package coupon

import (
	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/normalize"
	"github.com/scriptradar/rxquote/internal/stablehash"
)

// Provider is a discount-card program and the fraction it knocks off the
// cash price.
type Provider struct {
	Name     string  `yaml:"name"`
	Discount float64 `yaml:"discount"`
}

// DefaultProviders returns the built-in provider table.
func DefaultProviders() []Provider {
	return []Provider{
		{Name: "SingleCare", Discount: 0.35},
		{Name: "GoodRx", Discount: 0.40},
		{Name: "RxSaver", Discount: 0.30},
		{Name: "WellRx", Discount: 0.25},
		{Name: "Optum Perks", Discount: 0.32},
	}
}

// acceptanceBuckets of the 10 hash buckets accept coupons (~70% of
// pharmacies). Eligibility is a property of the pharmacy, not a per-call
// coin flip.
const acceptanceBuckets = 7

// Model produces deterministic coupon quotes.
type Model struct {
	providers []Provider
}

// NewModel creates a coupon model. With no providers the default table is
// used.
func NewModel(providers []Provider) *Model {
	if len(providers) == 0 {
		providers = DefaultProviders()
	}
	return &Model{providers: providers}
}

// Quote returns the coupon offer available at a pharmacy, or nil when the
// pharmacy does not accept coupons. The provider and discounted price are
// stable for a given pharmacy name.
func (m *Model) Quote(cashPrice float64, pharmacyName string) *model.CouponOffer {
	if cashPrice <= 0 {
		return nil
	}
	if stablehash.Bucket(pharmacyName, 10) >= acceptanceBuckets {
		return nil
	}

	p := m.providers[stablehash.Bucket(pharmacyName, len(m.providers))]
	price := normalize.Round2(cashPrice * (1 - p.Discount))
	return &model.CouponOffer{
		Provider: p.Name,
		Price:    price,
		Savings:  normalize.Round2(cashPrice - price),
	}
}
