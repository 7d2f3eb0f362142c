package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Pricing holds the tax and shipping rules applied at checkout.
type Pricing struct {
	TaxRate                    decimal.Decimal
	FreeShippingThresholdCents int
	ShippingRateCents          int
}

// Totals is the frozen monetary breakdown of an order, in cents.
type Totals struct {
	SubtotalCents int
	ShippingCents int
	TaxCents      int
	DiscountCents int
	TotalCents    int
}

// PricingFromConfig parses the checkout configuration.
func PricingFromConfig(cfg config.CheckoutConfig) (Pricing, error) {
	rate, err := money.ParseRate(cfg.TaxRate)
	if err != nil {
		return Pricing{}, err
	}
	if cfg.FreeShippingThresholdCents < 0 || cfg.ShippingRateCents < 0 {
		return Pricing{}, fmt.Errorf("shipping amounts must not be negative")
	}
	return Pricing{
		TaxRate:                    rate,
		FreeShippingThresholdCents: cfg.FreeShippingThresholdCents,
		ShippingRateCents:          cfg.ShippingRateCents,
	}, nil
}

// Totals computes shipping, tax and total for a subtotal. Shipping is free at
// or above the threshold; tax rounds half away from zero. Discounts are not
// applied yet and are always zero.
func (p Pricing) Totals(subtotalCents int) Totals {
	shipping := p.ShippingRateCents
	if subtotalCents >= p.FreeShippingThresholdCents {
		shipping = 0
	}
	tax := money.ApplyRate(subtotalCents, p.TaxRate)
	discount := 0
	return Totals{
		SubtotalCents: subtotalCents,
		ShippingCents: shipping,
		TaxCents:      tax,
		DiscountCents: discount,
		TotalCents:    subtotalCents + shipping + tax - discount,
	}
}
