package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func defaultPricing(t *testing.T) Pricing {
	t.Helper()
	pricing, err := PricingFromConfig(config.CheckoutConfig{
		TaxRate:                    "0.08",
		FreeShippingThresholdCents: 5000,
		ShippingRateCents:          999,
	})
	require.NoError(t, err)
	return pricing
}

func TestTotals(t *testing.T) {
	pricing := defaultPricing(t)

	cases := []struct {
		subtotal int
		want     Totals
	}{
		{4999, Totals{SubtotalCents: 4999, ShippingCents: 999, TaxCents: 400, TotalCents: 6398}},
		{5000, Totals{SubtotalCents: 5000, ShippingCents: 0, TaxCents: 400, TotalCents: 5400}},
		{0, Totals{ShippingCents: 999, TotalCents: 999}},
		{1256, Totals{SubtotalCents: 1256, ShippingCents: 999, TaxCents: 100, TotalCents: 2355}},
		{1257, Totals{SubtotalCents: 1257, ShippingCents: 999, TaxCents: 101, TotalCents: 2357}},
		{6250, Totals{SubtotalCents: 6250, TaxCents: 500, TotalCents: 6750}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pricing.Totals(tc.subtotal), "subtotal %d", tc.subtotal)
	}
}

func TestTaxRoundsHalfAwayFromZero(t *testing.T) {
	pricing, err := PricingFromConfig(config.CheckoutConfig{TaxRate: "0.05"})
	require.NoError(t, err)
	assert.Equal(t, 1, pricing.Totals(10).TaxCents)
	assert.Equal(t, 2, pricing.Totals(30).TaxCents)
	assert.Equal(t, 0, pricing.Totals(9).TaxCents)
}

func TestPricingFromConfigRejectsBadInput(t *testing.T) {
	_, err := PricingFromConfig(config.CheckoutConfig{TaxRate: "eight"})
	require.Error(t, err)
	_, err = PricingFromConfig(config.CheckoutConfig{TaxRate: "0.08", ShippingRateCents: -1})
	require.Error(t, err)
}
