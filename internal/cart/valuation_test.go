package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestValuation(t *testing.T) {
	items := []models.CartLineItem{
		{Quantity: 2, UnitPriceCents: 61728},
		{Quantity: 1, UnitPriceCents: 0},
		{Quantity: 10, UnitPriceCents: 1},
	}
	assert.Equal(t, 13, TotalQuantity(items))
	assert.Equal(t, 123466, TotalPrice(items))
	assert.Equal(t, "$1,234.66", FormattedTotal(items, "USD"))
	assert.False(t, IsEmpty(items))
}

func TestSummarizeEmptyCart(t *testing.T) {
	cart := &models.Cart{ID: uuid.New()}
	summary := Summarize(cart, "USD")
	assert.True(t, summary.IsEmpty)
	assert.Equal(t, 0, summary.TotalCents)
	assert.Equal(t, "$0.00", summary.FormattedTotal)
	assert.NotNil(t, summary.Items)
	assert.Equal(t, cart.ID, summary.CartID)
}
