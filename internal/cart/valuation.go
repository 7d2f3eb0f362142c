package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// TotalQuantity sums line quantities.
func TotalQuantity(items []models.CartLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums unit price times quantity over all lines, in cents.
func TotalPrice(items []models.CartLineItem) int {
	total := 0
	for _, item := range items {
		total += item.LineTotalCents()
	}
	return total
}

func IsEmpty(items []models.CartLineItem) bool {
	return len(items) == 0
}

// FormattedTotal renders the cart total for display only.
func FormattedTotal(items []models.CartLineItem, currency string) string {
	return money.Format(TotalPrice(items), currency)
}

// Summary is the read view of a cart with its computed totals.
type Summary struct {
	CartID         uuid.UUID
	Items          []models.CartLineItem
	TotalQuantity  int
	TotalCents     int
	FormattedTotal string
	IsEmpty        bool
}

// Summarize computes the valuation of a materialized cart.
func Summarize(cart *models.Cart, currency string) *Summary {
	items := cart.Items
	if items == nil {
		items = []models.CartLineItem{}
	}
	return &Summary{
		CartID:         cart.ID,
		Items:          items,
		TotalQuantity:  TotalQuantity(items),
		TotalCents:     TotalPrice(items),
		FormattedTotal: FormattedTotal(items, currency),
		IsEmpty:        IsEmpty(items),
	}
}

func (s *service) Summary(ctx context.Context, id Identity) (*Summary, error) {
	cart, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return Summarize(cart, s.currency), nil
}
