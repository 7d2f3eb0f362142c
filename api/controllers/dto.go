package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type cartItemResponse struct {
	ID              uuid.UUID               `json:"id"`
	ProductID       uuid.UUID               `json:"product_id"`
	VariantID       *uuid.UUID              `json:"variant_id,omitempty"`
	Quantity        int                     `json:"quantity"`
	UnitPriceCents  int                     `json:"unit_price_cents"`
	LineTotalCents  int                     `json:"line_total_cents"`
	ProductSnapshot *types.CartItemSnapshot `json:"product,omitempty"`
}

type cartResponse struct {
	ID             uuid.UUID          `json:"id"`
	Items          []cartItemResponse `json:"items"`
	TotalQuantity  int                `json:"total_quantity"`
	TotalCents     int                `json:"total_cents"`
	FormattedTotal string             `json:"formatted_total"`
	IsEmpty        bool               `json:"is_empty"`
}

func newCartItemResponse(item models.CartLineItem) cartItemResponse {
	return cartItemResponse{
		ID:              item.ID,
		ProductID:       item.ProductID,
		VariantID:       item.VariantID,
		Quantity:        item.Quantity,
		UnitPriceCents:  item.UnitPriceCents,
		LineTotalCents:  item.LineTotalCents(),
		ProductSnapshot: item.ProductSnapshot,
	}
}

func newCartResponse(summary *cart.Summary) cartResponse {
	items := make([]cartItemResponse, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, newCartItemResponse(item))
	}
	return cartResponse{
		ID:             summary.CartID,
		Items:          items,
		TotalQuantity:  summary.TotalQuantity,
		TotalCents:     summary.TotalCents,
		FormattedTotal: summary.FormattedTotal,
		IsEmpty:        summary.IsEmpty,
	}
}

type orderLineResponse struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       uuid.UUID             `json:"product_id"`
	VariantID       *uuid.UUID            `json:"variant_id,omitempty"`
	Quantity        int                   `json:"quantity"`
	UnitPriceCents  int                   `json:"unit_price_cents"`
	TotalPriceCents int                   `json:"total_price_cents"`
	Product         types.ProductSnapshot `json:"product"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Currency        enums.Currency      `json:"currency"`
	SubtotalCents   int                 `json:"subtotal_cents"`
	TaxCents        int                 `json:"tax_cents"`
	ShippingCents   int                 `json:"shipping_cents"`
	DiscountCents   int                 `json:"discount_cents"`
	TotalCents      int                 `json:"total_cents"`
	FormattedTotal  string              `json:"formatted_total"`
	GuestEmail      *string             `json:"guest_email,omitempty"`
	BillingAddress  types.Address       `json:"billing_address"`
	ShippingAddress types.Address       `json:"shipping_address"`
	Notes           *string             `json:"notes,omitempty"`
	LineItems       []orderLineResponse `json:"line_items"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.LineItems))
	for _, line := range order.LineItems {
		lines = append(lines, orderLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			VariantID:       line.VariantID,
			Quantity:        line.Quantity,
			UnitPriceCents:  line.UnitPriceCents,
			TotalPriceCents: line.TotalPriceCents,
			Product:         line.ProductSnapshot,
		})
	}
	return orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		PaymentMethod:   order.PaymentMethod,
		Currency:        order.Currency,
		SubtotalCents:   order.SubtotalCents,
		TaxCents:        order.TaxCents,
		ShippingCents:   order.ShippingCents,
		DiscountCents:   order.DiscountCents,
		TotalCents:      order.TotalCents,
		FormattedTotal:  money.Format(order.TotalCents, string(order.Currency)),
		GuestEmail:      order.GuestEmail,
		BillingAddress:  order.BillingAddress,
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		LineItems:       lines,
		CancelledAt:     order.CancelledAt,
		CreatedAt:       order.CreatedAt,
	}
}
