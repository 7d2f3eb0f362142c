package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a cart converts into an order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	CartID      uuid.UUID      `json:"cart_id"`
	UserID      *uuid.UUID     `json:"user_id,omitempty"`
	GuestEmail  *string        `json:"guest_email,omitempty"`
	ItemCount   int            `json:"item_count"`
	TotalCents  int            `json:"total_cents"`
	Currency    enums.Currency `json:"currency"`
}

// OrderCancelledEvent is emitted after stock for a cancelled order is restored.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderStatusChangedEvent reports a fulfillment transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
}

// CartTransferredEvent reports a guest cart handed over to a user at sign-in.
type CartTransferredEvent struct {
	CartID       uuid.UUID `json:"cart_id"`
	UserID       uuid.UUID `json:"user_id"`
	Merged       bool      `json:"merged"`
	MovedItems   int       `json:"moved_items"`
	DroppedItems int       `json:"dropped_items"`
}
