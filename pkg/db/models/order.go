package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the immutable result of converting a cart. Only Status,
// PaymentStatus, Notes and CancelledAt change after creation.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	CartID          uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	SessionID       *string             `gorm:"column:session_id"`
	GuestEmail      *string             `gorm:"column:guest_email"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Currency        enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents   int                 `gorm:"column:subtotal_cents;not null"`
	TaxCents        int                 `gorm:"column:tax_cents;not null"`
	ShippingCents   int                 `gorm:"column:shipping_cents;not null"`
	DiscountCents   int                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents      int                 `gorm:"column:total_cents;not null"`
	BillingAddress  types.Address       `gorm:"column:billing_address;type:jsonb;not null"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;not null"`
	Notes           *string             `gorm:"column:notes"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	LineItems       []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
