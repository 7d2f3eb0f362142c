package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CartLineItem is one (product, variant) pairing in a cart. UnitPriceCents is
// captured when the line is first added and is not re-read from the catalog.
type CartLineItem struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID               `gorm:"column:cart_id;type:uuid;not null"`
	ProductID       uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	VariantID       *uuid.UUID              `gorm:"column:variant_id;type:uuid"`
	Quantity        int                     `gorm:"column:quantity;not null"`
	UnitPriceCents  int                     `gorm:"column:unit_price_cents;not null"`
	ProductSnapshot *types.CartItemSnapshot `gorm:"column:product_snapshot;type:jsonb"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLineItem) TableName() string { return "cart_line_items" }

func (i *CartLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotalCents is unit price times quantity.
func (i CartLineItem) LineTotalCents() int {
	return i.UnitPriceCents * i.Quantity
}

// SameVariant reports whether the line refers to the given variant (nil matches nil).
func (i CartLineItem) SameVariant(variantID *uuid.UUID) bool {
	if i.VariantID == nil || variantID == nil {
		return i.VariantID == nil && variantID == nil
	}
	return *i.VariantID == *variantID
}
