package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderLineItem is a frozen copy of a cart line plus the full product snapshot.
type OrderLineItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VariantID       *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	UnitPriceCents  int                   `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int                   `gorm:"column:total_price_cents;not null"`
	ProductSnapshot types.ProductSnapshot `gorm:"column:product_snapshot;type:jsonb;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
