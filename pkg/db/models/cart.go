package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Cart is owned by exactly one identity: a user or an anonymous session.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID      *uuid.UUID       `gorm:"column:user_id;type:uuid"`
	SessionID   *string          `gorm:"column:session_id"`
	Status      enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	ExpiresAt   *time.Time       `gorm:"column:expires_at"`
	Metadata    types.Metadata   `gorm:"column:metadata;type:jsonb"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartLineItem   `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the cart's expiry has passed at now.
func (c *Cart) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
