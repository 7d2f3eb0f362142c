package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Catalog tables are owned by the catalog service. The storefront reads them
// and only ever writes the stock columns.

type Brand struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null"`
	Slug string    `gorm:"column:slug;not null"`
}

func (Brand) TableName() string { return "brands" }

func (b *Brand) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BrandID       *uuid.UUID          `gorm:"column:brand_id;type:uuid"`
	Brand         *Brand              `gorm:"foreignKey:BrandID"`
	Name          string              `gorm:"column:name;not null"`
	Slug          string              `gorm:"column:slug;not null"`
	SKU           string              `gorm:"column:sku;not null"`
	PriceCents    int                 `gorm:"column:price_cents;not null"`
	StockQuantity int                 `gorm:"column:stock_quantity;not null;default:0"`
	StockStatus   enums.StockStatus   `gorm:"column:stock_status;not null;default:'in_stock'"`
	Status        enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	Images        []ProductImage      `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsPurchasable reports whether the product is published.
func (p *Product) IsPurchasable() bool {
	return p != nil && p.Status == enums.ProductStatusActive
}

type ProductVariant struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	Name          string            `gorm:"column:name;not null"`
	SKU           string            `gorm:"column:sku;not null"`
	PriceCents    int               `gorm:"column:price_cents;not null"`
	StockQuantity int               `gorm:"column:stock_quantity;not null;default:0"`
	StockStatus   enums.StockStatus `gorm:"column:stock_status;not null;default:'in_stock'"`
	IsActive      bool              `gorm:"column:is_active;not null;default:true"`
	Attributes    types.StringMap   `gorm:"column:attributes;type:jsonb"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductVariant) TableName() string { return "product_variants" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	URL       string    `gorm:"column:url;not null"`
	AltText   string    `gorm:"column:alt_text"`
	Position  int       `gorm:"column:position;not null;default:0"`
}

func (ProductImage) TableName() string { return "product_images" }

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
