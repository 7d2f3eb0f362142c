package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// CurrentSnapshotVersion is written on every new ProductSnapshot.
const CurrentSnapshotVersion = 1

// ProductSnapshot freezes the catalog view of a purchased product at order
// time. Order history renders from it, never from the live catalog.
//
// Required keys: name, sku, price_cents, brand (nullable), variant (nullable),
// images (possibly empty).
type ProductSnapshot struct {
	Version    int              `json:"version"`
	ProductID  uuid.UUID        `json:"product_id"`
	Name       string           `json:"name"`
	Slug       string           `json:"slug"`
	SKU        string           `json:"sku"`
	PriceCents int              `json:"price_cents"`
	Brand      *BrandSnapshot   `json:"brand"`
	Variant    *VariantSnapshot `json:"variant"`
	Images     []ImageSnapshot  `json:"images"`
}

type BrandSnapshot struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type VariantSnapshot struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	SKU        string            `json:"sku"`
	PriceCents int               `json:"price_cents"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type ImageSnapshot struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// Value serializes the snapshot to JSON, normalizing a nil image list.
func (p ProductSnapshot) Value() (driver.Value, error) {
	if p.Images == nil {
		p.Images = []ImageSnapshot{}
	}
	return json.Marshal(p)
}

// Scan decodes a JSON snapshot.
func (p *ProductSnapshot) Scan(value interface{}) error {
	if value == nil {
		*p = ProductSnapshot{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, p)
}

// CartItemSnapshot keeps enough display data for a cart line to render even
// after the product is renamed or delisted.
type CartItemSnapshot struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	SKU         string  `json:"sku"`
	VariantName *string `json:"variant_name,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// Value serializes the snapshot to JSON.
func (c CartItemSnapshot) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan decodes a JSON snapshot.
func (c *CartItemSnapshot) Scan(value interface{}) error {
	if value == nil {
		*c = CartItemSnapshot{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, c)
}
