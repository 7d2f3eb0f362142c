package catalog

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// UnitPriceCents is the variant price when a variant is given, else the product price.
func UnitPriceCents(product *models.Product, variant *models.ProductVariant) int {
	if variant != nil {
		return variant.PriceCents
	}
	return product.PriceCents
}

// AvailableStock is the live stock that governs a (product, variant) pair.
func AvailableStock(product *models.Product, variant *models.ProductVariant) int {
	if variant != nil {
		return variant.StockQuantity
	}
	return product.StockQuantity
}

// CartItemSnapshot captures the display fields kept on a cart line.
func CartItemSnapshot(product *models.Product, variant *models.ProductVariant) *types.CartItemSnapshot {
	snap := &types.CartItemSnapshot{
		Name: product.Name,
		Slug: product.Slug,
		SKU:  product.SKU,
	}
	if variant != nil {
		name := variant.Name
		snap.VariantName = &name
		snap.SKU = variant.SKU
	}
	if len(product.Images) > 0 {
		url := product.Images[0].URL
		snap.ImageURL = &url
	}
	return snap
}

// ProductSnapshot freezes the full catalog view of a purchased line.
func ProductSnapshot(product *models.Product, variant *models.ProductVariant) types.ProductSnapshot {
	snap := types.ProductSnapshot{
		Version:    types.CurrentSnapshotVersion,
		ProductID:  product.ID,
		Name:       product.Name,
		Slug:       product.Slug,
		SKU:        product.SKU,
		PriceCents: UnitPriceCents(product, variant),
		Images:     make([]types.ImageSnapshot, 0, len(product.Images)),
	}
	if product.Brand != nil {
		snap.Brand = &types.BrandSnapshot{
			ID:   product.Brand.ID,
			Name: product.Brand.Name,
			Slug: product.Brand.Slug,
		}
	}
	if variant != nil {
		attrs := make(map[string]string, len(variant.Attributes))
		for k, v := range variant.Attributes {
			attrs[k] = v
		}
		snap.Variant = &types.VariantSnapshot{
			ID:         variant.ID,
			Name:       variant.Name,
			SKU:        variant.SKU,
			PriceCents: variant.PriceCents,
			Attributes: attrs,
		}
	}
	for _, img := range product.Images {
		snap.Images = append(snap.Images, types.ImageSnapshot{URL: img.URL, AltText: img.AltText})
	}
	return snap
}
