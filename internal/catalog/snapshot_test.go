package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func TestProductSnapshotWithVariantAndBrand(t *testing.T) {
	brand := &models.Brand{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	product := &models.Product{
		ID: uuid.New(), Name: "Mug", Slug: "mug", SKU: "MUG", PriceCents: 1000, Brand: brand,
		Images: []models.ProductImage{{URL: "https://cdn/a.png", AltText: "front"}},
	}
	variant := &models.ProductVariant{ID: uuid.New(), Name: "Large", SKU: "MUG-L", PriceCents: 1200, Attributes: types.StringMap{"size": "L"}}

	snap := ProductSnapshot(product, variant)
	assert.Equal(t, types.CurrentSnapshotVersion, snap.Version)
	assert.Equal(t, 1200, snap.PriceCents)
	require.NotNil(t, snap.Brand)
	assert.Equal(t, "Acme", snap.Brand.Name)
	require.NotNil(t, snap.Variant)
	assert.Equal(t, "L", snap.Variant.Attributes["size"])
	require.Len(t, snap.Images, 1)

	variant.Attributes["size"] = "XL"
	assert.Equal(t, "L", snap.Variant.Attributes["size"], "snapshot must not alias catalog data")
}

func TestProductSnapshotWithoutOptionalParts(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Pen", SKU: "PEN", PriceCents: 150}
	snap := ProductSnapshot(product, nil)
	assert.Nil(t, snap.Brand)
	assert.Nil(t, snap.Variant)
	assert.NotNil(t, snap.Images)
	assert.Empty(t, snap.Images)
	assert.Equal(t, 150, snap.PriceCents)
}

func TestPriceAndStockFollowVariant(t *testing.T) {
	product := &models.Product{PriceCents: 1000, StockQuantity: 7}
	variant := &models.ProductVariant{PriceCents: 1100, StockQuantity: 2}

	assert.Equal(t, 1000, UnitPriceCents(product, nil))
	assert.Equal(t, 1100, UnitPriceCents(product, variant))
	assert.Equal(t, 7, AvailableStock(product, nil))
	assert.Equal(t, 2, AvailableStock(product, variant))

	cartSnap := CartItemSnapshot(product, variant)
	require.NotNil(t, cartSnap.VariantName)
	assert.Nil(t, cartSnap.ImageURL)
}
