package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// SeedProduct inserts an active product with the given price and stock.
// Fields left zero on p are filled with unique defaults.
func SeedProduct(t testing.TB, db *gorm.DB, p models.Product) *models.Product {
	t.Helper()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	short := p.ID.String()[:8]
	if p.Name == "" {
		p.Name = "Product " + short
	}
	if p.Slug == "" {
		p.Slug = "product-" + short
	}
	if p.SKU == "" {
		p.SKU = "SKU-" + short
	}
	if p.Status == "" {
		p.Status = enums.ProductStatusActive
	}
	if p.StockStatus == "" {
		p.StockStatus = enums.StockStatusInStock
		if p.StockQuantity <= 0 {
			p.StockStatus = enums.StockStatusOutOfStock
		}
	}
	if err := db.Omit("Brand", "Images").Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &p
}

// SeedBrand inserts a brand and links it to the product.
func SeedBrand(t testing.TB, db *gorm.DB, product *models.Product, name string) *models.Brand {
	t.Helper()
	brand := models.Brand{ID: uuid.New(), Name: name, Slug: fmt.Sprintf("brand-%s", uuid.NewString()[:8])}
	if err := db.Create(&brand).Error; err != nil {
		t.Fatalf("seed brand: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("brand_id", brand.ID).Error; err != nil {
		t.Fatalf("link brand: %v", err)
	}
	product.BrandID = &brand.ID
	product.Brand = &brand
	return &brand
}

// SeedImage attaches an image to the product.
func SeedImage(t testing.TB, db *gorm.DB, productID uuid.UUID, url string, position int) {
	t.Helper()
	img := models.ProductImage{ProductID: productID, URL: url, AltText: "image", Position: position}
	if err := db.Create(&img).Error; err != nil {
		t.Fatalf("seed image: %v", err)
	}
}

// SeedVariant inserts a variant under productID.
func SeedVariant(t testing.TB, db *gorm.DB, productID uuid.UUID, priceCents, stock int, active bool) *models.ProductVariant {
	t.Helper()
	v := models.ProductVariant{
		ID:            uuid.New(),
		ProductID:     productID,
		PriceCents:    priceCents,
		StockQuantity: stock,
		StockStatus:   enums.StockStatusInStock,
		IsActive:      true,
		Attributes:    map[string]string{"size": "M"},
	}
	v.Name = "Variant " + v.ID.String()[:8]
	v.SKU = "VAR-" + v.ID.String()[:8]
	if stock <= 0 {
		v.StockStatus = enums.StockStatusOutOfStock
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	if !active {
		// a zero bool would be replaced by the column default on insert
		if err := db.Model(&models.ProductVariant{}).Where("id = ?", v.ID).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate variant: %v", err)
		}
		v.IsActive = false
	}
	return &v
}
