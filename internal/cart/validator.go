package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	msgProductUnavailable = "product is no longer available"
	msgVariantUnavailable = "selected variant is no longer available"
)

// ValidationResult maps line item ids to the discrepancies found for them.
// An empty result means the cart matches the live catalog.
type ValidationResult map[uuid.UUID][]string

func (r ValidationResult) HasErrors() bool {
	return len(r) > 0
}

// ValidateItem compares one line against live catalog rows. product and
// variant are nil when they no longer exist.
func ValidateItem(item models.CartLineItem, product *models.Product, variant *models.ProductVariant) []string {
	if !product.IsPurchasable() {
		return []string{msgProductUnavailable}
	}
	if item.VariantID != nil {
		if variant == nil || !variant.IsActive || variant.ProductID != product.ID {
			return []string{msgVariantUnavailable}
		}
	} else {
		variant = nil
	}
	available := catalog.AvailableStock(product, variant)
	if item.Quantity > available {
		if available < 0 {
			available = 0
		}
		return []string{fmt.Sprintf("only %d available", available)}
	}
	return nil
}

// ValidateCart checks every line, loading products and variants in one batch
// each. It never mutates the cart.
func ValidateCart(ctx context.Context, repo catalog.Repository, items []models.CartLineItem) (ValidationResult, error) {
	result := ValidationResult{}
	if len(items) == 0 {
		return result, nil
	}
	productIDs := make([]uuid.UUID, 0, len(items))
	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		if item.VariantID != nil {
			variantIDs = append(variantIDs, *item.VariantID)
		}
	}
	products, err := repo.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	variants, err := repo.FindVariantsByIDs(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}
	for _, item := range items {
		var variant *models.ProductVariant
		if item.VariantID != nil {
			variant = variants[*item.VariantID]
		}
		if problems := ValidateItem(item, products[item.ProductID], variant); len(problems) > 0 {
			result[item.ID] = problems
		}
	}
	return result, nil
}

// Validate runs ValidateCart over the identity's cart.
func (s *service) Validate(ctx context.Context, id Identity) (ValidationResult, error) {
	cart, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return ValidateCart(ctx, s.catalog, cart.Items)
}
