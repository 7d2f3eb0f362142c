package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads the catalog and adjusts stock. All methods honor the
// transaction bound through WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error)

	// LockProductsByIDs and LockVariantsByIDs take row write locks in id order.
	LockProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	LockVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error)

	// Decrement* subtract qty only when enough stock remains and report
	// whether a row was updated.
	DecrementProductStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	DecrementVariantStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	RestoreProductStock(ctx context.Context, id uuid.UUID, qty int) error
	RestoreVariantStock(ctx context.Context, id uuid.UUID, qty int) error
}
