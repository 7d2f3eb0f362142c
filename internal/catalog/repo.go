package catalog

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func withProductRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Brand").
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Scopes(withProductRelations).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	return r.loadProducts(r.db.WithContext(ctx), ids)
}

func (r *repository) FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error) {
	return r.loadVariants(r.db.WithContext(ctx), ids)
}

func (r *repository) LockProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	return r.loadProducts(dbpkg.ForUpdate(r.db.WithContext(ctx)), ids)
}

func (r *repository) LockVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error) {
	return r.loadVariants(dbpkg.ForUpdate(r.db.WithContext(ctx)), ids)
}

func (r *repository) loadProducts(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	ids = SortedUnique(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := db.Scopes(withProductRelations).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *repository) loadVariants(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error) {
	out := make(map[uuid.UUID]*models.ProductVariant, len(ids))
	ids = SortedUnique(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductVariant
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *repository) DecrementProductStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.decrement(ctx, "products", id, qty)
}

func (r *repository) DecrementVariantStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.decrement(ctx, "product_variants", id, qty)
}

func (r *repository) RestoreProductStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.restore(ctx, "products", id, qty)
}

func (r *repository) RestoreVariantStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.restore(ctx, "product_variants", id, qty)
}

func (r *repository) decrement(ctx context.Context, table string, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE `+table+`
		SET stock_quantity = stock_quantity - ?,
			stock_status = CASE WHEN stock_quantity - ? <= 0 THEN ? ELSE stock_status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, qty, enums.StockStatusOutOfStock, id, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) restore(ctx context.Context, table string, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE `+table+`
		SET stock_quantity = stock_quantity + ?,
			stock_status = CASE WHEN stock_status = ? AND stock_quantity + ? > 0 THEN ? ELSE stock_status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, enums.StockStatusOutOfStock, qty, enums.StockStatusInStock, id).Error
}

// SortedUnique drops duplicates and orders ids so concurrent lockers acquire
// rows in the same sequence.
func SortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
