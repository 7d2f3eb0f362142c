package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC").Order("id ASC")
	})
}

func byIdentity(id Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id.IsUser() {
			return db.Where("user_id = ?", *id.UserID)
		}
		return db.Where("session_id = ? AND user_id IS NULL", id.SessionID)
	}
}

func (r *repository) FindActive(ctx context.Context, id Identity) (*models.Cart, error) {
	return r.findActive(r.db.WithContext(ctx), id)
}

func (r *repository) LockActive(ctx context.Context, id Identity) (*models.Cart, error) {
	return r.findActive(dbpkg.ForUpdate(r.db.WithContext(ctx)), id)
}

func (r *repository) findActive(db *gorm.DB, id Identity) (*models.Cart, error) {
	var cart models.Cart
	err := db.
		Scopes(withItems, byIdentity(id)).
		Where("status = ?", enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) LockCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := dbpkg.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.Status == "" {
		cart.Status = enums.CartStatusActive
	}
	return r.db.WithContext(ctx).Omit("Items").Create(cart).Error
}

func (r *repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

func (r *repository) MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Updates(map[string]any{
			"status":       enums.CartStatusConverted,
			"converted_at": at,
		}).Error
}

func (r *repository) AssignToUser(ctx context.Context, cartID, userID uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"user_id":    userID,
			"session_id": nil,
			"expires_at": expiresAt,
		}).Error
}

func (r *repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.DeleteItems(ctx, cartID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

func (r *repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartLineItem, error) {
	var items []models.CartLineItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) CountItems(ctx context.Context, cartID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartLineItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return int(count), err
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartLineItem, error) {
	var item models.CartLineItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) LockItem(ctx context.Context, itemID uuid.UUID) (*models.CartLineItem, error) {
	var item models.CartLineItem
	if err := dbpkg.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) LockItemFor(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartLineItem, error) {
	query := dbpkg.ForUpdate(r.db.WithContext(ctx)).
		Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}
	var item models.CartLineItem
	if err := query.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLineItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

func (r *repository) MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLineItem{}).
		Where("id = ?", itemID).
		Update("cart_id", cartID).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartLineItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLineItem{})
	return res.RowsAffected, res.Error
}
