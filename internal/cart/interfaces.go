package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository defines the persistence surface required by the cart service
// and the checkout flow.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// FindActive returns the newest active cart for the identity, expired or
	// not, with its items.
	FindActive(ctx context.Context, id Identity) (*models.Cart, error)
	// LockActive is FindActive under a row write lock.
	LockActive(ctx context.Context, id Identity) (*models.Cart, error)
	LockCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
	MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error
	AssignToUser(ctx context.Context, cartID, userID uuid.UUID, expiresAt time.Time) error
	Delete(ctx context.Context, cartID uuid.UUID) error

	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartLineItem, error)
	CountItems(ctx context.Context, cartID uuid.UUID) (int, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartLineItem, error)
	LockItem(ctx context.Context, itemID uuid.UUID) (*models.CartLineItem, error)
	// LockItemFor returns the line for (product, variant) in the cart, or
	// gorm.ErrRecordNotFound.
	LockItemFor(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartLineItem, error)
	CreateItem(ctx context.Context, item *models.CartLineItem) error
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	DeleteItems(ctx context.Context, cartID uuid.UUID) (int64, error)
}
