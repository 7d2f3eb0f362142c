package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/locks"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart resolution, mutation, validation and transfer.
type Service interface {
	Resolve(ctx context.Context, id Identity) (*models.Cart, error)
	Abandon(ctx context.Context, id Identity) error
	Summary(ctx context.Context, id Identity) (*Summary, error)
	AddItem(ctx context.Context, id Identity, input AddItemInput) (*models.CartLineItem, error)
	UpdateQuantity(ctx context.Context, id Identity, itemID uuid.UUID, qty int) (bool, error)
	RemoveItem(ctx context.Context, id Identity, itemID uuid.UUID) (bool, error)
	Clear(ctx context.Context, id Identity) error
	Validate(ctx context.Context, id Identity) (ValidationResult, error)
	TransferGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error
}

// Params wires the cart service. Locker and Outbox are only needed for
// transfers; Metrics and Logger may be nil.
type Params struct {
	Repo     Repository
	Catalog  catalog.Repository
	Tx       txRunner
	Locker   locks.Locker
	Outbox   outbox.Emitter
	Metrics  *metrics.StorefrontMetrics
	Logger   *logger.Logger
	Config   config.CartConfig
	Currency string
	Now      func() time.Time
}

type service struct {
	repo     Repository
	catalog  catalog.Repository
	tx       txRunner
	locker   locks.Locker
	outbox   outbox.Emitter
	metrics  *metrics.StorefrontMetrics
	logg     *logger.Logger
	cfg      config.CartConfig
	currency string
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Config.MaxItemQuantity <= 0 || p.Config.MaxItems <= 0 {
		return nil, fmt.Errorf("cart limits must be positive")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Currency == "" {
		p.Currency = string(enums.CurrencyUSD)
	}
	return &service{
		repo:     p.Repo,
		catalog:  p.Catalog,
		tx:       p.Tx,
		locker:   p.Locker,
		outbox:   p.Outbox,
		metrics:  p.Metrics,
		logg:     p.Logger,
		cfg:      p.Config,
		currency: p.Currency,
		now:      p.Now,
	}, nil
}

// AddItemInput describes a product (and optional variant) to put in the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// AddItem inserts a new line or increments the existing one for the same
// (product, variant). The cart row and then the line row are locked for the
// duration of the transaction so concurrent adds serialize.
func (s *service) AddItem(ctx context.Context, id Identity, input AddItemInput) (item *models.CartLineItem, err error) {
	defer func() { s.metrics.ObserveCartMutation("add", err) }()

	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.VariantID != nil && *input.VariantID == uuid.Nil {
		input.VariantID = nil
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.Quantity > s.cfg.MaxItemQuantity {
		return nil, s.quantityLimit(input.Quantity)
	}

	cart, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := lockMutable(ctx, repo, cart.ID); err != nil {
			return err
		}
		product, variant, err := loadPurchasable(ctx, s.catalog.WithTx(tx), input.ProductID, input.VariantID)
		if err != nil {
			return err
		}

		existing, err := repo.LockItemFor(ctx, cart.ID, product.ID, input.VariantID)
		switch {
		case err == nil:
			resulting := existing.Quantity + input.Quantity
			if resulting > s.cfg.MaxItemQuantity {
				return pkgerrors.New(pkgerrors.CodeLimitExceeded,
					fmt.Sprintf("maximum quantity per item is %d", s.cfg.MaxItemQuantity)).
					WithDetails(map[string]int{
						"max":       s.cfg.MaxItemQuantity,
						"current":   existing.Quantity,
						"requested": input.Quantity,
						"resulting": resulting,
					})
			}
			if err := repo.SetItemQuantity(ctx, existing.ID, resulting); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
			existing.Quantity = resulting
			item = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		count, err := repo.CountItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
		}
		if count >= s.cfg.MaxItems {
			return pkgerrors.New(pkgerrors.CodeLimitExceeded,
				fmt.Sprintf("cart cannot hold more than %d items", s.cfg.MaxItems)).
				WithDetails(map[string]int{
					"max_items":     s.cfg.MaxItems,
					"current_items": count,
				})
		}
		created := &models.CartLineItem{
			CartID:          cart.ID,
			ProductID:       product.ID,
			VariantID:       input.VariantID,
			Quantity:        input.Quantity,
			UnitPriceCents:  catalog.UnitPriceCents(product, variant),
			ProductSnapshot: catalog.CartItemSnapshot(product, variant),
		}
		if err := repo.CreateItem(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		item = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	Invalidate(ctx, id)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_id":    cart.ID.String(),
		"item_id":    item.ID.String(),
		"product_id": item.ProductID.String(),
		"quantity":   item.Quantity,
	}), "cart.item_added")
	return item, nil
}

// UpdateQuantity overwrites the quantity of a line. Zero removes it.
func (s *service) UpdateQuantity(ctx context.Context, id Identity, itemID uuid.UUID, qty int) (updated bool, err error) {
	defer func() { s.metrics.ObserveCartMutation("update", err) }()

	if id.IsZero() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	if qty < 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if qty > s.cfg.MaxItemQuantity {
		return false, s.quantityLimit(qty)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := lockOwnedItem(ctx, repo, id, itemID); err != nil {
			return err
		}
		if qty == 0 {
			deleted, err := repo.DeleteItem(ctx, itemID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
			}
			updated = deleted
			return nil
		}
		if err := repo.SetItemQuantity(ctx, itemID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	Invalidate(ctx, id)
	return updated, nil
}

// RemoveItem deletes a line. Removing a line that no longer exists succeeds
// and reports false.
func (s *service) RemoveItem(ctx context.Context, id Identity, itemID uuid.UUID) (removed bool, err error) {
	defer func() { s.metrics.ObserveCartMutation("remove", err) }()

	if id.IsZero() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := lockOwnedItem(ctx, repo, id, itemID); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return nil
			}
			return err
		}
		deleted, err := repo.DeleteItem(ctx, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		removed = deleted
		return nil
	})
	if err != nil {
		return false, err
	}
	Invalidate(ctx, id)
	return removed, nil
}

// Clear empties the identity's active cart in one statement.
func (s *service) Clear(ctx context.Context, id Identity) (err error) {
	defer func() { s.metrics.ObserveCartMutation("clear", err) }()

	if id.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockActive(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
		}
		if _, err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return err
	}
	Invalidate(ctx, id)
	return nil
}

func (s *service) quantityLimit(requested int) error {
	return pkgerrors.New(pkgerrors.CodeLimitExceeded,
		fmt.Sprintf("maximum quantity per item is %d", s.cfg.MaxItemQuantity)).
		WithDetails(map[string]int{
			"max":       s.cfg.MaxItemQuantity,
			"requested": requested,
		})
}

// lockMutable locks the cart row and rejects carts that are no longer active.
func lockMutable(ctx context.Context, repo Repository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.LockCart(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed; retry")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	if !cart.Status.AcceptsMutations() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active").
			WithDetails(map[string]any{"status": cart.Status})
	}
	return cart, nil
}

// lockOwnedItem locks the cart owning itemID, checks it belongs to id and is
// active, then locks the line itself.
func lockOwnedItem(ctx context.Context, repo Repository, id Identity, itemID uuid.UUID) (*models.CartLineItem, error) {
	item, err := repo.FindItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	cart, err := repo.LockCart(ctx, item.CartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	if !id.Owns(cart) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another cart")
	}
	if !cart.Status.AcceptsMutations() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active").
			WithDetails(map[string]any{"status": cart.Status})
	}
	locked, err := repo.LockItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && locked.CartID != cart.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart item")
	}
	return locked, nil
}

// loadPurchasable reads the product and optional variant and checks both can
// still be sold.
func loadPurchasable(ctx context.Context, repo catalog.Repository, productID uuid.UUID, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	product, err := repo.FindProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsPurchasable() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"product_id": productID})
	}
	if variantID == nil {
		return product, nil, nil
	}
	variant, err := repo.FindVariant(ctx, *variantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if variant == nil || variant.ProductID != product.ID || !variant.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "selected variant is not available").
			WithDetails(map[string]any{"product_id": productID, "variant_id": *variantID})
	}
	return product, variant, nil
}
