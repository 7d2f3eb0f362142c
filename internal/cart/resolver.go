package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Resolve returns the identity's active, unexpired cart, creating one when
// none exists. Results are memoized in the request scope when present.
func (s *service) Resolve(ctx context.Context, id Identity) (*models.Cart, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	sc := scopeFrom(ctx)
	if cached := sc.get(id.Key()); cached != nil {
		return cached, nil
	}

	cart, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	sc.put(id.Key(), cart)
	return cart, nil
}

func (s *service) resolve(ctx context.Context, id Identity) (*models.Cart, error) {
	cart, err := s.repo.FindActive(ctx, id)
	switch {
	case err == nil:
		if !cart.IsExpired(s.now()) {
			return cart, nil
		}
		if err := s.repo.UpdateStatus(ctx, cart.ID, enums.CartStatusAbandoned); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon expired cart")
		}
		s.logg.Info(s.logg.WithCartID(ctx, cart.ID.String()), "cart.expired_abandoned")
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created := s.newCart(id)
	if err := s.repo.Create(ctx, created); err != nil {
		if !dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		// another request created the cart first
		winner, findErr := s.repo.FindActive(ctx, id)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload cart")
		}
		return winner, nil
	}
	created.Items = []models.CartLineItem{}
	return created, nil
}

func (s *service) newCart(id Identity) *models.Cart {
	now := s.now()
	cart := &models.Cart{Status: enums.CartStatusActive}
	if id.IsUser() {
		userID := *id.UserID
		expires := now.Add(s.cfg.UserTTL)
		cart.UserID = &userID
		cart.ExpiresAt = &expires
		return cart
	}
	session := id.SessionID
	expires := now.Add(s.cfg.GuestTTL)
	cart.SessionID = &session
	cart.ExpiresAt = &expires
	return cart
}

// Abandon moves the identity's active cart to abandoned. Missing carts are a
// no-op.
func (s *service) Abandon(ctx context.Context, id Identity) (err error) {
	defer func() { s.metrics.ObserveCartMutation("abandon", err) }()

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
		if err := repo.UpdateStatus(ctx, cart.ID, enums.CartStatusAbandoned); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon cart")
		}
		return nil
	})
	if err != nil {
		return err
	}
	Invalidate(ctx, id)
	return nil
}
