package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/locks"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	transferNoop    = "noop"
	transferRepoint = "repoint"
	transferMerge   = "merge"
	transferError   = "error"
)

// TransferLockKey is the critical-section key for transfers into userID.
func TransferLockKey(userID uuid.UUID) string {
	return "cart-transfer:" + userID.String()
}

type lineKey struct {
	productID uuid.UUID
	variantID uuid.UUID
}

func keyOf(item models.CartLineItem) lineKey {
	key := lineKey{productID: item.ProductID}
	if item.VariantID != nil {
		key.variantID = *item.VariantID
	}
	return key
}

// TransferGuestCart hands the session's cart to userID at sign-in. Without a
// user cart the guest cart is re-pointed; otherwise lines are merged into the
// user cart and the guest cart is deleted. Merged quantities are capped at the
// per-item maximum and guest lines that do not fit are dropped.
func (s *service) TransferGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) (err error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id and user id are required")
	}

	mode, dropped := transferNoop, 0
	defer func() {
		if err != nil {
			mode = transferError
		}
		s.metrics.ObserveTransfer(mode, dropped)
	}()

	guestID := SessionIdentity(sessionID)
	userIdentity := UserIdentity(userID)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"session_id": sessionID,
		"user_id":    userID.String(),
	})

	err = s.locker.WithLock(ctx, TransferLockKey(userID), func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			now := s.now()

			guest, err := repo.LockActive(ctx, guestID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock guest cart")
			}
			if guest.IsExpired(now) || len(guest.Items) == 0 {
				return nil
			}

			userCart, err := repo.LockActive(ctx, userIdentity)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user cart")
			}
			if userCart != nil && userCart.IsExpired(now) {
				if err := repo.UpdateStatus(ctx, userCart.ID, enums.CartStatusAbandoned); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon expired user cart")
				}
				userCart = nil
			}

			event := payloads.CartTransferredEvent{UserID: userID}
			if userCart == nil {
				if err := repo.AssignToUser(ctx, guest.ID, userID, now.Add(s.cfg.UserTTL)); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign guest cart")
				}
				mode = transferRepoint
				event.CartID = guest.ID
				event.MovedItems = len(guest.Items)
			} else {
				moved, skipped, err := s.mergeInto(logCtx, repo, guest, userCart)
				if err != nil {
					return err
				}
				if err := repo.Delete(ctx, guest.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete guest cart")
				}
				mode, dropped = transferMerge, skipped
				event.CartID = userCart.ID
				event.Merged = true
				event.MovedItems = moved
				event.DroppedItems = skipped
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCartTransferred,
				AggregateType: enums.AggregateCart,
				AggregateID:   event.CartID,
				Actor:         &outbox.ActorRef{UserID: &userID, SessionID: sessionID},
				Data:          event,
			})
		})
	})
	if errors.Is(err, locks.ErrNotAcquired) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart transfer already in progress")
	}
	if err != nil {
		return err
	}

	Invalidate(ctx, guestID, userIdentity)
	if mode != transferNoop {
		s.logg.Info(logCtx, "cart.transferred")
	}
	return nil
}

// mergeInto folds guest lines into the user cart and reports how many lines
// were moved and how many were dropped for lack of room.
func (s *service) mergeInto(ctx context.Context, repo Repository, guest, userCart *models.Cart) (moved, dropped int, err error) {
	existing := make(map[lineKey]*models.CartLineItem, len(userCart.Items))
	for i := range userCart.Items {
		existing[keyOf(userCart.Items[i])] = &userCart.Items[i]
	}
	count := len(userCart.Items)

	for _, item := range guest.Items {
		if match, ok := existing[keyOf(item)]; ok {
			merged := match.Quantity + item.Quantity
			if merged > s.cfg.MaxItemQuantity {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id": item.ProductID.String(),
					"requested":  merged,
					"max":        s.cfg.MaxItemQuantity,
				}), "cart.transfer_quantity_capped")
				merged = s.cfg.MaxItemQuantity
			}
			if merged != match.Quantity {
				if err := repo.SetItemQuantity(ctx, match.ID, merged); err != nil {
					return moved, dropped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
				}
				match.Quantity = merged
			}
			continue
		}
		if count >= s.cfg.MaxItems {
			dropped++
			continue
		}
		if err := repo.MoveItem(ctx, item.ID, userCart.ID); err != nil {
			return moved, dropped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move cart item")
		}
		count++
		moved++
	}

	if dropped > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"cart_id": userCart.ID.String(),
			"dropped": dropped,
		}), "cart.transfer_truncated")
	}
	return moved, dropped, nil
}
