package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads, cancellation and status transitions.
type Service interface {
	GetOrder(ctx context.Context, owner cart.Identity, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, owner cart.Identity, params pagination.Params) (*ListResult, error)
	CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (*models.Order, error)
}

// CancelInput names the order to cancel. Owner, when set, must own the order.
type CancelInput struct {
	OrderID uuid.UUID
	Owner   *cart.Identity
	Reason  *string
}

// ListResult wraps one page of orders plus the cursor for the next page.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusRefunded},
}

var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending: {enums.PaymentStatusPaid, enums.PaymentStatusFailed},
	enums.PaymentStatusFailed:  {enums.PaymentStatusPending, enums.PaymentStatusPaid},
	enums.PaymentStatusPaid:    {enums.PaymentStatusRefunded},
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.StorefrontMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the orders service.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner, emitter outbox.Emitter, m *metrics.StorefrontMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		tx:      tx,
		outbox:  emitter,
		metrics: m,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// OwnedBy reports whether the order was placed by the identity.
func OwnedBy(order *models.Order, owner cart.Identity) bool {
	if order == nil {
		return false
	}
	if owner.IsUser() {
		return order.UserID != nil && *order.UserID == *owner.UserID
	}
	session := strings.TrimSpace(owner.SessionID)
	return session != "" && order.UserID == nil && order.SessionID != nil && *order.SessionID == session
}

func (s *service) GetOrder(ctx context.Context, owner cart.Identity, orderID uuid.UUID) (*models.Order, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !OwnedBy(order, owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, owner cart.Identity, params pagination.Params) (*ListResult, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, owner, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &ListResult{Orders: rows}
	if result.Orders == nil {
		result.Orders = []models.Order{}
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// CancelOrder cancels a pending or processing order and puts its stock back.
func (s *service) CancelOrder(ctx context.Context, input CancelInput) (cancelled *models.Order, err error) {
	defer func() { s.metrics.ObserveCancellation(err) }()

	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	reason := ""
	if input.Reason != nil {
		reason = strings.TrimSpace(*input.Reason)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if input.Owner != nil && !OwnedBy(order, *input.Owner) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		if !order.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order cannot be cancelled while %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		if err := restoreStock(ctx, s.catalog.WithTx(tx), order.LineItems); err != nil {
			return err
		}

		now := s.now()
		notes := appendNote(order.Notes, reason)
		if err := repo.MarkCancelled(ctx, order.ID, now, notes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.Notes = notes

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorFor(input.Owner),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CancelledAt: now,
				Reason:      reason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order cancelled")
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":     cancelled.ID.String(),
		"order_number": cancelled.OrderNumber,
	}), "order.cancelled")
	return cancelled, nil
}

// UpdateStatus moves an order along the fulfillment path. Cancellation goes
// through CancelOrder so stock is restored.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use cancel to cancel an order")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		from := order.Status
		if !slices.Contains(statusTransitions[from], status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, status)).
				WithDetails(map[string]any{"from": from, "to": status})
		}
		if err := repo.UpdateStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = status
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				From:        from,
				To:          status,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status changed")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !slices.Contains(paymentTransitions[order.PaymentStatus], status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move payment from %s to %s", order.PaymentStatus, status)).
				WithDetails(map[string]any{"from": order.PaymentStatus, "to": status})
		}
		if err := repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		order.PaymentStatus = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := repo.LockByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}
	return order, nil
}

// restoreStock adds every line's quantity back to the variant or product it
// was taken from, touching rows in id order.
func restoreStock(ctx context.Context, repo catalog.Repository, lines []models.OrderLineItem) error {
	products := map[uuid.UUID]int{}
	variants := map[uuid.UUID]int{}
	for _, line := range lines {
		if line.VariantID != nil {
			variants[*line.VariantID] += line.Quantity
			continue
		}
		products[line.ProductID] += line.Quantity
	}
	for _, id := range catalog.SortedUnique(keys(products)) {
		if err := repo.RestoreProductStock(ctx, id, products[id]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product stock")
		}
	}
	for _, id := range catalog.SortedUnique(keys(variants)) {
		if err := repo.RestoreVariantStock(ctx, id, variants[id]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore variant stock")
		}
	}
	return nil
}

func keys(m map[uuid.UUID]int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func appendNote(notes *string, reason string) *string {
	if reason == "" {
		return notes
	}
	line := "Cancelled: " + reason
	if notes != nil && strings.TrimSpace(*notes) != "" {
		line = *notes + "\n" + line
	}
	return &line
}

func actorFor(owner *cart.Identity) *outbox.ActorRef {
	if owner == nil || owner.IsZero() {
		return nil
	}
	if owner.IsUser() {
		userID := *owner.UserID
		return &outbox.ActorRef{UserID: &userID}
	}
	return &outbox.ActorRef{SessionID: owner.SessionID}
}
