package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var validate = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts carts into orders.
type Service interface {
	CreateOrderFromCart(ctx context.Context, id cart.Identity, input CheckoutInput) (*models.Order, error)
}

// CheckoutInput carries what the buyer supplies at checkout.
type CheckoutInput struct {
	BillingAddress  types.Address
	ShippingAddress types.Address
	GuestEmail      *string
	PaymentMethod   enums.PaymentMethod
	Notes           *string
}

// Params wires the checkout service. Metrics and Logger may be nil.
type Params struct {
	Carts       cart.Repository
	Orders      orders.Repository
	Catalog     catalog.Repository
	Tx          txRunner
	Outbox      outbox.Emitter
	Pricing     Pricing
	Currency    enums.Currency
	Metrics     *metrics.StorefrontMetrics
	Logger      *logger.Logger
	Now         func() time.Time
	OrderNumber func(time.Time) (string, error)
}

type service struct {
	carts       cart.Repository
	orders      orders.Repository
	catalog     catalog.Repository
	tx          txRunner
	outbox      outbox.Emitter
	pricing     Pricing
	currency    enums.Currency
	metrics     *metrics.StorefrontMetrics
	logg        *logger.Logger
	now         func() time.Time
	orderNumber func(time.Time) (string, error)
}

// NewService builds the checkout service.
func NewService(p Params) (Service, error) {
	if p.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Currency == "" {
		p.Currency = enums.CurrencyUSD
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = func() time.Time { return time.Now().UTC() }
	}
	if p.OrderNumber == nil {
		p.OrderNumber = NewOrderNumber
	}
	return &service{
		carts:       p.Carts,
		orders:      p.Orders,
		catalog:     p.Catalog,
		tx:          p.Tx,
		outbox:      p.Outbox,
		pricing:     p.Pricing,
		currency:    p.Currency,
		metrics:     p.Metrics,
		logg:        p.Logger,
		now:         p.Now,
		orderNumber: p.OrderNumber,
	}, nil
}

// CreateOrderFromCart converts the identity's active cart into an order in a
// single transaction. Stock is re-checked under row locks and decremented in
// the same transaction, so any failure leaves no order, no stock change and an
// untouched cart.
func (s *service) CreateOrderFromCart(ctx context.Context, id cart.Identity, input CheckoutInput) (order *models.Order, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveCheckout(time.Since(started), err) }()

	guestEmail, err := s.validateInput(id, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		now := s.now()

		record, err := cartRepo.LockActive(ctx, id)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
		}
		if record == nil || record.IsExpired(now) || len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		stock, err := lockStock(ctx, catalogRepo, record.Items)
		if err != nil {
			return err
		}

		totals := s.pricing.Totals(cart.TotalPrice(record.Items))
		number, err := s.nextOrderNumber(ctx, orderRepo, now)
		if err != nil {
			return err
		}

		created := &models.Order{
			OrderNumber:     number,
			CartID:          record.ID,
			UserID:          record.UserID,
			SessionID:       record.SessionID,
			GuestEmail:      guestEmail,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   input.PaymentMethod,
			Currency:        s.currency,
			SubtotalCents:   totals.SubtotalCents,
			TaxCents:        totals.TaxCents,
			ShippingCents:   totals.ShippingCents,
			DiscountCents:   totals.DiscountCents,
			TotalCents:      totals.TotalCents,
			BillingAddress:  input.BillingAddress,
			ShippingAddress: input.ShippingAddress,
			Notes:           trimmed(input.Notes),
		}
		if err := orderRepo.Create(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		lines := make([]models.OrderLineItem, 0, len(record.Items))
		for _, item := range record.Items {
			product, variant := stock.lookup(item)
			lines = append(lines, models.OrderLineItem{
				OrderID:         created.ID,
				ProductID:       item.ProductID,
				VariantID:       item.VariantID,
				Quantity:        item.Quantity,
				UnitPriceCents:  item.UnitPriceCents,
				TotalPriceCents: item.LineTotalCents(),
				ProductSnapshot: catalog.ProductSnapshot(product, variant),
			})
		}
		if err := orderRepo.CreateLineItems(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line items")
		}
		created.LineItems = lines

		if err := decrementStock(ctx, catalogRepo, record.Items); err != nil {
			return err
		}

		if _, err := cartRepo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear converted cart")
		}
		if err := cartRepo.MarkConverted(ctx, record.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: record.UserID, SessionID: deref(record.SessionID)},
			Data: payloads.OrderCreatedEvent{
				OrderID:     created.ID,
				OrderNumber: created.OrderNumber,
				CartID:      record.ID,
				UserID:      record.UserID,
				GuestEmail:  guestEmail,
				ItemCount:   len(lines),
				TotalCents:  created.TotalCents,
				Currency:    created.Currency,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	cart.Invalidate(ctx, id)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"cart_id":      order.CartID.String(),
		"total_cents":  order.TotalCents,
	}), "checkout.order_created")
	return order, nil
}

func (s *service) validateInput(id cart.Identity, input CheckoutInput) (*string, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is invalid").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}
	if err := input.BillingAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "billing address is invalid")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping address is invalid")
	}
	if id.IsUser() {
		return nil, nil
	}
	email := strings.TrimSpace(deref(input.GuestEmail))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "guest checkout requires a valid email")
	}
	return &email, nil
}

// nextOrderNumber draws order numbers until one is free.
func (s *service) nextOrderNumber(ctx context.Context, repo orders.Repository, now time.Time) (string, error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number, err := s.orderNumber(now)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		taken, err := repo.OrderNumberExists(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate an order number")
}

type lockedStock struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
}

func (l lockedStock) lookup(item models.CartLineItem) (*models.Product, *models.ProductVariant) {
	product := l.products[item.ProductID]
	if item.VariantID == nil {
		return product, nil
	}
	return product, l.variants[*item.VariantID]
}

// lockStock locks every product and variant the cart references, in id
// order, and checks each line can still be fulfilled.
func lockStock(ctx context.Context, repo catalog.Repository, items []models.CartLineItem) (lockedStock, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		if item.VariantID != nil {
			variantIDs = append(variantIDs, *item.VariantID)
		}
	}
	products, err := repo.LockProductsByIDs(ctx, productIDs)
	if err != nil {
		return lockedStock{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
	}
	variants, err := repo.LockVariantsByIDs(ctx, variantIDs)
	if err != nil {
		return lockedStock{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock variants")
	}
	stock := lockedStock{products: products, variants: variants}

	for _, item := range items {
		product, variant := stock.lookup(item)
		if !product.IsPurchasable() {
			return lockedStock{}, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if item.VariantID != nil && (variant == nil || !variant.IsActive || variant.ProductID != product.ID) {
			return lockedStock{}, pkgerrors.New(pkgerrors.CodeProductUnavailable, "selected variant is no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID, "variant_id": *item.VariantID})
		}
		if available := catalog.AvailableStock(product, variant); available < item.Quantity {
			return lockedStock{}, insufficient(item, available)
		}
	}
	return stock, nil
}

func decrementStock(ctx context.Context, repo catalog.Repository, items []models.CartLineItem) error {
	for _, item := range items {
		var (
			ok  bool
			err error
		)
		if item.VariantID != nil {
			ok, err = repo.DecrementVariantStock(ctx, *item.VariantID, item.Quantity)
		} else {
			ok, err = repo.DecrementProductStock(ctx, item.ProductID, item.Quantity)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return insufficient(item, 0)
		}
	}
	return nil
}

func insufficient(item models.CartLineItem, available int) error {
	if available < 0 {
		available = 0
	}
	return pkgerrors.New(pkgerrors.CodeStockInsufficient, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": item.ProductID,
			"variant_id": item.VariantID,
			"requested":  item.Quantity,
			"available":  available,
		})
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}
