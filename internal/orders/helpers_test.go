package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type harness struct {
	db  *gorm.DB
	svc Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.New(t)
	svc, err := NewService(
		NewRepository(db),
		catalog.NewRepository(db),
		dbpkg.NewFromConn(db),
		outbox.NewService(outbox.NewRepository(db), logger.Nop()),
		metrics.NewStorefrontMetrics(prometheus.NewRegistry()),
		logger.Nop(),
	)
	require.NoError(t, err)
	return &harness{db: db, svc: svc}
}

type orderSeed struct {
	UserID    *uuid.UUID
	SessionID *string
	Status    enums.OrderStatus
	CreatedAt time.Time
	Notes     *string
	Lines     []models.OrderLineItem
}

func seedOrder(t *testing.T, db *gorm.DB, seed orderSeed) *models.Order {
	t.Helper()
	if seed.Status == "" {
		seed.Status = enums.OrderStatusPending
	}
	addr := types.Address{FirstName: "Ada", LastName: "Lovelace", Line1: "1 Way", City: "London", State: "LDN", PostalCode: "N1", Country: "GB"}
	order := &models.Order{
		OrderNumber:     "ORD-2026-" + uuid.NewString()[:8],
		CartID:          uuid.New(),
		UserID:          seed.UserID,
		SessionID:       seed.SessionID,
		Status:          seed.Status,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodCard,
		Currency:        enums.CurrencyUSD,
		SubtotalCents:   1000,
		ShippingCents:   999,
		TaxCents:        80,
		TotalCents:      2079,
		BillingAddress:  addr,
		ShippingAddress: addr,
		Notes:           seed.Notes,
		CreatedAt:       seed.CreatedAt,
	}
	require.NoError(t, db.Omit("LineItems").Create(order).Error)
	for i := range seed.Lines {
		seed.Lines[i].OrderID = order.ID
		if seed.Lines[i].TotalPriceCents == 0 {
			seed.Lines[i].TotalPriceCents = seed.Lines[i].UnitPriceCents * seed.Lines[i].Quantity
		}
	}
	if len(seed.Lines) > 0 {
		require.NoError(t, db.Create(&seed.Lines).Error)
	}
	order.LineItems = seed.Lines
	return order
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", id).Error)
	return &order
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error: %v", err)
	return typed
}

func ptr[T any](v T) *T { return &v }
