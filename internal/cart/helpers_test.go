package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/locks"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func testCartConfig() config.CartConfig {
	return config.CartConfig{
		MaxItemQuantity: 10,
		MaxItems:        50,
		UserTTL:         720 * time.Hour,
		GuestTTL:        168 * time.Hour,
	}
}

type harness struct {
	db  *gorm.DB
	svc Service
}

func newHarness(t *testing.T, mutate ...func(*Params)) *harness {
	t.Helper()
	db := dbtest.New(t)
	params := Params{
		Repo:    NewRepository(db),
		Catalog: catalog.NewRepository(db),
		Tx:      dbpkg.NewFromConn(db),
		Locker:  locks.NewLocalLocker(locks.Options{Wait: time.Second}),
		Outbox:  outbox.NewService(outbox.NewRepository(db), logger.Nop()),
		Metrics: metrics.NewStorefrontMetrics(prometheus.NewRegistry()),
		Config:  testCartConfig(),
	}
	for _, fn := range mutate {
		fn(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return &harness{db: db, svc: svc}
}

func (h *harness) product(t *testing.T, priceCents, stock int) *models.Product {
	t.Helper()
	return dbtest.SeedProduct(t, h.db, models.Product{PriceCents: priceCents, StockQuantity: stock})
}

func (h *harness) items(t *testing.T, cartID uuid.UUID) []models.CartLineItem {
	t.Helper()
	var items []models.CartLineItem
	require.NoError(t, h.db.Where("cart_id = ?", cartID).Order("created_at ASC").Find(&items).Error)
	return items
}

func (h *harness) cart(t *testing.T, id uuid.UUID) *models.Cart {
	t.Helper()
	var cart models.Cart
	require.NoError(t, h.db.Where("id = ?", id).First(&cart).Error)
	return &cart
}

func (h *harness) add(t *testing.T, id Identity, productID uuid.UUID, qty int) *models.CartLineItem {
	t.Helper()
	item, err := h.svc.AddItem(context.Background(), id, AddItemInput{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return item
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error: %v", err)
	return typed
}

func guest() Identity {
	return SessionIdentity("sess-" + uuid.NewString())
}
