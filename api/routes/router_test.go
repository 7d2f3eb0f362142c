package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/locks"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type app struct {
	db      *gorm.DB
	cfg     *config.Config
	handler http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret"},
		Cart: config.CartConfig{
			MaxItemQuantity: 10,
			MaxItems:        50,
			UserTTL:         720 * time.Hour,
			GuestTTL:        168 * time.Hour,
			SessionCookie:   "cart_session",
		},
		Checkout: config.CheckoutConfig{
			TaxRate:                    "0.08",
			FreeShippingThresholdCents: 5000,
			ShippingRateCents:          999,
		},
	}
}

func newApp(t *testing.T, dbP dbpkg.Pinger) *app {
	t.Helper()
	return newAppWith(t, dbP, nil)
}

func newAppWith(t *testing.T, dbP dbpkg.Pinger, configure func(*config.Config)) *app {
	t.Helper()
	cfg := testConfig()
	if configure != nil {
		configure(cfg)
	}
	db := dbtest.New(t)
	client := dbpkg.NewFromConn(db)
	registry := prometheus.NewRegistry()
	m := metrics.NewStorefrontMetrics(registry)
	emitter := outbox.NewService(outbox.NewRepository(db), logger.Nop())
	cartRepo := cart.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	ordersRepo := orders.NewRepository(db)

	cartService, err := cart.NewService(cart.Params{
		Repo:    cartRepo,
		Catalog: catalogRepo,
		Tx:      client,
		Locker:  locks.NewLocalLocker(locks.Options{}),
		Outbox:  emitter,
		Metrics: m,
		Config:  cfg.Cart,
	})
	require.NoError(t, err)

	pricing, err := checkout.PricingFromConfig(cfg.Checkout)
	require.NoError(t, err)
	checkoutService, err := checkout.NewService(checkout.Params{
		Carts:   cartRepo,
		Orders:  ordersRepo,
		Catalog: catalogRepo,
		Tx:      client,
		Outbox:  emitter,
		Pricing: pricing,
		Metrics: m,
	})
	require.NoError(t, err)

	ordersService, err := orders.NewService(ordersRepo, catalogRepo, client, emitter, m, nil)
	require.NoError(t, err)

	handler := NewRouter(cfg, logger.Nop(), dbP, nil, registry, cartService, checkoutService, ordersService)
	return &app{db: db, cfg: cfg, handler: handler}
}

func (a *app) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

type cartBody struct {
	ID            uuid.UUID `json:"id"`
	TotalQuantity int       `json:"total_quantity"`
	TotalCents    int       `json:"total_cents"`
	Items         []struct {
		ID       uuid.UUID `json:"id"`
		Quantity int       `json:"quantity"`
	} `json:"items"`
}

func TestHealthEndpoints(t *testing.T) {
	a := newApp(t, stubPinger{})
	rec := a.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Storefront-Env"))

	rec = a.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newApp(t, stubPinger{err: errors.New("db down")})
	rec = down.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t, stubPinger{})
	product := dbtest.SeedProduct(t, a.db, models.Product{PriceCents: 100, StockQuantity: 5})
	a.do(t, http.MethodPost, "/api/v1/cart", `{"product_id":"`+product.ID.String()+`"}`, map[string]string{middleware.SessionHeader: "metrics-sess"})

	rec := a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cart_mutations_total{op="add",outcome="ok"} 1`)
}

func TestGuestCartFlowOverHTTP(t *testing.T) {
	a := newApp(t, stubPinger{})
	product := dbtest.SeedProduct(t, a.db, models.Product{PriceCents: 1250, StockQuantity: 20})

	rec := a.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, session)
	headers := map[string]string{middleware.SessionHeader: session}

	rec = a.do(t, http.MethodPost, "/api/v1/cart", `{"product_id":"`+product.ID.String()+`","quantity":2}`, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/cart", `{"product_id":"`+product.ID.String()+`","quantity":9}`, headers)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "LIMIT_EXCEEDED")

	rec = a.do(t, http.MethodGet, "/api/v1/cart", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var body cartBody
	decodeData(t, rec, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.TotalQuantity)
	assert.Equal(t, 2500, body.TotalCents)

	rec = a.do(t, http.MethodPut, "/api/v1/cart/"+body.Items[0].ID.String(), `{"quantity":3}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Equal(t, 3, body.TotalQuantity)

	rec = a.do(t, http.MethodGet, "/api/v1/cart/validate", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	checkoutBody := `{"billing_address":{"first_name":"Ada","last_name":"Lovelace","line1":"1 Way","city":"London","state":"LDN","postal_code":"N1","country":"GB"},"payment_method":"card","guest_email":"ada@example.com"}`
	rec = a.do(t, http.MethodPost, "/api/v1/checkout", checkoutBody, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order struct {
		ID         uuid.UUID `json:"id"`
		TotalCents int       `json:"total_cents"`
	}
	decodeData(t, rec, &order)
	// 3750 subtotal + 999 shipping + 300 tax
	assert.Equal(t, 5049, order.TotalCents)

	rec = a.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String(), "", headers)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String(), "", map[string]string{middleware.SessionHeader: "someone-else"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", `{"reason":"oops"}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Product
	require.NoError(t, a.db.First(&p, "id = ?", product.ID).Error)
	assert.Equal(t, 20, p.StockQuantity)
}

func TestMergeRequiresBearerToken(t *testing.T) {
	a := newApp(t, stubPinger{})
	product := dbtest.SeedProduct(t, a.db, models.Product{PriceCents: 500, StockQuantity: 5})
	guest := map[string]string{middleware.SessionHeader: "merge-sess"}
	rec := a.do(t, http.MethodPost, "/api/v1/cart", `{"product_id":"`+product.ID.String()+`"}`, guest)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/cart/merge", "", guest)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(a.cfg.JWT, time.Now(), userID, time.Minute)
	require.NoError(t, err)
	rec = a.do(t, http.MethodPost, "/api/v1/cart/merge", "", map[string]string{
		middleware.SessionHeader: "merge-sess",
		"Authorization":          "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body cartBody
	decodeData(t, rec, &body)
	assert.Equal(t, 1, body.TotalQuantity)

	var userCart models.Cart
	require.NoError(t, a.db.First(&userCart, "user_id = ?", userID).Error)
	assert.Equal(t, body.ID, userCart.ID)
}

func TestAdminRoutesRequireConfiguredToken(t *testing.T) {
	path := "/api/admin/orders/" + uuid.NewString() + "/status"

	closed := newApp(t, stubPinger{})
	rec := closed.do(t, http.MethodPut, path, `{"status":"shipped"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	open := newAppWith(t, stubPinger{}, func(cfg *config.Config) { cfg.Admin.Token = "back-office" })
	rec = open.do(t, http.MethodPut, path, `{"status":"shipped"}`, map[string]string{"X-Admin-Token": "guess"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = open.do(t, http.MethodPut, path, `{"status":"lost"}`, map[string]string{"X-Admin-Token": "back-office"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = open.do(t, http.MethodPut, path, `{"status":"shipped"}`, map[string]string{"X-Admin-Token": "back-office"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
