package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	order     *models.Order
	err       error
	lastID    cartsvc.Identity
	lastInput checkoutsvc.CheckoutInput
}

func (s *stubCheckoutService) CreateOrderFromCart(ctx context.Context, id cartsvc.Identity, input checkoutsvc.CheckoutInput) (*models.Order, error) {
	s.lastID = id
	s.lastInput = input
	return s.order, s.err
}

const addressJSON = `{"first_name":"Ada","last_name":"Lovelace","line1":"1 Way","city":"London","state":"LDN","postal_code":"N1","country":"GB"}`

func TestCheckoutCreatesOrder(t *testing.T) {
	svc := &stubCheckoutService{order: &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-2026-ABCDEFGH",
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		Currency:      enums.CurrencyUSD,
		SubtotalCents: 4999,
		ShippingCents: 999,
		TaxCents:      400,
		TotalCents:    6398,
	}}

	body := `{"billing_address":` + addressJSON + `,"guest_email":"a@b.co","payment_method":"card"}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, guestRequest(http.MethodPost, "/checkout", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, cartsvc.SessionIdentity("sess-1"), svc.lastID)
	assert.Equal(t, "Ada", svc.lastInput.ShippingAddress.FirstName, "shipping defaults to billing")
	assert.Equal(t, enums.PaymentMethodCard, svc.lastInput.PaymentMethod)

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "ORD-2026-ABCDEFGH", envelope.Data.OrderNumber)
	assert.Equal(t, 6398, envelope.Data.TotalCents)
	assert.Equal(t, "$63.98", envelope.Data.FormattedTotal)
	assert.NotNil(t, envelope.Data.LineItems)
}

func TestCheckoutValidatesBody(t *testing.T) {
	svc := &stubCheckoutService{}
	for _, body := range []string{
		`{"payment_method":"card"}`,
		`{"billing_address":` + addressJSON + `}`,
		`{"billing_address":` + addressJSON + `,"payment_method":"card","guest_email":"nope"}`,
	} {
		rec := httptest.NewRecorder()
		Checkout(svc, nil).ServeHTTP(rec, guestRequest(http.MethodPost, "/checkout", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCheckoutStockInsufficient(t *testing.T) {
	productID := uuid.New()
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStockInsufficient, "insufficient stock").
		WithDetails(map[string]any{"product_id": productID, "requested": 2, "available": 1})}

	body := `{"billing_address":` + addressJSON + `,"payment_method":"card"}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, guestRequest(http.MethodPost, "/checkout", body))

	require.Equal(t, http.StatusConflict, rec.Code)
	var out errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, string(pkgerrors.CodeStockInsufficient), out.Error.Code)
	assert.Equal(t, productID.String(), out.Error.Data["product_id"])
}
