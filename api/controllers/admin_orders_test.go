package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func adminRouter(svc *stubOrdersService) http.Handler {
	r := chi.NewRouter()
	r.Put("/admin/orders/{orderId}/status", AdminOrderStatus(svc, nil))
	r.Put("/admin/orders/{orderId}/payment-status", AdminOrderPaymentStatus(svc, nil))
	return r
}

func TestAdminOrderStatusUpdates(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, Status: enums.OrderStatusShipped}}

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"shipped"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.OrderStatusShipped, svc.lastStatus)
}

func TestAdminOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodPut, "/admin/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"lost"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.lastStatus)
}

func TestAdminOrderStatusSurfacesTransitionConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move delivered order to pending")}
	req := httptest.NewRequest(http.MethodPut, "/admin/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"pending"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminOrderPaymentStatusUpdates(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPaid}}

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/"+orderID.String()+"/payment-status", strings.NewReader(`{"status":"paid"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.PaymentStatusPaid, svc.lastPaid)
}
