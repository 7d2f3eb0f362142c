package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	BillingAddress  types.Address  `json:"billing_address" validate:"required"`
	ShippingAddress *types.Address `json:"shipping_address"`
	GuestEmail      *string        `json:"guest_email" validate:"omitempty,email"`
	PaymentMethod   string         `json:"payment_method" validate:"required,notblank"`
	Notes           *string        `json:"notes" validate:"omitempty,max=1000"`
}

// Checkout converts the caller's cart into an order. The shipping address
// defaults to the billing address.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipping := payload.BillingAddress
		if payload.ShippingAddress != nil {
			shipping = *payload.ShippingAddress
		}

		order, err := svc.CreateOrderFromCart(r.Context(), middleware.IdentityFromContext(r.Context()), checkoutsvc.CheckoutInput{
			BillingAddress:  payload.BillingAddress,
			ShippingAddress: shipping,
			GuestEmail:      payload.GuestEmail,
			PaymentMethod:   enums.PaymentMethod(payload.PaymentMethod),
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
