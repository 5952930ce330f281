package controllers

import (
	"net/http"
	"strings"

	"github.com/mitraponics/storefront-backend/api/middleware"
	"github.com/mitraponics/storefront-backend/api/responses"
	"github.com/mitraponics/storefront-backend/api/validators"
	checkoutsvc "github.com/mitraponics/storefront-backend/internal/checkout"
	"github.com/mitraponics/storefront-backend/pkg/enums"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/logger"
)

// Checkout converts the session cart into an order. Works for guests and
// authenticated shoppers alike; a valid token attaches the order to the
// account.
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

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := checkoutsvc.Input{
			SessionID:     middleware.CartSessionFromContext(r.Context()),
			PaymentMethod: method,
			CustomerName:  payload.CustomerName,
			Email:         payload.Email,
			Phone:         payload.Phone,
			Address: checkoutsvc.Address{
				Province:        payload.Province,
				City:            payload.City,
				District:        payload.District,
				PostCode:        payload.PostCode,
				DetailedAddress: payload.DetailedAddress,
			},
			Notes: payload.Notes,
		}

		principal := middleware.PrincipalFromContext(r.Context())
		if principal.Authenticated() {
			uid := principal.UserID
			input.UserID = &uid
		}

		order, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type checkoutRequest struct {
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	CustomerName    string  `json:"customer_name" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           *string `json:"phone,omitempty"`
	Province        string  `json:"province" validate:"required"`
	City            string  `json:"city" validate:"required"`
	District        string  `json:"district" validate:"required"`
	PostCode        string  `json:"post_code" validate:"required"`
	DetailedAddress string  `json:"detailed_address" validate:"required"`
	Notes           *string `json:"notes,omitempty"`
}
