package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mitraponics/storefront-backend/api/middleware"
	"github.com/mitraponics/storefront-backend/api/responses"
	"github.com/mitraponics/storefront-backend/api/validators"
	cartsvc "github.com/mitraponics/storefront-backend/internal/cart"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/logger"
)

// GetCart returns the session's cart with a subtotal at current prices.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		view, err := svc.Get(r.Context(), middleware.CartSessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// AddCartItem upserts a product into the session cart. Repeating the same
// product adds to its quantity instead of creating a second line.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), middleware.CartSessionFromContext(r.Context()), cartsvc.AddItemInput{
			ProductID:       payload.ProductID,
			Quantity:        payload.Quantity,
			SelectedOptions: payload.SelectedOptions,
			Personalization: payload.Personalization,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// UpdateCartItem replaces an item's quantity and, when supplied, its
// personalization and selected options.
func UpdateCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateItem(r.Context(), middleware.CartSessionFromContext(r.Context()), itemID, cartsvc.UpdateItemInput{
			Quantity:        payload.Quantity,
			Personalization: payload.Personalization,
			SelectedOptions: payload.SelectedOptions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// RemoveCartItem deletes a single line from the session cart.
func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), middleware.CartSessionFromContext(r.Context()), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// ClearCart empties the session cart.
func ClearCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		if err := svc.Clear(r.Context(), middleware.CartSessionFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

type addCartItemRequest struct {
	ProductID       uuid.UUID      `json:"product_id" validate:"required"`
	Quantity        int            `json:"quantity" validate:"required,min=1"`
	SelectedOptions models.JSONMap `json:"selected_options,omitempty"`
	Personalization *string        `json:"personalization,omitempty"`
}

type updateCartItemRequest struct {
	Quantity        int            `json:"quantity" validate:"required,min=1"`
	SelectedOptions models.JSONMap `json:"selected_options,omitempty"`
	Personalization *string        `json:"personalization,omitempty"`
}
