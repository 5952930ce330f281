package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mitraponics/storefront-backend/api/responses"
	"github.com/mitraponics/storefront-backend/api/validators"
	productsvc "github.com/mitraponics/storefront-backend/internal/products"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/logger"
	"github.com/mitraponics/storefront-backend/pkg/pagination"
)

// ListProducts serves the public catalog. Inactive listings only show up
// when the caller asks for them, which the router restricts to admins.
func ListProducts(svc productsvc.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params := productsvc.ListParams{
			Search:          r.URL.Query().Get("search"),
			IncludeInactive: includeInactive,
			Page:            pageParams(r),
		}
		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			params.Category = &category
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productListResponse{
			Items:      result.Items,
			NextCursor: result.NextCursor,
		})
	}
}

// GetProduct resolves a product by UUID or slug.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CreateProduct handles admin catalog additions.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies partial catalog edits.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a catalog listing.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createProductRequest struct {
	Name           string         `json:"name" validate:"required"`
	Description    *string        `json:"description,omitempty"`
	Category       *string        `json:"category,omitempty"`
	Seller         *string        `json:"seller,omitempty"`
	Price          string         `json:"price" validate:"required"`
	Stock          int            `json:"stock" validate:"min=0"`
	Images         []string       `json:"images,omitempty"`
	Personalizable bool           `json:"personalizable"`
	Options        models.JSONMap `json:"options,omitempty"`
	IsActive       *bool          `json:"is_active,omitempty"`
}

func (r createProductRequest) toInput() (productsvc.CreateInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return productsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return productsvc.CreateInput{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		Seller:         r.Seller,
		Price:          price,
		Stock:          r.Stock,
		Images:         r.Images,
		Personalizable: r.Personalizable,
		Options:        r.Options,
		IsActive:       isActive,
	}, nil
}

type updateProductRequest struct {
	Name           *string        `json:"name,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Category       *string        `json:"category,omitempty"`
	Seller         *string        `json:"seller,omitempty"`
	Price          *string        `json:"price,omitempty"`
	Stock          *int           `json:"stock,omitempty" validate:"omitempty,min=0"`
	Images         []string       `json:"images,omitempty"`
	Personalizable *bool          `json:"personalizable,omitempty"`
	Options        models.JSONMap `json:"options,omitempty"`
	IsActive       *bool          `json:"is_active,omitempty"`
}

func (r updateProductRequest) toInput() (productsvc.UpdateInput, error) {
	input := productsvc.UpdateInput{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		Seller:         r.Seller,
		Stock:          r.Stock,
		Images:         r.Images,
		Personalizable: r.Personalizable,
		Options:        r.Options,
		IsActive:       r.IsActive,
	}
	if r.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*r.Price))
		if err != nil {
			return productsvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	return input, nil
}

type productListResponse struct {
	Items      []models.Product `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func pageParams(r *http.Request) pagination.Params {
	params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	return params
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
