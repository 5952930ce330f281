package controllers

import (
	"net/http"

	"github.com/mitraponics/storefront-backend/api/responses"
	"github.com/mitraponics/storefront-backend/api/validators"
	usersvc "github.com/mitraponics/storefront-backend/internal/users"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/logger"
)

// AdminLogin authenticates an operator. Valid credentials on a non-admin
// account are still rejected.
func AdminLogin(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminLogin(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAuthResponse(result))
	}
}

// AdminRegister provisions an operator account. Only enabled in dev.
func AdminRegister(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminRegister(r.Context(), usersvc.RegisterInput{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAuthResponse(result))
	}
}
