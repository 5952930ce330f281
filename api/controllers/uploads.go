package controllers

import (
	"net/http"

	"github.com/mitraponics/storefront-backend/api/responses"
	uploadsvc "github.com/mitraponics/storefront-backend/internal/uploads"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/logger"
)

const uploadFormField = "file"

// UploadImage stores a product image from a multipart form. The content
// type is sniffed from the bytes, not the form headers.
func UploadImage(svc uploadsvc.Service, logg *logger.Logger, maxMemoryBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "uploads service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		file, _, err := r.FormFile(uploadFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required"))
			return
		}
		defer file.Close()

		result, err := svc.SaveImage(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
