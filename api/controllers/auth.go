package controllers

import (
	"net/http"

	"github.com/adesina-labs/kasuwa-backend/api/responses"
	"github.com/adesina-labs/kasuwa-backend/api/validators"
	"github.com/adesina-labs/kasuwa-backend/internal/auth"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

// AuthLogin wires the back-office login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
