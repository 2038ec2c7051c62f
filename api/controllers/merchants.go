package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/api/middleware"
	"github.com/adesina-labs/kasuwa-backend/api/responses"
	"github.com/adesina-labs/kasuwa-backend/api/validators"
	"github.com/adesina-labs/kasuwa-backend/internal/merchants"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

// ApplicationSubmit accepts a prospective merchant's onboarding application.
func ApplicationSubmit(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		var body merchants.SubmitApplicationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		application, err := svc.SubmitApplication(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, application)
	}
}

// ApplicationList returns applications, optionally filtered by status.
func ApplicationList(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.ApplicationStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseApplicationStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid application status"))
				return
			}
			status = &parsed
		}

		applications, err := svc.ListApplications(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applications)
	}
}

type applicationReviewRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approve reject"`
	Notes    *string `json:"notes,omitempty"`
}

// ApplicationReview records the reviewing admin's approve/reject decision.
func ApplicationReview(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		applicationID, err := validators.ParsePathUUID(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewerID := middleware.UserIDFromContext(r.Context())
		if reviewerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var body applicationReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		application, err := svc.ReviewApplication(r.Context(), merchants.ReviewApplicationInput{
			ApplicationID: applicationID,
			Decision:      merchants.ApplicationDecision(body.Decision),
			ReviewerID:    reviewerID,
			Notes:         body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, application)
	}
}

// MerchantList returns merchants, optionally filtered by status.
func MerchantList(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.MerchantStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseMerchantStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant status"))
				return
			}
			status = &parsed
		}

		list, err := svc.List(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func MerchantGet(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		merchantID, err := validators.ParsePathUUID(r, "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchant, err := svc.Get(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, merchant)
	}
}

type merchantStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MerchantSetStatus suspends or reactivates a merchant.
func MerchantSetStatus(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		merchantID, err := validators.ParsePathUUID(r, "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body merchantStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseMerchantStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant status"))
			return
		}

		if err := svc.SetStatus(r.Context(), merchantID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// MerchantEnsureRecipient retries gateway recipient provisioning for a merchant.
func MerchantEnsureRecipient(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		merchantID, err := validators.ParsePathUUID(r, "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchant, err := svc.EnsureRecipient(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, merchant)
	}
}
