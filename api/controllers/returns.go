package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/api/middleware"
	"github.com/adesina-labs/kasuwa-backend/api/responses"
	"github.com/adesina-labs/kasuwa-backend/api/validators"
	"github.com/adesina-labs/kasuwa-backend/internal/returns"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

type returnCreateRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	OrderItemID uuid.UUID `json:"order_item_id" validate:"required"`
	CustomerID  uuid.UUID `json:"customer_id" validate:"required"`
	Reason      string    `json:"reason" validate:"required,min=3"`
	Description *string   `json:"description,omitempty"`
}

// ReturnCreate opens a return request against a delivered line item.
func ReturnCreate(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		var body returnCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Create(r.Context(), returns.CreateInput{
			OrderID:     body.OrderID,
			OrderItemID: body.OrderItemID,
			CustomerID:  body.CustomerID,
			Reason:      body.Reason,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// ReturnList returns return requests, optionally filtered by status.
func ReturnList(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.ReturnStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseReturnStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return status"))
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

func ReturnGet(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		returnID, err := validators.ParsePathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Get(r.Context(), returnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

type returnDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// ReturnMerchantDecision records the owning merchant's approve/reject call.
// The merchant scope comes from the access token.
func ReturnMerchantDecision(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		returnID, err := validators.ParsePathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID := middleware.MerchantIDFromContext(r.Context())
		if merchantID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing"))
			return
		}

		var body returnDecisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.MerchantDecision(r.Context(), returns.MerchantDecisionInput{
			ReturnID:   returnID,
			MerchantID: *merchantID,
			Approve:    body.Decision == "approve",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// ReturnAdminEscalate moves a merchant-rejected return into admin review.
func ReturnAdminEscalate(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		returnID, err := validators.ParsePathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adminID := middleware.UserIDFromContext(r.Context())
		if adminID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		request, err := svc.AdminEscalate(r.Context(), returnID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// ReturnAdminApprove overrides a merchant rejection and triggers the refund.
func ReturnAdminApprove(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		returnID, err := validators.ParsePathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adminID := middleware.UserIDFromContext(r.Context())
		if adminID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		request, err := svc.AdminApprove(r.Context(), returnID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}
