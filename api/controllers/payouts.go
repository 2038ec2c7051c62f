package controllers

import (
	"net/http"
	"strings"

	"github.com/adesina-labs/kasuwa-backend/api/responses"
	"github.com/adesina-labs/kasuwa-backend/api/validators"
	"github.com/adesina-labs/kasuwa-backend/internal/payouts"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

// PayoutAggregate sweeps eligible splits into pending payouts.
func PayoutAggregate(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		results, err := svc.AggregateEligible(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

// PayoutProcess initiates the gateway transfer for a pending payout.
func PayoutProcess(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Process(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PayoutList returns payouts filtered by status or merchant. One filter is
// required so the endpoint never scans the full table.
func PayoutList(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID, err := validators.ParseQueryUUID(r, "merchant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if merchantID != nil {
			list, err := svc.ListByMerchant(r.Context(), *merchantID, limit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("status"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "status or merchant_id filter is required"))
			return
		}
		status, err := enums.ParsePayoutStatus(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout status"))
			return
		}

		list, err := svc.ListByStatus(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func PayoutGet(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.Get(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payout)
	}
}
