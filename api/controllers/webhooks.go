package controllers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/adesina-labs/kasuwa-backend/api/responses"
	"github.com/adesina-labs/kasuwa-backend/internal/webhooks"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

type gatewayWebhookService interface {
	HandleEvent(ctx context.Context, event *paystack.WebhookEvent) error
}

type webhookVerifier interface {
	VerifyWebhookSignature(ctx context.Context, rawBody []byte, signatureHeader string) bool
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// GatewayWebhook receives payment gateway callbacks. Once the signature
// checks out the endpoint acknowledges with 200 regardless of handler
// outcome; failures are logged and the idempotency mark is cleared so a
// replay can be reprocessed.
func GatewayWebhook(svc gatewayWebhookService, verifier webhookVerifier, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}

		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !verifier.VerifyWebhookSignature(ctx, rawBody, r.Header.Get("x-paystack-signature")) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		event, err := paystack.ParseWebhookEvent(rawBody)
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "gateway webhook payload malformed")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		eventID := webhookEventID(rawBody)
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				responses.WriteSuccess(w, nil)
				return
			}
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, eventID)
			}
			if logg != nil {
				logg.Error(logg.WithField(ctx, "webhook_event", event.Event), "gateway webhook handler failed", err)
			}
		}

		responses.WriteSuccess(w, nil)
	}
}

func webhookEventID(rawBody []byte) string {
	sum := sha256.Sum256(rawBody)
	return hex.EncodeToString(sum[:])
}

var _ webhookGuard = (*webhooks.IdempotencyGuard)(nil)
