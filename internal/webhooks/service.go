package webhooks

import (
	"context"
	"fmt"

	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

// payoutReconciler is the payout engine surface the webhook path drives.
type payoutReconciler interface {
	HandleTransferSuccess(ctx context.Context, transferRef string) error
	HandleTransferFailure(ctx context.Context, transferRef, reason string) error
}

// chargeSettler marks pending payments completed from charge callbacks.
type chargeSettler interface {
	SettleCharge(ctx context.Context, transactionRef string, amountMinor int64) (bool, error)
}

// Service routes verified gateway events to their domain handlers. Every
// handler must tolerate duplicate delivery; the gateway retries anything that
// does not get a 200.
type Service interface {
	HandleEvent(ctx context.Context, event *paystack.WebhookEvent) error
}

type service struct {
	payouts  payoutReconciler
	payments chargeSettler
	logg     *logger.Logger
}

// NewService builds the webhook dispatcher.
func NewService(payouts payoutReconciler, payments chargeSettler, logg *logger.Logger) (Service, error) {
	if payouts == nil || logg == nil {
		return nil, fmt.Errorf("webhook service requires payout handler and logger")
	}
	return &service{payouts: payouts, payments: payments, logg: logg}, nil
}

func (s *service) HandleEvent(ctx context.Context, event *paystack.WebhookEvent) error {
	if event == nil || event.Event == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "empty webhook event")
	}
	ctx = s.logg.WithField(ctx, "webhook_event", event.Event)

	switch event.Event {
	case paystack.EventTransferSuccess:
		data, err := event.DecodeTransferData()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode transfer payload")
		}
		return s.payouts.HandleTransferSuccess(ctx, data.Reference)

	case paystack.EventTransferFailed, paystack.EventTransferReversed:
		data, err := event.DecodeTransferData()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode transfer payload")
		}
		reason := data.Reason
		if reason == "" {
			reason = event.Event
		}
		return s.payouts.HandleTransferFailure(ctx, data.Reference, reason)

	case paystack.EventChargeSuccess:
		if s.payments == nil {
			s.logg.Warn(ctx, "charge event received but no payment settler wired")
			return nil
		}
		data, err := event.DecodeChargeData()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge payload")
		}
		settled, err := s.payments.SettleCharge(ctx, data.Reference, data.AmountMinor)
		if err != nil {
			return err
		}
		if !settled {
			s.logg.Info(ctx, "charge event ignored: reference unknown or already settled")
		}
		return nil

	default:
		s.logg.Info(ctx, "webhook event ignored")
		return nil
	}
}
