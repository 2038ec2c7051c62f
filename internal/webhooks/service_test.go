package webhooks

import (
	"context"
	"encoding/json"
	"testing"

	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

type stubReconciler struct {
	successes []string
	failures  []string
	reasons   []string
}

func (s *stubReconciler) HandleTransferSuccess(ctx context.Context, transferRef string) error {
	s.successes = append(s.successes, transferRef)
	return nil
}

func (s *stubReconciler) HandleTransferFailure(ctx context.Context, transferRef, reason string) error {
	s.failures = append(s.failures, transferRef)
	s.reasons = append(s.reasons, reason)
	return nil
}

type stubSettler struct {
	refs    []string
	amounts []int64
	settled bool
}

func (s *stubSettler) SettleCharge(ctx context.Context, transactionRef string, amountMinor int64) (bool, error) {
	s.refs = append(s.refs, transactionRef)
	s.amounts = append(s.amounts, amountMinor)
	return s.settled, nil
}

func newWebhookService(t *testing.T) (Service, *stubReconciler, *stubSettler) {
	t.Helper()
	reconciler := &stubReconciler{}
	settler := &stubSettler{settled: true}
	svc, err := NewService(reconciler, settler, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, reconciler, settler
}

func event(t *testing.T, name string, data any) *paystack.WebhookEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	return &paystack.WebhookEvent{Event: name, Data: raw}
}

func TestHandleTransferSuccess(t *testing.T) {
	svc, reconciler, _ := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), event(t, paystack.EventTransferSuccess,
		paystack.TransferEventData{Reference: "ref-1", Status: "success"}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(reconciler.successes) != 1 || reconciler.successes[0] != "ref-1" {
		t.Fatalf("successes = %v, want [ref-1]", reconciler.successes)
	}
}

func TestHandleTransferFailureAndReversal(t *testing.T) {
	svc, reconciler, _ := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), event(t, paystack.EventTransferFailed,
		paystack.TransferEventData{Reference: "ref-2", Reason: "insufficient balance"}))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	// Reversal with no reason falls back to the event name.
	err = svc.HandleEvent(context.Background(), event(t, paystack.EventTransferReversed,
		paystack.TransferEventData{Reference: "ref-3"}))
	if err != nil {
		t.Fatalf("handle reversed: %v", err)
	}

	if len(reconciler.failures) != 2 {
		t.Fatalf("failures = %v, want two", reconciler.failures)
	}
	if reconciler.reasons[0] != "insufficient balance" {
		t.Fatalf("reason = %s, want insufficient balance", reconciler.reasons[0])
	}
	if reconciler.reasons[1] != paystack.EventTransferReversed {
		t.Fatalf("reason = %s, want %s", reconciler.reasons[1], paystack.EventTransferReversed)
	}
}

func TestHandleChargeSuccess(t *testing.T) {
	svc, _, settler := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), event(t, paystack.EventChargeSuccess,
		paystack.ChargeEventData{Reference: "txn-9", AmountMinor: 25000}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(settler.refs) != 1 || settler.refs[0] != "txn-9" || settler.amounts[0] != 25000 {
		t.Fatalf("settler calls = %v %v", settler.refs, settler.amounts)
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	svc, reconciler, settler := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), event(t, "subscription.create", map[string]string{}))
	if err != nil {
		t.Fatalf("unknown events must be ignored: %v", err)
	}
	if len(reconciler.successes)+len(reconciler.failures)+len(settler.refs) != 0 {
		t.Fatal("unknown event must not reach any handler")
	}
}

func TestEmptyEventRejected(t *testing.T) {
	svc, _, _ := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation code", err)
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	svc, _, _ := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), &paystack.WebhookEvent{
		Event: paystack.EventTransferSuccess,
		Data:  json.RawMessage(`"not an object"`),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation code", err)
	}
}
