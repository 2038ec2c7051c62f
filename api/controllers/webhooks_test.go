package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adesina-labs/kasuwa-backend/internal/webhooks"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

type stubGatewayWebhookService struct {
	calls  int
	events []string
	err    error
}

func (s *stubGatewayWebhookService) HandleEvent(ctx context.Context, event *paystack.WebhookEvent) error {
	s.calls++
	s.events = append(s.events, event.Event)
	return s.err
}

type stubVerifier struct {
	valid bool
}

func (s stubVerifier) VerifyWebhookSignature(ctx context.Context, rawBody []byte, signatureHeader string) bool {
	return s.valid
}

type inMemoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newInMemoryIdempotencyStore() *inMemoryIdempotencyStore {
	return &inMemoryIdempotencyStore{keys: map[string]string{}}
}

func (s *inMemoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *inMemoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (s *inMemoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return strings.Join([]string{"test", "idempotency", scope, id}, ":")
}

func (s *inMemoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func newTestGuard(t *testing.T) *webhooks.IdempotencyGuard {
	t.Helper()
	guard, err := webhooks.NewIdempotencyGuard(newInMemoryIdempotencyStore(), time.Minute, "gateway-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func TestGatewayWebhook_DispatchesAndDeduplicates(t *testing.T) {
	payload := []byte(`{"event":"transfer.success","data":{"reference":"po-123","status":"success"}}`)
	service := &stubGatewayWebhookService{}
	handler := GatewayWebhook(service, stubVerifier{valid: true}, newTestGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected one dispatch got %d", service.calls)
	}
	if service.events[0] != paystack.EventTransferSuccess {
		t.Fatalf("unexpected event %q", service.events[0])
	}

	req2 := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewReader(payload))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate got %d", rec2.Code)
	}
	if service.calls != 1 {
		t.Fatalf("duplicate body must not redispatch, got %d calls", service.calls)
	}
}

func TestGatewayWebhook_RejectsInvalidSignature(t *testing.T) {
	service := &stubGatewayWebhookService{}
	handler := GatewayWebhook(service, stubVerifier{valid: false}, newTestGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader(`{"event":"transfer.success","data":{}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service must not run on bad signature")
	}
}

func TestGatewayWebhook_AcksHandlerFailureAndAllowsReplay(t *testing.T) {
	payload := []byte(`{"event":"transfer.failed","data":{"reference":"po-456","reason":"insufficient balance"}}`)
	service := &stubGatewayWebhookService{err: fmt.Errorf("downstream unavailable")}
	handler := GatewayWebhook(service, stubVerifier{valid: true}, newTestGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("handler failure must still ack with 200, got %d", rec.Code)
	}

	service.err = nil
	req2 := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewReader(payload))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if service.calls != 2 {
		t.Fatalf("replay after failure should reach the handler again, got %d calls", service.calls)
	}
}

func TestGatewayWebhook_MalformedBodyStillAcks(t *testing.T) {
	service := &stubGatewayWebhookService{}
	handler := GatewayWebhook(service, stubVerifier{valid: true}, newTestGuard(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("malformed body must be acked, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service must not run on malformed body")
	}
}
