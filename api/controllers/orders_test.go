package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/api/middleware"
	"github.com/adesina-labs/kasuwa-backend/internal/orders"
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

type stubOrdersService struct {
	order      *models.Order
	cancel     *orders.CancelResult
	lastUpdate orders.UpdateItemInput
	lastCancel orders.CancelInput
	err        error
}

func (s *stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) List(ctx context.Context, params orders.ListParams) (*orders.OrderList, error) {
	if s.order == nil {
		return &orders.OrderList{}, s.err
	}
	return &orders.OrderList{Orders: []models.Order{*s.order}}, s.err
}

func (s *stubOrdersService) UpdateItemFulfillment(ctx context.Context, input orders.UpdateItemInput) (*models.Order, error) {
	s.lastUpdate = input
	return s.order, s.err
}

func (s *stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*orders.CancelResult, error) {
	s.lastCancel = input
	return s.cancel, s.err
}

func withChiParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestOrderItemFulfillment_PassesActorScope(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()
	actorID := uuid.New()
	merchantID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID}}
	handler := OrderItemFulfillment(svc, nil)

	req := httptest.NewRequest(http.MethodPatch, "/merchant/orders/items/"+itemID.String(),
		bytes.NewReader([]byte(`{"status":"sent_to_hub"}`)))
	req = withChiParam(req, "itemId", itemID.String())
	req = req.WithContext(middleware.WithActor(req.Context(), actorID, enums.ActorRoleMerchant, &merchantID))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastUpdate.ItemID != itemID {
		t.Fatalf("expected item %s got %s", itemID, svc.lastUpdate.ItemID)
	}
	if svc.lastUpdate.ActorRole != enums.ActorRoleMerchant {
		t.Fatalf("expected merchant role got %s", svc.lastUpdate.ActorRole)
	}
	if svc.lastUpdate.MerchantID == nil || *svc.lastUpdate.MerchantID != merchantID {
		t.Fatalf("expected merchant scope %s got %v", merchantID, svc.lastUpdate.MerchantID)
	}
	if svc.lastUpdate.NewStatus != enums.OrderItemStatusSentToHub {
		t.Fatalf("expected sent_to_hub got %s", svc.lastUpdate.NewStatus)
	}
}

func TestOrderItemFulfillment_RejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	handler := OrderItemFulfillment(svc, nil)

	itemID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/merchant/orders/items/"+itemID.String(),
		bytes.NewReader([]byte(`{"status":"teleported"}`)))
	req = withChiParam(req, "itemId", itemID.String())
	req = req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.ActorRoleAdmin, nil))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.lastUpdate.ItemID != uuid.Nil {
		t.Fatalf("service must not be reached for unknown status")
	}
}

func TestOrderItemFulfillment_RequiresActor(t *testing.T) {
	handler := OrderItemFulfillment(&stubOrdersService{}, nil)

	itemID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/merchant/orders/items/"+itemID.String(),
		bytes.NewReader([]byte(`{"status":"delivered"}`)))
	req = withChiParam(req, "itemId", itemID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestOrderCancel_PassesReason(t *testing.T) {
	orderID := uuid.New()
	actorID := uuid.New()
	svc := &stubOrdersService{cancel: &orders.CancelResult{ItemsRestocked: 2, RefundRef: "42"}}
	handler := OrderCancel(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/orders/"+orderID.String()+"/cancel",
		bytes.NewReader([]byte(`{"reason":"customer request"}`)))
	req = withChiParam(req, "orderId", orderID.String())
	req = req.WithContext(middleware.WithActor(req.Context(), actorID, enums.ActorRoleAdmin, nil))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastCancel.OrderID != orderID || svc.lastCancel.ActorID != actorID {
		t.Fatalf("cancel input not threaded: %+v", svc.lastCancel)
	}
	if svc.lastCancel.Reason != "customer request" {
		t.Fatalf("unexpected reason %q", svc.lastCancel.Reason)
	}
}

func TestOrderGet_RejectsMalformedID(t *testing.T) {
	handler := OrderGet(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/not-a-uuid", nil)
	req = withChiParam(req, "orderId", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestOrderList_RejectsUnknownStatusFilter(t *testing.T) {
	handler := OrderList(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders?status=galactic", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
