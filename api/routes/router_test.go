package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/internal/auth"
	"github.com/adesina-labs/kasuwa-backend/internal/merchants"
	"github.com/adesina-labs/kasuwa-backend/internal/orders"
	"github.com/adesina-labs/kasuwa-backend/internal/payouts"
	"github.com/adesina-labs/kasuwa-backend/internal/returns"
	pkgauth "github.com/adesina-labs/kasuwa-backend/pkg/auth"
	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type routerAuthService struct{}

func (routerAuthService) Login(ctx context.Context, input auth.LoginInput) (*auth.LoginResult, error) {
	return &auth.LoginResult{AccessToken: "token"}, nil
}

func (routerAuthService) UserFromClaims(ctx context.Context, claims *pkgauth.AccessTokenClaims) (*models.AdminUser, error) {
	return nil, nil
}

type routerMerchantsService struct{}

func (routerMerchantsService) SubmitApplication(ctx context.Context, input merchants.SubmitApplicationInput) (*models.MerchantApplication, error) {
	return &models.MerchantApplication{ID: uuid.New()}, nil
}

func (routerMerchantsService) ReviewApplication(ctx context.Context, input merchants.ReviewApplicationInput) (*models.MerchantApplication, error) {
	return &models.MerchantApplication{ID: input.ApplicationID}, nil
}

func (routerMerchantsService) Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	return &models.Merchant{ID: id}, nil
}

func (routerMerchantsService) List(ctx context.Context, status *enums.MerchantStatus, limit int) ([]models.Merchant, error) {
	return nil, nil
}

func (routerMerchantsService) ListApplications(ctx context.Context, status *enums.ApplicationStatus, limit int) ([]models.MerchantApplication, error) {
	return nil, nil
}

func (routerMerchantsService) SetStatus(ctx context.Context, id uuid.UUID, status enums.MerchantStatus) error {
	return nil
}

func (routerMerchantsService) EnsureRecipient(ctx context.Context, merchantID uuid.UUID) (*models.Merchant, error) {
	return &models.Merchant{ID: merchantID}, nil
}

type routerOrdersService struct{}

func (routerOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (routerOrdersService) List(ctx context.Context, params orders.ListParams) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (routerOrdersService) UpdateItemFulfillment(ctx context.Context, input orders.UpdateItemInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (routerOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*orders.CancelResult, error) {
	return &orders.CancelResult{}, nil
}

type routerReturnsService struct{}

func (routerReturnsService) Create(ctx context.Context, input returns.CreateInput) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{ID: uuid.New()}, nil
}

func (routerReturnsService) Get(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{ID: id}, nil
}

func (routerReturnsService) List(ctx context.Context, status *enums.ReturnStatus, limit int) ([]models.ReturnRequest, error) {
	return nil, nil
}

func (routerReturnsService) MerchantDecision(ctx context.Context, input returns.MerchantDecisionInput) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{ID: input.ReturnID}, nil
}

func (routerReturnsService) AdminEscalate(ctx context.Context, returnID, adminID uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{ID: returnID}, nil
}

func (routerReturnsService) AdminApprove(ctx context.Context, returnID, adminID uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{ID: returnID}, nil
}

func (routerReturnsService) ProcessRefund(ctx context.Context, returnID uuid.UUID) error {
	return nil
}

type routerPayoutsService struct{}

func (routerPayoutsService) AggregateEligible(ctx context.Context) ([]payouts.AggregationResult, error) {
	return nil, nil
}

func (routerPayoutsService) Process(ctx context.Context, payoutID uuid.UUID) (*payouts.ProcessResult, error) {
	return &payouts.ProcessResult{}, nil
}

func (routerPayoutsService) HandleTransferSuccess(ctx context.Context, transferRef string) error {
	return nil
}

func (routerPayoutsService) HandleTransferFailure(ctx context.Context, transferRef, reason string) error {
	return nil
}

func (routerPayoutsService) Get(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return &models.Payout{ID: id}, nil
}

func (routerPayoutsService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Payout, error) {
	return nil, nil
}

func (routerPayoutsService) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.Payout, error) {
	return nil, nil
}

type routerWebhookService struct{}

func (routerWebhookService) HandleEvent(ctx context.Context, event *paystack.WebhookEvent) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              stubPinger{},
		Redis:           nil,
		Gateway:         nil,
		AuthService:     routerAuthService{},
		MerchantService: routerMerchantsService{},
		OrderService:    routerOrdersService{},
		ReturnService:   routerReturnsService{},
		PayoutService:   routerPayoutsService{},
		WebhookService:  routerWebhookService{},
		WebhookGuard:    nil,
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole, merchantID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:     uuid.New(),
		MerchantID: merchantID,
		Role:       role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/merchants", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	merchantID := uuid.New()
	asMerchant := httptest.NewRequest(http.MethodGet, "/api/admin/v1/merchants", nil)
	asMerchant.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleMerchant, &merchantID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, asMerchant)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for merchant got %d", resp.Code)
	}

	asAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/merchants", nil)
	asAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin, nil))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, asAdmin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestMerchantGroupRequiresMerchantRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	itemID := uuid.New()
	asAdmin := httptest.NewRequest(http.MethodPatch, "/api/merchant/v1/orders/items/"+itemID.String(), nil)
	asAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, asAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on merchant surface got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestApplicationIntakeIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"business_name":"Gidan Kaya","email":"owner@gidankaya.ng"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/merchants/applications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
}
