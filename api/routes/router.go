package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adesina-labs/kasuwa-backend/api/controllers"
	"github.com/adesina-labs/kasuwa-backend/api/middleware"
	"github.com/adesina-labs/kasuwa-backend/internal/auth"
	"github.com/adesina-labs/kasuwa-backend/internal/merchants"
	"github.com/adesina-labs/kasuwa-backend/internal/orders"
	"github.com/adesina-labs/kasuwa-backend/internal/payouts"
	"github.com/adesina-labs/kasuwa-backend/internal/returns"
	"github.com/adesina-labs/kasuwa-backend/internal/webhooks"
	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	"github.com/adesina-labs/kasuwa-backend/pkg/db"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
	"github.com/adesina-labs/kasuwa-backend/pkg/redis"
)

type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	Gateway         *paystack.Client
	AuthService     auth.Service
	MerchantService merchants.Service
	OrderService    orders.Service
	ReturnService   returns.Service
	PayoutService   payouts.Service
	WebhookService  webhooks.Service
	WebhookGuard    *webhooks.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/gateway", controllers.GatewayWebhook(deps.WebhookService, deps.Gateway, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	// Public application intake; everything else behind the token.
	r.Post("/api/v1/merchants/applications", controllers.ApplicationSubmit(deps.MerchantService, logg))

	r.Route("/api/v1/returns", func(r chi.Router) {
		r.Post("/", controllers.ReturnCreate(deps.ReturnService, logg))
	})

	r.Route("/api/merchant/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.ActorRoleMerchant, logg))

		r.Patch("/orders/items/{itemId}", controllers.OrderItemFulfillment(deps.OrderService, logg))
		r.Post("/returns/{returnId}/decision", controllers.ReturnMerchantDecision(deps.ReturnService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", controllers.ApplicationList(deps.MerchantService, logg))
			r.Post("/{applicationId}/review", controllers.ApplicationReview(deps.MerchantService, logg))
		})

		r.Route("/merchants", func(r chi.Router) {
			r.Get("/", controllers.MerchantList(deps.MerchantService, logg))
			r.Get("/{merchantId}", controllers.MerchantGet(deps.MerchantService, logg))
			r.Patch("/{merchantId}/status", controllers.MerchantSetStatus(deps.MerchantService, logg))
			r.Post("/{merchantId}/recipient", controllers.MerchantEnsureRecipient(deps.MerchantService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(deps.OrderService, logg))
			r.Patch("/items/{itemId}", controllers.OrderItemFulfillment(deps.OrderService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.OrderService, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.ReturnList(deps.ReturnService, logg))
			r.Get("/{returnId}", controllers.ReturnGet(deps.ReturnService, logg))
			r.Post("/{returnId}/escalate", controllers.ReturnAdminEscalate(deps.ReturnService, logg))
			r.Post("/{returnId}/approve", controllers.ReturnAdminApprove(deps.ReturnService, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.PayoutList(deps.PayoutService, logg))
			r.Get("/{payoutId}", controllers.PayoutGet(deps.PayoutService, logg))
			r.Post("/aggregate", controllers.PayoutAggregate(deps.PayoutService, logg))
			r.Post("/{payoutId}/process", controllers.PayoutProcess(deps.PayoutService, logg))
		})
	})

	return r
}
