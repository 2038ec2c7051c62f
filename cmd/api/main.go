package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/adesina-labs/kasuwa-backend/api/routes"
	"github.com/adesina-labs/kasuwa-backend/internal/audit"
	"github.com/adesina-labs/kasuwa-backend/internal/auth"
	"github.com/adesina-labs/kasuwa-backend/internal/inventory"
	"github.com/adesina-labs/kasuwa-backend/internal/merchants"
	"github.com/adesina-labs/kasuwa-backend/internal/notifications"
	"github.com/adesina-labs/kasuwa-backend/internal/orders"
	"github.com/adesina-labs/kasuwa-backend/internal/payments"
	"github.com/adesina-labs/kasuwa-backend/internal/payouts"
	"github.com/adesina-labs/kasuwa-backend/internal/returns"
	"github.com/adesina-labs/kasuwa-backend/internal/webhooks"
	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	"github.com/adesina-labs/kasuwa-backend/pkg/db"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/migrate"
	"github.com/adesina-labs/kasuwa-backend/pkg/outbox"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
	"github.com/adesina-labs/kasuwa-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := paystack.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	inventoryService := inventory.NewService(dbClient.DB())
	auditor := audit.NewRecorder(dbClient.DB(), logg)

	authService, err := auth.NewService(auth.NewRepository(dbClient.DB()), cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	merchantsRepo := merchants.NewRepository(dbClient.DB())
	merchantService, err := merchants.NewService(merchantsRepo, dbClient, gateway, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create merchant service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsStore := payments.NewStore(payments.NewRepository(dbClient.DB()))
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Tx:       dbClient,
		Gateway:  gateway,
		Payments: paymentsStore,
		Stock:    inventoryService,
		Outbox:   outboxService,
		Auditor:  auditor,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	returnService, err := returns.NewService(returns.ServiceParams{
		Repo:     returns.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Gateway:  gateway,
		Orders:   orders.NewStore(ordersRepo),
		Payments: paymentsStore,
		Stock:    inventoryService,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create return service", err)
		os.Exit(1)
	}

	notifier := notifications.NewPayoutNotifier(notifications.NewHTTPMailer(cfg.Mailer, logg))
	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:      payouts.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Gateway:   gateway,
		Merchants: merchants.NewStore(merchantsRepo),
		Outbox:    outboxService,
		Notifier:  notifier,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	webhookService, err := webhooks.NewService(payoutService, paymentsStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "gateway-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Gateway:         gateway,
			AuthService:     authService,
			MerchantService: merchantService,
			OrderService:    orderService,
			ReturnService:   returnService,
			PayoutService:   payoutService,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
