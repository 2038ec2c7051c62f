package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adesina-labs/kasuwa-backend/internal/merchants"
	"github.com/adesina-labs/kasuwa-backend/internal/notifications"
	"github.com/adesina-labs/kasuwa-backend/internal/payouts"
	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	"github.com/adesina-labs/kasuwa-backend/pkg/db"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/metrics"
	"github.com/adesina-labs/kasuwa-backend/pkg/migrate"
	"github.com/adesina-labs/kasuwa-backend/pkg/outbox"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
	"github.com/adesina-labs/kasuwa-backend/pkg/redis"
)

const runLockName = "payout-run"

// The payout worker is a one-shot batch job: acquire the run lock,
// aggregate eligible splits into payouts, push each payout through the
// gateway, then exit. Scheduling is left to the platform (cron, Cloud
// Scheduler) so overlapping runs are fenced only by the redis lock.
func main() {
	logg := logger.New(logger.Options{ServiceName: "payout-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "payout-worker",
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

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:      payouts.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Gateway:   gateway,
		Merchants: merchants.NewStore(merchants.NewRepository(dbClient.DB())),
		Outbox:    outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Notifier:  notifications.NewPayoutNotifier(notifications.NewHTTPMailer(cfg.Mailer, logg)),
		Metrics:   metrics.NewPayoutMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if err := run(ctx, cfg, logg, redisClient, payoutService); err != nil {
		logg.Error(ctx, "payout run failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, locker *redis.Client, svc payouts.Service) error {
	acquired, err := locker.SetNX(ctx, locker.LockKey(runLockName), "1", cfg.Payouts.RunLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		logg.Warn(ctx, "payout run lock already held, skipping this run")
		return nil
	}
	defer func() {
		if err := locker.Del(context.Background(), locker.LockKey(runLockName)); err != nil {
			logg.Error(ctx, "failed to release payout run lock", err)
		}
	}()

	started := time.Now()
	logg.Info(ctx, "starting payout run")

	results, err := svc.AggregateEligible(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "payouts_created", len(results)), "aggregation complete")

	var failed int
	for _, agg := range results {
		runCtx := logg.WithPayoutID(ctx, agg.PayoutID.String())
		outcome, err := svc.Process(runCtx, agg.PayoutID)
		if err != nil {
			failed++
			logg.Error(runCtx, "payout processing failed", err)
			continue
		}
		logg.Info(logg.WithField(runCtx, "outcome", string(outcome.Outcome)), "payout processed")
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"processed": len(results) - failed,
		"failed":    failed,
		"duration":  time.Since(started).String(),
	})
	logg.Info(ctx, "payout run complete")
	return nil
}
