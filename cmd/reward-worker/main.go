package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/indiramart/storefront-backend/internal/cron"
	"github.com/indiramart/storefront-backend/internal/orders"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/logger"
	"github.com/indiramart/storefront-backend/pkg/metrics"
	"github.com/indiramart/storefront-backend/pkg/migrate"
	"github.com/indiramart/storefront-backend/pkg/redis"
)

const lockKeyFormat = "im:reward-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reward-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reward-worker",
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

	gdb := dbClient.DB()
	orderRepo := orders.NewRepository(gdb)
	walletRepo := wallet.NewRepository(gdb)

	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repo:   walletRepo,
		DB:     dbClient,
		Config: cfg.Wallet,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Worker.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	rewardJob, err := cron.NewRewardCreditJob(cron.RewardCreditJobParams{
		Logger:    logg,
		DB:        dbClient,
		Orders:    orderRepo,
		Wallet:    walletService,
		Metrics:   jobMetrics,
		BatchSize: cfg.Worker.RewardBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reward credit job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(rewardJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Worker.RewardPollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(ctx, "starting reward worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reward worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reward worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
