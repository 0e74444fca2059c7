package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/indiramart/storefront-backend/api/routes"
	"github.com/indiramart/storefront-backend/internal/banners"
	"github.com/indiramart/storefront-backend/internal/cart"
	"github.com/indiramart/storefront-backend/internal/checkout"
	"github.com/indiramart/storefront-backend/internal/coupons"
	"github.com/indiramart/storefront-backend/internal/orders"
	"github.com/indiramart/storefront-backend/internal/products"
	"github.com/indiramart/storefront-backend/internal/referrals"
	"github.com/indiramart/storefront-backend/internal/users"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/auth/session"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/logger"
	"github.com/indiramart/storefront-backend/pkg/metrics"
	"github.com/indiramart/storefront-backend/pkg/migrate"
	"github.com/indiramart/storefront-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	walletRepo := wallet.NewRepository(gdb)
	couponRepo := coupons.NewRepository(gdb)
	bannerRepo := banners.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	referralRepo := referrals.NewRepository(gdb)

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

	userService, err := users.NewService(users.ServiceParams{
		Repo:       userRepo,
		WalletRepo: walletRepo,
		Wallet:     walletService,
		DB:         dbClient,
		Sessions:   sessionManager,
		JWT:        cfg.JWT,
		Password:   cfg.Password,
		Referral:   cfg.Referral,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo:   productRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:    cartRepo,
		Catalog: productRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(coupons.ServiceParams{
		Repo:   couponRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	bannerService, err := banners.NewService(banners.ServiceParams{
		Repo:   bannerRepo,
		DB:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create banner service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orderRepo,
		Catalog: productRepo,
		Wallet:  walletService,
		DB:      dbClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:    cartRepo,
		Catalog: productRepo,
		Orders:  orderRepo,
		Coupons: couponService,
		Wallet:  walletService,
		DB:      dbClient,
		Config:  cfg.Checkout,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	referralService, err := referrals.NewService(referrals.ServiceParams{
		Repo:   referralRepo,
		Users:  userRepo,
		Wallet: walletRepo,
		Config: cfg.Referral,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create referral service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			httpMetrics,
			userService,
			productService,
			cartService,
			checkoutService,
			walletService,
			couponService,
			bannerService,
			orderService,
			referralService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
