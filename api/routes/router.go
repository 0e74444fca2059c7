package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/indiramart/storefront-backend/api/controllers"
	"github.com/indiramart/storefront-backend/api/middleware"
	"github.com/indiramart/storefront-backend/internal/banners"
	"github.com/indiramart/storefront-backend/internal/cart"
	checkoutsvc "github.com/indiramart/storefront-backend/internal/checkout"
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
	"github.com/indiramart/storefront-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	httpMetrics *metrics.HTTPMetrics,
	userService users.Service,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	walletService wallet.Service,
	couponService coupons.Service,
	bannerService banners.Service,
	orderService orders.Service,
	referralService referrals.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, redisClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public storefront surface.
		r.Get("/products", controllers.ListProducts(productService, logg))
		r.Get("/products/{slug}", controllers.GetProduct(productService, logg))
		r.Get("/banners", controllers.ListBanners(bannerService, logg))
		r.Post("/coupons/validate", controllers.ValidateCoupon(couponService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(userService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(userService, logg))
			r.Post("/refresh", controllers.Refresh(userService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
				r.Post("/logout", controllers.Logout(userService, logg))
				r.Get("/me", controllers.Me(userService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(cartService, logg))
				r.Delete("/", controllers.ClearCart(cartService, logg))
				r.Post("/items", controllers.AddCartItem(cartService, logg))
				r.Patch("/items/{itemID}", controllers.UpdateCartItem(cartService, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(cartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", controllers.WalletBalance(walletService, logg))
				r.Post("/calculate-discount", controllers.CalculateCoinDiscount(walletService, logg))
				r.Post("/redeem-coins", controllers.RedeemCoins(walletService, logg))
				r.Get("/transactions", controllers.WalletTransactions(walletService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(orderService, logg))
				r.Get("/{orderID}", controllers.GetMyOrder(orderService, logg))
				r.Post("/{orderID}/cancel", controllers.CancelMyOrder(orderService, logg))
			})

			r.Route("/referrals", func(r chi.Router) {
				r.Get("/me", controllers.MyReferralCode(referralService, logg))
				r.Get("/leaderboard", controllers.ReferralLeaderboard(referralService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
			r.Use(middleware.RequireRole("admin", logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(productService, logg))
				r.Post("/", controllers.AdminCreateProduct(productService, logg))
				r.Get("/{productID}", controllers.AdminGetProduct(productService, logg))
				r.Patch("/{productID}", controllers.AdminUpdateProduct(productService, logg))
				r.Delete("/{productID}", controllers.AdminDeleteProduct(productService, logg))
				r.Post("/{productID}/variants", controllers.AdminAddVariant(productService, logg))
				r.Delete("/{productID}/variants/{variantID}", controllers.AdminRemoveVariant(productService, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(couponService, logg))
				r.Post("/", controllers.AdminCreateCoupon(couponService, logg))
				r.Get("/{couponID}", controllers.AdminGetCoupon(couponService, logg))
				r.Patch("/{couponID}", controllers.AdminUpdateCoupon(couponService, logg))
				r.Delete("/{couponID}", controllers.AdminDeleteCoupon(couponService, logg))
			})

			r.Route("/banners", func(r chi.Router) {
				r.Get("/", controllers.AdminListBanners(bannerService, logg))
				r.Post("/", controllers.AdminCreateBanner(bannerService, logg))
				r.Put("/reorder", controllers.AdminReorderBanners(bannerService, logg))
				r.Get("/{bannerID}", controllers.AdminGetBanner(bannerService, logg))
				r.Patch("/{bannerID}", controllers.AdminUpdateBanner(bannerService, logg))
				r.Delete("/{bannerID}", controllers.AdminDeleteBanner(bannerService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(orderService, logg))
				r.Get("/{orderID}", controllers.AdminGetOrder(orderService, logg))
				r.Patch("/{orderID}/status", controllers.AdminUpdateOrderStatus(orderService, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(userService, logg))
				r.Patch("/{userID}/active", controllers.AdminSetUserActive(userService, logg))
			})
		})
	})

	return r
}
