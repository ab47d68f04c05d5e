package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-storefront/api/controllers"
	"github.com/angelmondragon/marketplace-storefront/api/middleware"
	"github.com/angelmondragon/marketplace-storefront/internal/auth"
	"github.com/angelmondragon/marketplace-storefront/internal/bankaccounts"
	"github.com/angelmondragon/marketplace-storefront/internal/cards"
	"github.com/angelmondragon/marketplace-storefront/internal/cart"
	"github.com/angelmondragon/marketplace-storefront/internal/checkout"
	"github.com/angelmondragon/marketplace-storefront/internal/cms"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	"github.com/angelmondragon/marketplace-storefront/internal/otp"
	"github.com/angelmondragon/marketplace-storefront/internal/uploads"
	"github.com/angelmondragon/marketplace-storefront/internal/wishlist"
	"github.com/angelmondragon/marketplace-storefront/pkg/config"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/metrics"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
)

// Store is the redis surface the router middleware needs.
type Store interface {
	controllers.Pinger
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services are the storefront features mounted under /storefront/v1. A nil
// service answers 500 on its routes instead of panicking.
type Services struct {
	States       middleware.StateOpener
	Auth         auth.Service
	OTP          otp.Service
	Cart         cart.Service
	Checkout     checkout.Service
	Navigation   *navguard.Registry
	Wishlist     wishlist.Service
	Cards        cards.Service
	BankAccounts bankaccounts.Service
	CMS          cms.Service
	Uploads      uploads.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store Store,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy("login", cfg.RateLimit.LoginWindow, middleware.AuthRateLimits{
		Session: cfg.RateLimit.LoginSessionLimit,
		IP:      cfg.RateLimit.LoginIPLimit,
		Email:   cfg.RateLimit.LoginEmailLimit,
	})
	otpPolicy := middleware.NewAuthRateLimitPolicy("otp", cfg.RateLimit.OTPWindow, middleware.AuthRateLimits{
		Session: cfg.RateLimit.OTPSessionLimit,
		IP:      cfg.RateLimit.OTPIPLimit,
		Email:   cfg.RateLimit.OTPEmailLimit,
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/storefront/v1", func(r chi.Router) {
		r.Use(middleware.Session(svc.States, cfg.Session, logg))
		r.Use(middleware.Idempotency(store, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", controllers.AuthSignup(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.Post("/forgot-password", controllers.AuthForgotPassword(svc.Auth, logg))
			r.Post("/verify-reset-token", controllers.AuthVerifyResetToken(svc.Auth, logg))
			r.Post("/reset-password", controllers.AuthResetPassword(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.Get("/me", controllers.AuthMe(svc.Auth, logg))
			r.Post("/complete-google-signup", controllers.AuthCompleteGoogleSignup(svc.Auth, logg))
			r.With(middleware.RequireAuth(logg)).Post("/change-password", controllers.AuthChangePassword(svc.Auth, logg))
		})

		r.Route("/otp", func(r chi.Router) {
			limited := r.With(middleware.AuthRateLimit(otpPolicy, store, logg))
			limited.Post("/create", controllers.OTPCreate(svc.OTP, logg))
			limited.Post("/resend", controllers.OTPResend(svc.OTP, logg))
			r.Post("/verify", controllers.OTPVerify(svc.OTP, logg))
			r.Get("/cooldown", controllers.OTPCooldown(svc.OTP, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", controllers.CheckoutQuote(svc.Checkout, logg))
			r.With(middleware.RequireAuth(logg)).Post("/place-order", controllers.CheckoutPlaceOrder(svc.Checkout, logg))
		})

		r.Post("/navigation", controllers.Navigation(navigationDispatcher(svc.Navigation), logg))

		r.Get("/wishlist", controllers.WishlistFetch(svc.Wishlist, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))

			r.Post("/wishlist/{productId}/toggle", controllers.WishlistToggle(svc.Wishlist, logg))

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", controllers.CardsList(svc.Cards, logg))
				r.Post("/", controllers.CardsAdd(svc.Cards, logg))
				r.Delete("/{cardId}", controllers.CardsDelete(svc.Cards, logg))
				r.Post("/{cardId}/default", controllers.CardsSetDefault(svc.Cards, logg))
			})

			r.Route("/bank-accounts", func(r chi.Router) {
				r.Get("/", controllers.BankAccountsList(svc.BankAccounts, logg))
				r.Post("/", controllers.BankAccountsCreate(svc.BankAccounts, logg))
				r.Put("/{accountId}", controllers.BankAccountsUpdate(svc.BankAccounts, logg))
				r.Delete("/{accountId}", controllers.BankAccountsDelete(svc.BankAccounts, logg))
			})

			r.Route("/cms/{type}", func(r chi.Router) {
				r.Get("/", controllers.CMSList(svc.CMS, logg))
				r.Post("/", controllers.CMSCreate(svc.CMS, logg))
				r.Put("/{contentId}", controllers.CMSUpdate(svc.CMS, logg))
				r.Delete("/{contentId}", controllers.CMSDelete(svc.CMS, logg))
			})

			r.Post("/uploads", controllers.Upload(svc.Uploads, cfg.Upload.MaxBytes(), logg))
		})
	})

	return r
}

// navigationDispatcher keeps a nil registry a nil interface so the
// controller reports it as unavailable.
func navigationDispatcher(registry *navguard.Registry) controllers.NavigationDispatcher {
	if registry == nil {
		return nil
	}
	return registry
}
