package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/marketplace-storefront/api/routes"
	"github.com/angelmondragon/marketplace-storefront/internal/auth"
	"github.com/angelmondragon/marketplace-storefront/internal/bankaccounts"
	"github.com/angelmondragon/marketplace-storefront/internal/cards"
	"github.com/angelmondragon/marketplace-storefront/internal/cart"
	"github.com/angelmondragon/marketplace-storefront/internal/checkout"
	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/cms"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	"github.com/angelmondragon/marketplace-storefront/internal/otp"
	"github.com/angelmondragon/marketplace-storefront/internal/uploads"
	"github.com/angelmondragon/marketplace-storefront/internal/wishlist"
	"github.com/angelmondragon/marketplace-storefront/pkg/config"
	"github.com/angelmondragon/marketplace-storefront/pkg/env"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/metrics"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	client, err := marketplace.NewClient(
		cfg.Marketplace.BaseURL,
		marketplace.WithHTTPClient(&http.Client{Timeout: cfg.Marketplace.Timeout}),
		marketplace.WithRefreshLeeway(cfg.Marketplace.RefreshLeeway),
		marketplace.WithMetrics(httpMetrics),
	)
	if err != nil {
		return err
	}

	svc, err := buildServices(cfg, logg, redisClient, client, checkoutMetrics)
	if err != nil {
		return err
	}

	addr := ":" + env.FirstNonEmpty(cfg.App.Port, "PORT")
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, httpMetrics, svc),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"marketplace": cfg.Marketplace.BaseURL,
	})
	logg.Info(logCtx, "starting storefront server")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownWait)
		defer cancel()
		logg.Info(logCtx, "shutting down storefront server")
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func buildServices(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, client *marketplace.Client, checkoutMetrics *metrics.CheckoutMetrics) (routes.Services, error) {
	states, err := clientstate.NewManager(redisClient, clientstate.Options{
		PersistTTL:   cfg.Session.PersistTTL,
		EphemeralTTL: cfg.Session.EphemeralTTL,
	})
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(client, logg)
	if err != nil {
		return routes.Services{}, err
	}
	otpService, err := otp.NewService(otp.ServiceParams{
		Gateway: client,
		Window:  cfg.OTP.ResendCooldown,
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	cartService := cart.NewService()
	shells := navguard.NewRegistry()

	flags, err := checkout.NewProcessingFlags(redisClient, cfg.Checkout.ProcessingFlagTTL)
	if err != nil {
		return routes.Services{}, err
	}
	deliveryFee, err := cfg.Checkout.DeliveryFee()
	if err != nil {
		return routes.Services{}, err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Payments: client,
		Cart:     cartService,
		Flags:    flags,
		Shells:   shells,
		Pricer:   checkout.NewPricer(types.NewMoney(deliveryFee)),
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	wishlistService, err := wishlist.NewService(client, logg)
	if err != nil {
		return routes.Services{}, err
	}
	cardsService, err := cards.NewService(client, logg)
	if err != nil {
		return routes.Services{}, err
	}
	bankAccountsService, err := bankaccounts.NewService(client)
	if err != nil {
		return routes.Services{}, err
	}
	cmsService, err := cms.NewService(client)
	if err != nil {
		return routes.Services{}, err
	}
	uploadService, err := uploads.NewService(client, cfg.Upload.MaxBytes())
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		States:       states,
		Auth:         authService,
		OTP:          otpService,
		Cart:         cartService,
		Checkout:     checkoutService,
		Navigation:   shells,
		Wishlist:     wishlistService,
		Cards:        cardsService,
		BankAccounts: bankAccountsService,
		CMS:          cmsService,
		Uploads:      uploadService,
	}, nil
}
