package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/mcbeauty/storefront-backend/api/routes"
	"github.com/mcbeauty/storefront-backend/internal/analytics"
	"github.com/mcbeauty/storefront-backend/internal/cart"
	"github.com/mcbeauty/storefront-backend/internal/checkout"
	"github.com/mcbeauty/storefront-backend/internal/orders"
	"github.com/mcbeauty/storefront-backend/internal/paymentmethods"
	"github.com/mcbeauty/storefront-backend/internal/products"
	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/db"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/metrics"
	"github.com/mcbeauty/storefront-backend/pkg/migrate"
	"github.com/mcbeauty/storefront-backend/pkg/outbox"
	"github.com/mcbeauty/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and page-view throttling disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	persister, err := newCartPersister(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}

	productService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("create product service: %w", err)
	}
	paymentMethodService, err := paymentmethods.NewService(paymentmethods.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("create payment method service: %w", err)
	}
	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		return fmt.Errorf("create order service: %w", err)
	}
	tracker, err := analytics.NewTracker(analytics.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return fmt.Errorf("create page view tracker: %w", err)
	}

	carts, err := cart.NewRegistry(cart.RegistryParams{
		StorageKey: cfg.Cart.StorageKey,
		Persister:  persister,
		IdleTTL:    cfg.Cart.IdleTTL,
		Logger:     logg,
		Metrics:    metrics.NewCartMetrics(registry),
	})
	if err != nil {
		return fmt.Errorf("create cart registry: %w", err)
	}
	go carts.RunSweeper(ctx, cfg.Cart.SweepInterval)
	cartService, err := cart.NewService(carts, productService, tracker, logg)
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Carts:          carts,
		Orders:         orderRepo,
		PaymentMethods: paymentMethodService,
		Outbox:         outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Store:          cfg.Store,
		Logger:         logg,
	})
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		DB:             dbClient,
		Redis:          redisClient,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		Gatherer:       registry,
		Cart:           cartService,
		Products:       productService,
		PaymentMethods: paymentMethodService,
		Checkout:       checkoutService,
		Orders:         orderService,
		PageViews:      tracker,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"cart_backend": cfg.Cart.BackendName(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func newCartPersister(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (cart.Persister, error) {
	switch cfg.Cart.BackendName() {
	case config.CartBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("%s=%s requires redis to be configured", config.EnvCartBackend, config.CartBackendRedis)
		}
		return cart.NewRedisPersister(redisClient, cfg.Cart.TTL)
	case config.CartBackendDB:
		return cart.NewDBPersister(dbClient.DB())
	default:
		return cart.NewMemoryPersister(), nil
	}
}
