// Command outbox-publisher relays committed outbox rows to Pub/Sub.
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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/db"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/metrics"
	"github.com/mcbeauty/storefront-backend/pkg/migrate"
	"github.com/mcbeauty/storefront-backend/pkg/outbox"
	"github.com/mcbeauty/storefront-backend/pkg/outbox/registry"
	"github.com/mcbeauty/storefront-backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).Error(context.Background(), "load config", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Static:      map[string]any{"env": cfg.App.Env},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) == 3 && os.Args[1] == "requeue" {
		if err := requeue(ctx, cfg, logg, os.Args[2]); err != nil {
			logg.Error(ctx, "requeue failed", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "outbox publisher exited", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher stopped")
}

// requeue gives a parked event a fresh set of publish attempts:
//
//	outbox-publisher requeue <outbox-id>
func requeue(ctx context.Context, cfg *config.Config, logg *logger.Logger, rawID string) (err error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid outbox id %q: %w", rawID, err)
	}
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := outbox.NewRepository(dbClient.DB()).Requeue(ctx, id, positiveOr(cfg.Outbox.MaxAttempts, defaultMaxAttempts)); err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "outbox_id", id.String()), "outbox event requeued")
	return nil
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return err
	}
	promRegistry := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		PubSub:     pubsubClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxMetrics(promRegistry),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(gctx, "outbox publisher started")
		if err := service.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if addr := cfg.Outbox.MetricsAddr; addr != "" {
		server := &http.Server{
			Addr:              addr,
			Handler:           opsHandler(promRegistry, dbClient),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// opsHandler serves /metrics for scraping and /healthz for the orchestrator.
func opsHandler(gatherer prometheus.Gatherer, database db.Pinger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}
