package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/instafit/fieldops-backend/api"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/cron"
	"github.com/instafit/fieldops-backend/internal/ingest"
	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/httpclient"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/metrics"
	"github.com/instafit/fieldops-backend/pkg/migrate"
	"github.com/instafit/fieldops-backend/pkg/redis"
	"github.com/instafit/fieldops-backend/pkg/upstream"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpClient := httpclient.New(context.Background(), cfg.HTTP, logg)
	upstreamClient, err := upstream.NewClient(cfg.Upstream.URL, cfg.Upstream.APIKey,
		upstream.WithHTTPClient(httpClient),
		upstream.WithMetrics(metrics.NewExternalCallMetrics(registry)),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create upstream client", err)
		os.Exit(1)
	}

	fetcher, err := ingest.NewFetcher(ingest.FetcherParams{
		Source:   upstreamClient,
		Bookings: bookings.NewRepository(dbClient.DB()),
		Markers:  ingest.NewMarkerRepository(dbClient.DB()),
		Audit:    audit.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Logger:   logg,
		Metrics:  metrics.NewIngestMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fetcher", err)
		os.Exit(1)
	}

	fetchJob, err := cron.NewUpstreamFetchJob(cron.UpstreamFetchJobParams{
		Fetcher: fetcher,
		Logger:  logg,
		Actor:   cfg.Upstream.Actor,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fetch job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, cron.LockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(fetchJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(registry),
		Interval: cfg.Cron.FetchInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.FetchInterval.String(),
	})
	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "cron cycle complete")
		return
	}

	if cfg.Cron.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.Cron.MetricsAddr, registry, logg)
	}
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logg *logger.Logger) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx = logg.WithField(ctx, "metrics_addr", addr)
	logg.Info(ctx, "serving cron metrics")
	if err := api.Serve(ctx, addr, r, logg); err != nil {
		logg.Error(ctx, "metrics listener stopped", err)
	}
}
