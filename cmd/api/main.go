package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/instafit/fieldops-backend/api"
	"github.com/instafit/fieldops-backend/api/routes"
	"github.com/instafit/fieldops-backend/internal/address"
	"github.com/instafit/fieldops-backend/internal/assignments"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/auth"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/ingest"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/internal/routing"
	"github.com/instafit/fieldops-backend/internal/users"
	"github.com/instafit/fieldops-backend/internal/workers"
	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/env"
	"github.com/instafit/fieldops-backend/pkg/httpclient"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/maps"
	"github.com/instafit/fieldops-backend/pkg/metrics"
	"github.com/instafit/fieldops-backend/pkg/migrate"
	"github.com/instafit/fieldops-backend/pkg/redis"
	"github.com/instafit/fieldops-backend/pkg/upstream"
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

	var redisClient *redis.Client
	if redis.Configured(cfg.Redis) {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured; fetch throttling disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	callMetrics := metrics.NewExternalCallMetrics(registry)
	httpClient := httpclient.New(context.Background(), cfg.HTTP, logg)

	bookingRepo := bookings.NewRepository(dbClient.DB())
	auditRepo := audit.NewRepository(dbClient.DB())
	workerRepo := workers.NewRepository(dbClient.DB())
	dayRoutes := routing.NewDayRouteRepository(dbClient.DB())

	var geocoder address.Geocoder
	var optimizer routing.Optimizer
	if cfg.Geocoder.Configured() {
		opts := []maps.Option{maps.WithHTTPClient(httpClient), maps.WithMetrics(callMetrics)}
		if cfg.Geocoder.BaseURL != "" {
			opts = append(opts, maps.WithBaseURL(cfg.Geocoder.BaseURL))
		}
		mapsClient, err := maps.NewClient(cfg.Geocoder.APIKey, opts...)
		if err != nil {
			logg.Error(context.Background(), "failed to create maps client", err)
			os.Exit(1)
		}
		geocoder = mapsClient
		optimizer = mapsClient
	} else {
		logg.Warn(context.Background(), "geocoder api key missing; geocoding and routing will fail softly")
	}
	locator := address.NewService(geocoder)

	var source ingest.Source
	if cfg.Upstream.URL != "" {
		upstreamClient, err := upstream.NewClient(cfg.Upstream.URL, cfg.Upstream.APIKey,
			upstream.WithHTTPClient(httpClient), upstream.WithMetrics(callMetrics))
		if err != nil {
			logg.Error(context.Background(), "failed to create upstream client", err)
			os.Exit(1)
		}
		source = upstreamClient
	}

	fetcher, err := ingest.NewFetcher(ingest.FetcherParams{
		Source:   source,
		Bookings: bookingRepo,
		Markers:  ingest.NewMarkerRepository(dbClient.DB()),
		Audit:    auditRepo,
		Tx:       dbClient,
		Logger:   logg,
		Metrics:  metrics.NewIngestMetrics(registry),
	})
	exitOnErr(logg, "failed to create fetcher", err)

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		Repo:  bookingRepo,
		Audit: auditRepo,
		Tx:    dbClient,
	})
	exitOnErr(logg, "failed to create booking service", err)

	auditService, err := audit.NewService(auditRepo)
	exitOnErr(logg, "failed to create audit service", err)

	workerService, err := workers.NewService(workerRepo)
	exitOnErr(logg, "failed to create worker service", err)

	planner, err := routing.NewPlanner(routing.PlannerParams{
		Bookings:  bookingRepo,
		DayRoutes: dayRoutes,
		Audit:     auditRepo,
		Tx:        dbClient,
		Locator:   locator,
		Optimizer: optimizer,
		Logger:    logg,
	})
	exitOnErr(logg, "failed to create route planner", err)

	assignmentService, err := assignments.NewService(assignments.ServiceParams{
		Bookings:          bookingRepo,
		Workers:           workerRepo,
		Audit:             auditRepo,
		Tx:                dbClient,
		Locator:           locator,
		Router:            planner,
		GeocodeRatePerSec: cfg.Assignment.GeocodeRatePerSec,
		Logger:            logg,
	})
	exitOnErr(logg, "failed to create assignment service", err)

	projectionService, err := projections.NewService(bookingRepo, dayRoutes)
	exitOnErr(logg, "failed to create projection service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Accounts: users.NewRepository(dbClient.DB()),
		Workers:  workerRepo,
		Tx:       dbClient,
		JWT:      cfg.JWT,
		Password: cfg.Password,
	})
	exitOnErr(logg, "failed to create auth service", err)

	if created, err := authService.EnsureOperator(context.Background(), cfg.Bootstrap); err != nil {
		exitOnErr(logg, "failed to bootstrap operator account", err)
	} else if created {
		logg.Info(logg.WithFields(context.Background(), map[string]any{
			"phone": cfg.Bootstrap.OperatorPhone,
		}), "bootstrap operator account created")
	}

	addr := ":" + env.Port(cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		authService,
		fetcher,
		bookingService,
		auditService,
		workerService,
		assignmentService,
		planner,
		projectionService,
	)
	if err := api.Serve(ctx, addr, handler, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
