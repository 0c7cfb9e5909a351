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
	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-pos/api/controllers"
	"github.com/angelmondragon/packfinderz-pos/api/routes"
	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	"github.com/angelmondragon/packfinderz-pos/internal/sales"
	"github.com/angelmondragon/packfinderz-pos/internal/terminals"
	"github.com/angelmondragon/packfinderz-pos/pkg/auth"
	"github.com/angelmondragon/packfinderz-pos/pkg/config"
	"github.com/angelmondragon/packfinderz-pos/pkg/db"
	"github.com/angelmondragon/packfinderz-pos/pkg/instance"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
	"github.com/angelmondragon/packfinderz-pos/pkg/metrics"
	"github.com/angelmondragon/packfinderz-pos/pkg/migrate"
	"github.com/angelmondragon/packfinderz-pos/pkg/redis"
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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{"db": dbClient}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; catalog cache and idempotency replay disabled")
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, catalog.WithCredentials(auth.ContextSource{}))
	if err != nil {
		logg.Error(ctx, "failed to create catalog client", err)
		os.Exit(1)
	}
	var loader *catalog.Loader
	if redisClient != nil {
		cached := catalog.NewCachedLookup(catalogClient, redisClient, cfg.Catalog.CacheTTL, logg)
		loader = catalog.NewLoader(cached, cached)
	} else {
		loader = catalog.NewLoader(catalogClient, nil)
	}

	salesClient, err := sales.NewClient(cfg.Sales, sales.WithLogger(logg))
	if err != nil {
		logg.Error(ctx, "failed to create sales client", err)
		os.Exit(1)
	}

	journal := checkout.NewAttemptRepository(dbClient.DB())
	registry := terminals.NewRegistry(loader, terminals.Options{
		IdleTTL: cfg.Terminals.IdleTTL,
		Metrics: metrics.NewTerminalMetrics(promReg),
		Logger:  logg,
		Checkout: checkout.Deps{
			Submitter:   salesClient,
			Credentials: auth.ContextSource{},
			Journal:     journal,
			Metrics:     metrics.NewCheckoutMetrics(promReg),
			Logger:      logg,
		},
	})
	go registry.Run(ctx, cfg.Terminals.SweepInterval)

	deps := routes.Deps{
		Registry:  registry,
		Journal:   journal,
		Readiness: readiness,
		Gatherer:  promReg,
	}
	if redisClient != nil {
		deps.Idempotency = redisClient
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, deps),
	}

	serveCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(serveCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serveCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(serveCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	errs := server.Shutdown(shutdownCtx)
	if redisClient != nil {
		errs = multierr.Append(errs, redisClient.Close())
	}
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(shutdownCtx, "shutdown finished with errors", errs)
		os.Exit(1)
	}
	logg.Info(shutdownCtx, "api server stopped")
}
