// Command entitlementd serves the entitlement and invoice HTTP APIs.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/invoicekit/pkg/config"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement/httpapi"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement/prommetrics"
	"github.com/dmitrymomot/invoicekit/pkg/httpserver"
	"github.com/dmitrymomot/invoicekit/pkg/logger"
	"github.com/dmitrymomot/invoicekit/pkg/requestid"
	"github.com/dmitrymomot/invoicekit/svc/invoice"
)

const serviceName = "entitlementd"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("entitlementd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := prommetrics.New(registry)

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	ent, err := entitlement.NewService(
		withCache(b.store, cfg.Entitlement, metrics),
		append(cfg.Entitlement.Options(),
			entitlement.WithLogger(log),
			entitlement.WithObserver(metrics),
		)...,
	)
	if err != nil {
		return err
	}

	invOpts := []invoice.Option{invoice.WithLogger(log)}
	if b.transactor != nil {
		invOpts = append(invOpts, invoice.WithTransactor(b.transactor))
	}
	invoices := invoice.NewService(b.invoices, ent, invOpts...)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.RealIP, middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second, b.checks))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/users/{userID}/invoices", invoice.Router(invoices, log))
		r.Mount("/", httpapi.Router(ent, log))
	})

	log.InfoContext(ctx, "starting entitlementd",
		slog.String("store", cfg.Entitlement.Store),
		slog.Int("cache_size", cfg.Entitlement.CacheSize),
	)

	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
}
