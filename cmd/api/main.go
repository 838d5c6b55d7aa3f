package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citycare/clinic-opd/internal/api/router"
	"github.com/citycare/clinic-opd/internal/appointments"
	"github.com/citycare/clinic-opd/internal/billing"
	appconfig "github.com/citycare/clinic-opd/internal/config"
	"github.com/citycare/clinic-opd/internal/dashboard"
	"github.com/citycare/clinic-opd/internal/observability/metrics"
	"github.com/citycare/clinic-opd/internal/patients"
	"github.com/citycare/clinic-opd/internal/prescriptions"
	"github.com/citycare/clinic-opd/internal/reports"
	"github.com/citycare/clinic-opd/internal/store"
	"github.com/citycare/clinic-opd/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-opd API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStoreMetrics(registry)
	billingMetrics := metrics.NewBillingMetrics(registry)

	// The store starts even when the database is down; the first request
	// triggers a reconnect.
	db := store.Open(cfg.DSN(), logger.WithComponent("store"), storeMetrics)
	defer db.Close()

	patientsRepo := patients.NewRepository(db)
	appointmentsRepo := appointments.NewRepository(db)
	prescriptionsRepo := prescriptions.NewRepository(db)
	billingRepo := billing.NewRepository(db)

	billingEngine := billing.NewEngine(billingRepo, logger.WithComponent("billing"), billingMetrics)
	reportBuilder := reports.NewBuilder(appointmentsRepo, prescriptionsRepo, billingRepo)
	dashboardService := dashboard.NewService(appointmentsRepo, billingRepo, prescriptionsRepo, patientsRepo)

	routerCfg := &router.Config{
		Logger:               logger,
		Store:                db,
		PatientsHandler:      patients.NewHandler(patientsRepo, logger, cfg.SearchLimit),
		AppointmentsHandler:  appointments.NewHandler(appointmentsRepo, logger, cfg.SearchLimit, cfg.BillableLimit),
		PrescriptionsHandler: prescriptions.NewHandler(prescriptionsRepo, logger),
		BillingHandler:       billing.NewHandler(billingEngine, logger),
		ReportsHandler:       reports.NewHandler(reportBuilder, logger),
		DashboardHandler:     dashboard.NewHandler(dashboardService, logger),
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
