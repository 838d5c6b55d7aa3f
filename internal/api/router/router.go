package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/citycare/clinic-opd/internal/appointments"
	"github.com/citycare/clinic-opd/internal/billing"
	"github.com/citycare/clinic-opd/internal/dashboard"
	httpmiddleware "github.com/citycare/clinic-opd/internal/http/middleware"
	"github.com/citycare/clinic-opd/internal/patients"
	"github.com/citycare/clinic-opd/internal/prescriptions"
	"github.com/citycare/clinic-opd/internal/reports"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	Store                Pinger
	PatientsHandler      *patients.Handler
	AppointmentsHandler  *appointments.Handler
	PrescriptionsHandler *prescriptions.Handler
	BillingHandler       *billing.Handler
	ReportsHandler       *reports.Handler
	DashboardHandler     *dashboard.Handler
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck(cfg.Store))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", cfg.PatientsHandler.Register)
		r.Get("/", cfg.PatientsHandler.List)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", cfg.AppointmentsHandler.Create)
		r.Get("/", cfg.AppointmentsHandler.List)
		r.Get("/pending-today", cfg.AppointmentsHandler.PendingToday)
		r.Get("/billable", cfg.AppointmentsHandler.Billable)
		r.Post("/{appointmentID}/complete", cfg.AppointmentsHandler.Complete)
		r.Get("/{appointmentID}/prescription", cfg.PrescriptionsHandler.Latest)
	})

	r.Post("/prescriptions", cfg.PrescriptionsHandler.Save)

	r.Route("/bills", func(r chi.Router) {
		r.Post("/", cfg.BillingHandler.Create)
		r.Get("/{billID}", cfg.BillingHandler.Get)
	})

	if cfg.ReportsHandler != nil {
		r.Route("/reports", func(r chi.Router) {
			r.Get("/prescriptions/{appointmentID}", cfg.ReportsHandler.Prescription)
			r.Get("/invoices/{billID}", cfg.ReportsHandler.Invoice)
		})
	}

	if cfg.DashboardHandler != nil {
		r.Get("/dashboard", cfg.DashboardHandler.Summary)
	}

	return r
}

// healthCheck reports liveness plus database reachability. A down
// database degrades the payload but still answers 200 so the desk app
// can show a reconnect banner instead of dying.
func healthCheck(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "ok"}
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				status["database"] = "unreachable"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
