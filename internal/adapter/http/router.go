package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/timebank/internal/adapter/http/handler"
	"github.com/iho/timebank/internal/adapter/http/middleware"
	"github.com/iho/timebank/internal/infrastructure/metrics"
	"github.com/iho/timebank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler       *handler.AccountHandler
	ListingHandler       *handler.ListingHandler
	ParticipationHandler *handler.ParticipationHandler
	TransferHandler      *handler.TransferHandler
	EntryHandler         *handler.EntryHandler
	LedgerHandler        *handler.LedgerHandler
	HealthHandler        *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/transfers", cfg.TransferHandler.ListByAccount)
			r.Get("/{id}/integrity", cfg.LedgerHandler.VerifyIntegrity)
			r.Get("/{id}/spend-check", cfg.LedgerHandler.CheckSpend)
			r.Post("/{id}/adjustments", cfg.LedgerHandler.Adjust)
		})

		// Listings
		r.Route("/listings", func(r chi.Router) {
			r.Post("/", cfg.ListingHandler.Create)
			r.Get("/{id}", cfg.ListingHandler.Get)
			r.Get("/{id}/participations", cfg.ParticipationHandler.ListByListing)
			r.Post("/{id}/participations", cfg.ParticipationHandler.Propose)
		})

		// Participations
		r.Route("/participations", func(r chi.Router) {
			r.Get("/{id}", cfg.ParticipationHandler.Get)
			r.Get("/{id}/settlement", cfg.TransferHandler.GetSettlement)
			r.Post("/{id}/accept", cfg.ParticipationHandler.Accept)
			r.Post("/{id}/decline", cfg.ParticipationHandler.Decline)
			r.Post("/{id}/confirm", cfg.ParticipationHandler.Confirm)
		})

		r.Get("/ledger/reconciliation", cfg.LedgerHandler.Reconcile)
	})

	return r
}
