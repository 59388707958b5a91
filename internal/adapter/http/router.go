package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ucubank/bankaccounts/internal/adapter/http/handler"
	"github.com/ucubank/bankaccounts/internal/adapter/http/middleware"
	"github.com/ucubank/bankaccounts/internal/infrastructure/metrics"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer

	UserHandler     *handler.UserHandler
	AccountHandler  *handler.AccountHandler
	TransferHandler *handler.TransferHandler
	ReceiptHandler  *handler.ReceiptHandler
	HealthHandler   *handler.HealthHandler

	// Authenticator puts the current user into the request context.
	// Defaults to middleware.TrustedHeaderAuth.
	Authenticator func(http.Handler) http.Handler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := cfg.Authenticator
	if authenticate == nil {
		authenticate = middleware.TrustedHeaderAuth
	}
	logging := middleware.NewLoggingMiddleware(cfg.Logger)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Users are mirrored from the identity provider before they hold a token.
		r.Group(func(r chi.Router) {
			r.Use(logging.Wrap)
			r.Post("/users", cfg.UserHandler.Create)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(logging.Wrap)
			if cfg.IdempotencyStore != nil {
				idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Metrics)
				r.Use(idempotency.Wrap)
			}

			// Users. Registered flat so they share the /users node with the public POST.
			r.Get("/users", cfg.UserHandler.List)
			r.Get("/users/me", cfg.UserHandler.Me)
			r.Get("/users/{id}", cfg.UserHandler.Get)
			r.Delete("/users/{id}", cfg.UserHandler.Delete)

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/", cfg.AccountHandler.List)
				r.Get("/{id}", cfg.AccountHandler.Get)
				r.Patch("/{id}", cfg.AccountHandler.Update)
				r.Delete("/{id}", cfg.AccountHandler.Delete)
				r.Post("/{id}/deposit", cfg.AccountHandler.Deposit)
				r.Post("/{id}/withdraw", cfg.AccountHandler.Withdraw)
			})

			// Transfers
			r.Route("/transfers", func(r chi.Router) {
				r.Post("/internal", cfg.TransferHandler.Internal)
				r.Post("/external", cfg.TransferHandler.External)
			})

			// Receipts
			r.Route("/receipts", func(r chi.Router) {
				r.Get("/internal", cfg.ReceiptHandler.ListInternal)
				r.Get("/external", cfg.ReceiptHandler.ListExternal)
			})
		})
	})

	return r
}
