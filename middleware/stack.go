// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/persistence"
	"github.com/go-chi/chi/v5"
)

// StackConfig selects the middleware applied to every route.
type StackConfig struct {
	// CORS
	EnableCORS           bool
	AllowedOrigins       []string
	CORSAllowCredentials bool

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// Rate limiting
	EnableRateLimit bool
	RateLimit       RateLimitConfig

	// Authenticate resolves the caller; nil skips authentication.
	Authenticate func(*http.Request) any

	// Database enables the session per request and autocommit; nil skips both.
	Database *persistence.Database

	// Events enables the request event queue; nil skips it.
	Events *EventBusMiddleware
}

// NewRouter returns a chi router with ApplyStack already applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack installs the middleware in a fixed order, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. CORS (preflight answered before any work)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins, cfg.CORSAllowCredentials))
	}
	// 4. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 5. Tracing
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	// 6. Logging (captures full latency)
	if cfg.EnableLogging {
		r.Use(log.Middleware())
	}
	// 7. Rate limit
	if cfg.EnableRateLimit {
		r.Use(RateLimit(cfg.RateLimit))
	}
	// 8. Authentication
	if cfg.Authenticate != nil {
		r.Use(Authentication(cfg.Authenticate))
	}
	// 9. Database session, committed after the event queue was published
	if cfg.Database != nil {
		r.Use(Database(cfg.Database))
		r.Use(Autocommit())
	}
	// 10. Event queue (innermost, closest to the handlers)
	if cfg.Events != nil {
		r.Use(cfg.Events.Handler)
	}
}
