/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Query server router with middleware chain:
             CORS → Security Headers → Request ID → Panic Recovery
             → Request Logger → Tracing → Header Normalization
             → Client Key → Body Size
             Limit → (per-route) Rate Limit → Concurrency Guard
             → Timeout. Routes: /aggregate, /dashboard, /cache/*,
             /healthz, /ready, /metrics.
Root Cause:  Sprint tasks T011-T024 — query server core, retargeted
             from the LLM proxy's /v1/* routes to the analytics
             backend's read-only query surface.
Context:     Router design affects all downstream handlers.
Suitability: L3 model for proper middleware chain design.
──────────────────────────────────────────────────────────────
*/

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sgpropanalytics/condocore/config"
	"github.com/sgpropanalytics/condocore/internal/httpapi"
	gwmw "github.com/sgpropanalytics/condocore/middleware"
	"github.com/sgpropanalytics/condocore/observability"
)

// Deps bundles the handler-level dependencies NewRouter wires into
// chi routes. All fields besides Config and Logger are optional —
// a nil Metrics or Tracer simply skips that middleware.
type Deps struct {
	Config  *config.Config
	Logger  zerolog.Logger
	API     *httpapi.API
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// NewRouter returns a configured chi Router with the full middleware
// chain and all API routes mounted.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(gwmw.CORSMiddleware([]string{"*"}))
	r.Use(gwmw.SecurityHeadersMiddleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mwRequestLogger(d.Logger))
	if d.Tracer != nil {
		r.Use(observability.TracingMiddleware(d.Tracer))
	}
	r.Use(gwmw.HeaderNormalization)
	r.Use(gwmw.ClientKeyMiddleware)
	r.Use(mwMaxBodySize(d.Config.MaxBodyBytes))

	// --- Health & ops endpoints (no rate limiting) ---
	r.Get("/healthz", d.API.Healthz)
	r.Get("/ready", d.API.Ready)
	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.Handler())
	}

	rateLimiter := gwmw.NewRateLimiter(d.Logger, d.Config.RateLimitEnabled, d.Config.RateLimitRPM, d.Config.RateLimitBurst)
	concurrencyGuard := gwmw.NewConcurrencyGuard(8, 5*time.Second, d.Logger)
	timeoutMW := gwmw.NewTimeoutMiddleware(d.Logger, d.Config)

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Handler)
		r.Use(concurrencyGuard.Middleware)
		r.Use(timeoutMW.Handler)

		r.Get("/aggregate", d.API.Aggregate)
		r.Get("/dashboard", d.API.Dashboard)

		r.Get("/cache/stats", d.API.CacheStats)
		r.Delete("/cache", d.API.CacheFlushAll)
		r.Delete("/cache/{namespace}", d.API.CacheFlushNamespace)
	})

	return r
}

// mwMaxBodySize returns middleware that limits the request body size.
// The query endpoints are GET-only so this mainly guards future POST
// routes and malformed clients that attach a body anyway.
func mwMaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 1 * 1024 * 1024
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 && r.ContentLength > maxBytes {
				http.Error(w, `{"error":"request_too_large","message":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func mwRequestLogger(appLogger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			dur := time.Since(start)
			reqID := chimw.GetReqID(r.Context())
			appLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", reqID).
				Int("status", rw.Status()).
				Dur("duration", dur).
				Msg("request completed")
		})
	}
}
