/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Router tests for the Deps-based NewRouter: health
             endpoints, CORS preflight, and security headers against
             the analytics query routes.
Root Cause:  Sprint task T024 — router tests retargeted from the
             LLM-gateway /v1/* surface to /aggregate, /dashboard,
             /cache/*, /healthz, /ready.
Context:     Tests that would require a live Postgres pool (/ready,
             /aggregate, /dashboard) are left to the integration test;
             this file only exercises routes reachable without one.
Suitability: L2 model for standard test updates.
──────────────────────────────────────────────────────────────
*/

package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sgpropanalytics/condocore/config"
	"github.com/sgpropanalytics/condocore/internal/httpapi"
)

func testSetup() http.Handler {
	cfg := &config.Config{
		Addr:             ":0",
		Env:              "test",
		RateLimitEnabled: false,
		MaxBodyBytes:     1 << 20,
		QueryTimeout:     5 * 1000000000,
	}
	log := zerolog.New(io.Discard).With().Timestamp().Logger()
	api := &httpapi.API{Logger: log}
	return NewRouter(Deps{Config: cfg, Logger: log, API: api})
}

func TestHealthzEndpoint(t *testing.T) {
	r := testSetup()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for /healthz, got %d", rw.Result().StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := testSetup()

	req := httptest.NewRequest(http.MethodOptions, "/aggregate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS Allow-Origin header on preflight response")
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := testSetup()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	headers := []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Strict-Transport-Security",
	}
	for _, h := range headers {
		if rw.Header().Get(h) == "" {
			t.Fatalf("expected security header %s to be set", h)
		}
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	r := testSetup()

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for removed /v1/models route, got %d", rw.Result().StatusCode)
	}
}
