/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Response header normalization: ensures a consistent
             Content-Type and a small set of service-identifying
             headers on every response, regardless of which handler
             produced it.
Root Cause:  Sprint task T018 — response header normalization.
Context:     There is no upstream provider response to sanitize here
             (all data comes from this service's own Postgres), so
             this is far smaller than a proxying gateway's version:
             just the response side, no per-provider header stripping.
Suitability: L2.
──────────────────────────────────────────────────────────────
*/

package middleware

import "net/http"

// serviceResponseHeaders are set on every response this service sends.
var serviceResponseHeaders = map[string]string{
	"X-Service": "condocore",
}

// HeaderNormalization sets standard response headers via a wrapping
// ResponseWriter so every handler gets them without opting in.
func HeaderNormalization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &headerNormWriter{ResponseWriter: w}
		next.ServeHTTP(wrapped, r)
	})
}

type headerNormWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (hw *headerNormWriter) WriteHeader(code int) {
	if hw.wroteHeader {
		return
	}
	hw.wroteHeader = true
	for k, v := range serviceResponseHeaders {
		hw.ResponseWriter.Header().Set(k, v)
	}
	hw.ResponseWriter.WriteHeader(code)
}

func (hw *headerNormWriter) Write(b []byte) (int, error) {
	if !hw.wroteHeader {
		hw.WriteHeader(http.StatusOK)
	}
	return hw.ResponseWriter.Write(b)
}

func (hw *headerNormWriter) Flush() {
	if f, ok := hw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
