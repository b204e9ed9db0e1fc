/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L1
Logic:       Rate limiting and concurrency guards both need a per-
             caller key. This service has no API-key auth, so the key
             is whatever X-Client-ID the caller sets, falling back to
             remote address.
Root Cause:  Sprint task T019/T060 — replace the teacher's
             API-key-derived rate limit key with something that works
             without an auth layer.
Suitability: L1.
──────────────────────────────────────────────────────────────
*/

package middleware

import (
	"context"
	"net/http"
)

type clientKeyCtx struct{}

// ClientKeyMiddleware resolves the caller's rate-limit/concurrency key
// and attaches it to the request context.
func ClientKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Client-ID")
		if key == "" {
			key = r.RemoteAddr
		}
		ctx := context.WithValue(r.Context(), clientKeyCtx{}, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientKey retrieves the resolved client key from context.
func GetClientKey(ctx context.Context) string {
	if v, ok := ctx.Value(clientKeyCtx{}).(string); ok {
		return v
	}
	return ""
}
