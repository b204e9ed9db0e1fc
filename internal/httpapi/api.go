/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       HTTP handlers for the query server: /aggregate parses
             and validates query params into aggregate.Params, checks
             the result cache before hitting Postgres, and shapes the
             response the way the original /aggregate route did
             (rows, meta with total_records/filters_applied/elapsed_ms,
             minus the dropped subscription block). /dashboard reads
             precomputed_stats. /cache/* exposes cache introspection
             and manual flush.
Root Cause:  Sprint task T234 — replaces the teacher's handler/
             package (LLM proxy handlers) with the analytics query
             surface.
Context:     group_by/metrics/filters are parsed here, once, from
             closed vocabularies — internal/aggregate never sees a
             request it has to re-validate against anything but its
             own token tables.
Suitability: L3.
──────────────────────────────────────────────────────────────
*/

// Package httpapi implements the HTTP handlers for the query server.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sgpropanalytics/condocore/internal/aggregate"
	"github.com/sgpropanalytics/condocore/internal/cache"
	"github.com/sgpropanalytics/condocore/internal/snapshot"
)

// API holds the dependencies HTTP handlers need.
type API struct {
	Pool        *pgxpool.Pool
	Engine      *aggregate.Engine
	Cache       *cache.Engine
	Broadcaster *cache.Broadcaster
	Logger      zerolog.Logger
}

// Healthz reports process liveness unconditionally.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "condocore"})
}

// Ready reports readiness, which additionally requires a reachable
// database.
func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.Pool.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": "condocore"})
}

// aggregateResponse is the wire shape returned by /aggregate.
type aggregateResponse struct {
	Rows []aggregate.Row `json:"rows"`
	Meta responseMeta    `json:"meta"`
}

type responseMeta struct {
	TotalRecords   int64          `json:"total_records"`
	FiltersApplied map[string]any `json:"filters_applied"`
	GroupBy        []string       `json:"group_by"`
	Metrics        []string       `json:"metrics"`
	ElapsedMS      int64          `json:"elapsed_ms"`
	CacheHit       bool           `json:"cache_hit"`
}

// Aggregate handles GET /aggregate.
func (a *API) Aggregate(w http.ResponseWriter, r *http.Request) {
	params, err := parseAggregateParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cacheKey := cache.Key("aggregate", toCacheParams(params))
	if blob, ok := a.Cache.Get(cacheKey); ok {
		var resp aggregateResponse
		if jsonErr := json.Unmarshal(blob, &resp); jsonErr == nil {
			resp.Meta.CacheHit = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	result, err := a.Engine.Aggregate(r.Context(), params)
	if err != nil {
		if _, ok := err.(*aggregate.QueryValidationError); ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		a.Logger.Error().Err(err).Msg("aggregate query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "aggregate query failed"})
		return
	}

	if err := aggregate.EnrichTotalUnits(r.Context(), a.Pool, params, result); err != nil {
		a.Logger.Warn().Err(err).Msg("total_units enrichment failed, continuing without it")
	}

	resp := aggregateResponse{
		Rows: result.Rows,
		Meta: responseMeta{
			TotalRecords:   result.TotalRecords,
			FiltersApplied: result.FiltersApplied,
			GroupBy:        result.GroupBy,
			Metrics:        result.Metrics,
			ElapsedMS:      result.ElapsedMS,
			CacheHit:       false,
		},
	}

	if blob, err := json.Marshal(resp); err == nil {
		a.Cache.Set(cacheKey, blob)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Dashboard handles GET /dashboard, serving precomputed headline
// statistics rather than a live aggregate query.
func (a *API) Dashboard(w http.ResponseWriter, r *http.Request) {
	keys := []string{"overall", "by_region", "by_district"}
	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		stat, err := snapshot.Read(r.Context(), a.Pool, key)
		if err != nil {
			continue
		}
		out[key] = stat.Value
	}
	writeJSON(w, http.StatusOK, out)
}

// CacheStats handles GET /cache/stats.
func (a *API) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Cache.Stats())
}

// CacheFlushAll handles DELETE /cache.
func (a *API) CacheFlushAll(w http.ResponseWriter, r *http.Request) {
	a.Cache.FlushAll()
	if a.Broadcaster != nil {
		a.Broadcaster.BroadcastAll(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

// CacheFlushNamespace handles DELETE /cache/{namespace}.
func (a *API) CacheFlushNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := chiURLParam(r, "namespace")
	removed := a.Cache.FlushNamespace(namespace)
	if a.Broadcaster != nil {
		a.Broadcaster.BroadcastNamespace(r.Context(), namespace)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "flushed", "namespace": namespace, "removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toCacheParams(p aggregate.Params) map[string]any {
	m := map[string]any{
		"group_by":      p.GroupBy,
		"metrics":       p.Metrics,
		"districts":     p.Districts,
		"bedrooms":      p.Bedrooms,
		"segments":      p.Segments,
		"sale_type":     p.SaleType,
		"tenure":        p.Tenure,
		"project":       p.Project,
		"project_exact": p.ProjectExact,
		"limit":         p.Limit,
	}
	if p.DateFrom != nil {
		m["date_from"] = p.DateFrom.Format("2006-01-02")
	}
	if p.DateToExcl != nil {
		m["date_to"] = p.DateToExcl.Format("2006-01-02")
	}
	if p.PSFMin != nil {
		m["psf_min"] = *p.PSFMin
	}
	if p.PSFMax != nil {
		m["psf_max"] = *p.PSFMax
	}
	if p.SizeMin != nil {
		m["size_min"] = *p.SizeMin
	}
	if p.SizeMax != nil {
		m["size_max"] = *p.SizeMax
	}
	return m
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloatParam(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
