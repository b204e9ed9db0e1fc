package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sgpropanalytics/condocore/internal/aggregate"
)

// parseAggregateParams turns the query string of a GET /aggregate
// request into aggregate.Params. It only does shape parsing (types,
// CSV splitting) — token validation against the closed group_by/metric
// vocabularies happens once, inside aggregate.compileQuery.
func parseAggregateParams(r *http.Request) (aggregate.Params, error) {
	q := r.URL.Query()
	var p aggregate.Params

	p.GroupBy = splitCSV(q.Get("group_by"))
	p.Metrics = splitCSV(q.Get("metrics"))
	if len(p.Metrics) == 0 {
		p.Metrics = []string{"avg_psf", "median_psf", "total_value"}
	}

	p.Districts = splitCSV(q.Get("district"))
	for _, b := range splitCSV(q.Get("bedroom")) {
		n, err := strconv.Atoi(b)
		if err != nil {
			return p, fmt.Errorf("invalid bedroom value %q", b)
		}
		p.Bedrooms = append(p.Bedrooms, n)
	}

	p.Segments = splitCSV(q.Get("segment"))
	p.SaleType = q.Get("sale_type")
	p.Tenure = q.Get("tenure")
	p.Project = q.Get("project")
	p.ProjectExact = q.Get("project_exact")

	var err error
	if p.DateFrom, err = parseDateParam(q.Get("date_from")); err != nil {
		return p, fmt.Errorf("invalid date_from: %w", err)
	}
	if p.DateToExcl, err = parseDateParam(q.Get("date_to")); err != nil {
		return p, fmt.Errorf("invalid date_to: %w", err)
	}
	if p.PSFMin, err = parseFloatParam(q.Get("psf_min")); err != nil {
		return p, fmt.Errorf("invalid psf_min: %w", err)
	}
	if p.PSFMax, err = parseFloatParam(q.Get("psf_max")); err != nil {
		return p, fmt.Errorf("invalid psf_max: %w", err)
	}
	if p.SizeMin, err = parseFloatParam(q.Get("size_min")); err != nil {
		return p, fmt.Errorf("invalid size_min: %w", err)
	}
	if p.SizeMax, err = parseFloatParam(q.Get("size_max")); err != nil {
		return p, fmt.Errorf("invalid size_max: %w", err)
	}

	p.Limit = 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid limit: %w", err)
		}
		p.Limit = n
	}
	p.IncludeRows = q.Get("include_rows") == "true"

	return p, nil
}

// chiURLParam reads a chi route parameter by name.
func chiURLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
