/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Parameterized WHERE clause builder. Every filter value
             flows in as a bind parameter ($N); nothing here ever
             formats a user value into the SQL string itself.
Root Cause:  Sprint task T226 — filter precedence ported from the
             original /aggregate route: outlier exclusion always
             first, then district/bedroom/segment/sale_type/date
             range/psf/size/tenure/project.
Context:     Segment (region) filters expand to a district IN (...)
             list rather than filtering on the region column directly,
             matching the original route's CCR/RCR/OCR district sets.
Suitability: L3 — this is half of the SQL-injection boundary; the
             other half is tokens.go's closed-set group/metric tables.
──────────────────────────────────────────────────────────────
*/

package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// Params is the fully-validated, closed-vocabulary request shape the
// engine accepts. HTTP-layer code is responsible for parsing raw query
// strings into this struct and rejecting anything outside it before
// Aggregate is ever called.
type Params struct {
	GroupBy []string
	Metrics []string

	Districts   []string
	Bedrooms    []int
	Segments    []string // CCR, RCR, OCR — expands to a district set
	SaleType    string
	DateFrom    *time.Time
	DateToExcl  *time.Time // exclusive upper bound
	PSFMin      *float64
	PSFMax      *float64
	SizeMin     *float64
	SizeMax     *float64
	Tenure      string // "freehold", "leasehold", or a specific "99"/"999"
	Project     string // partial, case-insensitive match
	ProjectExact string

	Limit       int
	IncludeRows bool
}

var segmentDistricts = map[string][]string{
	"CCR": {"D09", "D10", "D11", "D01", "D02", "D06"},
	"RCR": {"D03", "D04", "D05", "D07", "D08", "D12", "D13", "D14", "D15", "D20"},
	"OCR": {"D16", "D17", "D18", "D19", "D21", "D22", "D23", "D24", "D25", "D26", "D27", "D28"},
}

// whereBuilder accumulates predicates and their bind arguments, keeping
// placeholder numbering consistent as clauses are appended.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

// buildWhere returns the WHERE clause body (without the "WHERE"
// keyword) and its bind arguments, plus a human-readable
// filters_applied map for the response meta.
func buildWhere(p Params) (string, []any, map[string]any) {
	w := &whereBuilder{}
	applied := map[string]any{}

	w.add("is_outlier = false")

	if len(p.Districts) > 0 {
		w.add("district = ANY(?)", p.Districts)
		applied["districts"] = p.Districts
	}

	if len(p.Bedrooms) > 0 {
		w.add("bedroom_count = ANY(?)", p.Bedrooms)
		applied["bedrooms"] = p.Bedrooms
	}

	if len(p.Segments) > 0 {
		var districts []string
		for _, seg := range p.Segments {
			districts = append(districts, segmentDistricts[strings.ToUpper(seg)]...)
		}
		if len(districts) > 0 {
			w.add("district = ANY(?)", districts)
			applied["segments"] = p.Segments
		}
	}

	if p.SaleType != "" {
		w.add("LOWER(sale_type) = LOWER(?)", p.SaleType)
		applied["sale_type"] = p.SaleType
	}

	if p.DateFrom != nil {
		w.add("transaction_date >= ?", *p.DateFrom)
		applied["date_from"] = p.DateFrom.Format("2006-01-02")
	}
	if p.DateToExcl != nil {
		w.add("transaction_date < ?", *p.DateToExcl)
		applied["date_to"] = p.DateToExcl.Format("2006-01-02")
	}

	if p.PSFMin != nil {
		w.add("psf >= ?", *p.PSFMin)
		applied["psf_min"] = *p.PSFMin
	}
	if p.PSFMax != nil {
		w.add("psf <= ?", *p.PSFMax)
		applied["psf_max"] = *p.PSFMax
	}

	if p.SizeMin != nil {
		w.add("area_sqft >= ?", *p.SizeMin)
		applied["size_min"] = *p.SizeMin
	}
	if p.SizeMax != nil {
		w.add("area_sqft <= ?", *p.SizeMax)
		applied["size_max"] = *p.SizeMax
	}

	switch strings.ToLower(p.Tenure) {
	case "freehold":
		w.add("tenure_class = ?", "freehold")
		applied["tenure"] = "freehold"
	case "leasehold":
		w.add("tenure_class <> ?", "freehold")
		applied["tenure"] = "leasehold"
	case "99":
		w.add("tenure_class = ?", "99")
		applied["tenure"] = "99"
	case "999":
		w.add("tenure_class = ?", "999")
		applied["tenure"] = "999"
	}

	if p.ProjectExact != "" {
		w.add("LOWER(project_name) = LOWER(?)", p.ProjectExact)
		applied["project_exact"] = p.ProjectExact
	} else if p.Project != "" {
		w.add("project_name ILIKE ?", "%"+p.Project+"%")
		applied["project"] = p.Project
	}

	return strings.Join(w.clauses, " AND "), w.args, applied
}

// clampLimit enforces 0 < limit <= 10000, defaulting to 1000 when
// unset, per the original route's bound.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 1000
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}
