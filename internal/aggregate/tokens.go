/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Closed group-by and metric token tables. Every token maps
             to a literal, precompiled SQL fragment — tokens never get
             concatenated from user input into SQL text.
Root Cause:  Sprint task T225 — aggregation engine must never compose
             SQL from free-form user parameters (testable property:
             executed SQL contains no user-supplied substring).
Context:     age_band's CASE expression is built from
             rules.AgeBandLabels so the bucket strings have one source
             of truth shared with the age_band rule.
Suitability: L3 — the allow-list is the entire security boundary here.
──────────────────────────────────────────────────────────────
*/

// Package aggregate implements the Aggregation Query Engine: a closed
// set of group-by and metric tokens compiled to static SQL, parameter-
// ized filters, and the engine that executes and shapes results.
package aggregate

import (
	"fmt"

	"github.com/sgpropanalytics/condocore/internal/rules"
)

// groupColumn describes how a group_by token contributes to the
// SELECT list, the GROUP BY clause, and the result row's key(s).
type groupColumn struct {
	selectExprs []string // one or more SELECT expressions, aliased
	groupExprs  []string // the same expressions, unaliased, for GROUP BY
	resultKeys  []string // column aliases this token produces
}

var groupByTokens = map[string]groupColumn{
	"district": {
		selectExprs: []string{"district AS district"},
		groupExprs:  []string{"district"},
		resultKeys:  []string{"district"},
	},
	"bedroom": {
		selectExprs: []string{"bedroom_count AS bedroom"},
		groupExprs:  []string{"bedroom_count"},
		resultKeys:  []string{"bedroom"},
	},
	"sale_type": {
		selectExprs: []string{"sale_type AS sale_type"},
		groupExprs:  []string{"sale_type"},
		resultKeys:  []string{"sale_type"},
	},
	"project": {
		selectExprs: []string{"project_name AS project"},
		groupExprs:  []string{"project_name"},
		resultKeys:  []string{"project"},
	},
	"year": {
		selectExprs: []string{"EXTRACT(YEAR FROM transaction_date)::int AS year"},
		groupExprs:  []string{"EXTRACT(YEAR FROM transaction_date)::int"},
		resultKeys:  []string{"year"},
	},
	"month": {
		selectExprs: []string{
			"EXTRACT(YEAR FROM transaction_date)::int AS _year",
			"EXTRACT(MONTH FROM transaction_date)::int AS _month",
		},
		groupExprs: []string{
			"EXTRACT(YEAR FROM transaction_date)::int",
			"EXTRACT(MONTH FROM transaction_date)::int",
		},
		resultKeys: []string{"_year", "_month"},
	},
	"quarter": {
		selectExprs: []string{
			"EXTRACT(YEAR FROM transaction_date)::int AS _year",
			"(FLOOR((EXTRACT(MONTH FROM transaction_date) - 1) / 3) + 1)::int AS _quarter",
		},
		groupExprs: []string{
			"EXTRACT(YEAR FROM transaction_date)::int",
			"(FLOOR((EXTRACT(MONTH FROM transaction_date) - 1) / 3) + 1)::int",
		},
		resultKeys: []string{"_year", "_quarter"},
	},
	"region": {
		selectExprs: []string{"region AS region"},
		groupExprs:  []string{"region"},
		resultKeys:  []string{"region"},
	},
	"floor_level": {
		selectExprs: []string{"COALESCE(floor_level, 'Unknown') AS floor_level"},
		groupExprs:  []string{"COALESCE(floor_level, 'Unknown')"},
		resultKeys:  []string{"floor_level"},
	},
	"age_band": {
		selectExprs: []string{ageBandCaseExpr() + " AS age_band"},
		groupExprs:  []string{ageBandCaseExpr()},
		resultKeys:  []string{"age_band"},
	},
}

// ageBandCaseExpr builds the age_band CASE expression. Priority order
// matches rules.ageBand: new sales are always "New Launch"; freehold
// never depreciates; a missing lease_start_year buckets to "Unknown";
// everything else buckets by (transaction_year - lease_start_year).
// The bucket strings are taken from rules.AgeBandLabels.
func ageBandCaseExpr() string {
	l := rules.AgeBandLabels
	return fmt.Sprintf(`CASE
		WHEN LOWER(sale_type) = 'new sale' THEN '%[1]s'
		WHEN LOWER(tenure) LIKE '%%freehold%%' THEN '%[6]s'
		WHEN lease_start_year IS NULL THEN '%[6]s'
		WHEN (EXTRACT(YEAR FROM transaction_date)::int - lease_start_year) < 0 THEN '%[6]s'
		WHEN (EXTRACT(YEAR FROM transaction_date)::int - lease_start_year) <= 5 THEN '%[2]s'
		WHEN (EXTRACT(YEAR FROM transaction_date)::int - lease_start_year) <= 10 THEN '%[3]s'
		WHEN (EXTRACT(YEAR FROM transaction_date)::int - lease_start_year) <= 20 THEN '%[4]s'
		ELSE '%[5]s'
	END`, l[0], l[1], l[2], l[3], l[4], l[5])
}

// metricExprs maps each metric token to its SQL aggregate expression.
// "count" is always included regardless of the requested metric list —
// it is a row-integrity field, not an optional metric.
var metricExprs = map[string]string{
	"count":              "COUNT(*)",
	"avg_psf":            "AVG(psf)",
	"median_psf":         "PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY psf)",
	"total_value":        "SUM(price)",
	"avg_price":          "AVG(price)",
	"median_price":       "PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price)",
	"min_psf":            "MIN(psf)",
	"max_psf":            "MAX(psf)",
	"min_price":          "MIN(price)",
	"max_price":          "MAX(price)",
	"avg_size":           "AVG(area_sqft)",
	"total_sqft":         "SUM(area_sqft)",
	"price_25th":         "PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY price)",
	"price_75th":         "PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY price)",
	"psf_25th":           "PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY psf)",
	"psf_75th":           "PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY psf)",
	"median_psf_actual":  "PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY psf)",
}

// computedMetrics are metric tokens resolved outside SQL, by a
// post-query enrichment step (see enrich.go), rather than by a
// SELECT expression.
var computedMetrics = map[string]bool{
	"total_units": true,
}

// ValidGroupBy reports whether token is a recognized group_by token.
func ValidGroupBy(token string) bool {
	_, ok := groupByTokens[token]
	return ok
}

// ValidMetric reports whether token is a recognized metric token,
// either SQL-computed or enrichment-computed.
func ValidMetric(token string) bool {
	if computedMetrics[token] {
		return true
	}
	_, ok := metricExprs[token]
	return ok
}

// QueryValidationError reports a request parameter outside the closed
// set of tokens this engine accepts.
type QueryValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *QueryValidationError) Error() string {
	return fmt.Sprintf("aggregate: invalid %s %q: %s", e.Field, e.Value, e.Message)
}
