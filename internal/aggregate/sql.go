/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Final SELECT assembly from allow-listed fragments only.
             group_by/metric tokens are validated against tokens.go's
             maps before any string is touched; unknown tokens never
             reach this function.
Root Cause:  Sprint task T227 — single assembly point so every query
             this engine ever runs is auditable from one function.
Context:     project group_by orders by count desc (busiest projects
             first); every other group_by orders by its first group
             column, matching the original route's ordering rule.
Suitability: L3.
──────────────────────────────────────────────────────────────
*/

package aggregate

import (
	"fmt"
	"strings"
)

// compiledQuery is the fully assembled, ready-to-execute query plus
// the information needed to shape scanned rows back into a response.
type compiledQuery struct {
	sql        string
	args       []any
	groupKeys  []string // resultKeys across all requested group_by tokens, in order
	metricKeys []string // metric tokens included in the SELECT, in order (always starts with count)
}

// compileQuery validates groupBy/metrics against the closed token
// tables and assembles the final query. Returns a *QueryValidationError
// for any token outside the allow-list.
func compileQuery(p Params) (*compiledQuery, map[string]any, error) {
	for _, g := range p.GroupBy {
		if !ValidGroupBy(g) {
			return nil, nil, &QueryValidationError{Field: "group_by", Value: g, Message: "not a recognized grouping"}
		}
	}
	for _, m := range p.Metrics {
		if !ValidMetric(m) {
			return nil, nil, &QueryValidationError{Field: "metrics", Value: m, Message: "not a recognized metric"}
		}
	}

	var selectList []string
	var groupExprs []string
	var groupKeys []string
	for _, g := range p.GroupBy {
		col := groupByTokens[g]
		selectList = append(selectList, col.selectExprs...)
		groupExprs = append(groupExprs, col.groupExprs...)
		groupKeys = append(groupKeys, col.resultKeys...)
	}

	metricKeys := []string{"count"}
	selectList = append(selectList, metricExprs["count"]+" AS count")
	for _, m := range p.Metrics {
		if m == "count" || computedMetrics[m] {
			continue
		}
		selectList = append(selectList, fmt.Sprintf("%s AS %s", metricExprs[m], m))
		metricKeys = append(metricKeys, m)
	}

	whereBody, args, applied := buildWhere(p)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectList, ", "))
	b.WriteString(" FROM transactions")
	if whereBody != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereBody)
	}
	if len(groupExprs) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groupExprs, ", "))
	}

	if contains(p.GroupBy, "project") {
		b.WriteString(" ORDER BY count DESC")
	} else if len(groupExprs) > 0 {
		b.WriteString(" ORDER BY 1")
	}

	limit := clampLimit(p.Limit)
	b.WriteString(fmt.Sprintf(" LIMIT %d", limit))

	return &compiledQuery{
		sql:        b.String(),
		args:       args,
		groupKeys:  groupKeys,
		metricKeys: metricKeys,
	}, applied, nil
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
