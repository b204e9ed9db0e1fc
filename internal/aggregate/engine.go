/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Aggregate() entry point: compile, run a fast total-count
             pre-check, run the main grouped query, shape rows into a
             JSON-friendly map, and return a Result with response meta.
Root Cause:  Sprint task T228 — ports the original route's early-return
             on zero-row count and the month/quarter int-pair to
             "YYYY-MM" string formatting.
Context:     Premium/subscription gating (check_granularity_allowed,
             is_premium_user, and the "subscription" meta block) from
             the original route is dropped entirely — out of scope.
Suitability: L3.
──────────────────────────────────────────────────────────────
*/

package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one grouped result row, keyed by group_by result keys and
// metric tokens. Values are plain Go types ready for JSON encoding.
type Row map[string]any

// Result is the full shaped response of an Aggregate call.
type Result struct {
	Rows           []Row
	TotalRecords   int64
	FiltersApplied map[string]any
	GroupBy        []string
	Metrics        []string
	ElapsedMS      int64
}

// Engine executes aggregation queries against the transactions table.
type Engine struct {
	pool *pgxpool.Pool
}

// New returns an Engine bound to pool.
func New(pool *pgxpool.Pool) *Engine {
	return &Engine{pool: pool}
}

// Aggregate runs p against the database. It returns a *QueryValidationError
// if p names a group_by or metric token outside the closed set.
func (e *Engine) Aggregate(ctx context.Context, p Params) (*Result, error) {
	start := time.Now()

	compiled, applied, err := compileQuery(p)
	if err != nil {
		return nil, err
	}

	whereBody, whereArgs, _ := buildWhere(p)
	countSQL := "SELECT COUNT(*) FROM transactions"
	if whereBody != "" {
		countSQL += " WHERE " + whereBody
	}
	var total int64
	if err := e.pool.QueryRow(ctx, countSQL, whereArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("aggregate: count query: %w", err)
	}

	result := &Result{
		FiltersApplied: applied,
		GroupBy:        p.GroupBy,
		Metrics:        compiled.metricKeys,
		TotalRecords:   total,
	}
	if total == 0 {
		result.Rows = []Row{}
		result.ElapsedMS = time.Since(start).Milliseconds()
		return result, nil
	}

	rows, err := e.pool.Query(ctx, compiled.sql, compiled.args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate: query: %w", err)
	}
	defer rows.Close()

	allKeys := append(append([]string{}, compiled.groupKeys...), compiled.metricKeys...)
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("aggregate: scan row: %w", err)
		}
		if len(values) != len(allKeys) {
			return nil, fmt.Errorf("aggregate: column count mismatch: got %d, want %d", len(values), len(allKeys))
		}
		r := make(Row, len(allKeys))
		for i, k := range allKeys {
			r[k] = values[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate: row iteration: %w", err)
	}

	out = formatPeriodColumns(out, p.GroupBy)
	result.Rows = out
	result.ElapsedMS = time.Since(start).Milliseconds()
	return result, nil
}

// formatPeriodColumns collapses the internal _year/_month and
// _year/_quarter pairs into a single "YYYY-MM" or "YYYY-QN" string
// keyed by the group_by token name, matching the original route's
// response shape.
func formatPeriodColumns(rows []Row, groupBy []string) []Row {
	if contains(groupBy, "month") {
		for _, r := range rows {
			year, _ := r["_year"].(int32)
			month, _ := r["_month"].(int32)
			r["month"] = fmt.Sprintf("%04d-%02d", year, month)
			delete(r, "_year")
			delete(r, "_month")
		}
	}
	if contains(groupBy, "quarter") {
		for _, r := range rows {
			year, _ := r["_year"].(int32)
			quarter, _ := r["_quarter"].(int32)
			r["quarter"] = fmt.Sprintf("%04d-Q%d", year, quarter)
			delete(r, "_year")
			delete(r, "_quarter")
		}
	}
	return rows
}
