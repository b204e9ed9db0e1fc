/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       total_units enrichment: the original route joins a
             project-level unit-count inventory onto a project-grouped
             result, which transactions alone can't answer since it
             only records individual sales. Ported here as a
             supplemented feature, not dropped, since the original
             does it and the Non-goals don't exclude it. Also derives
             percent_sold (capped at 100) and unsold_inventory (floored
             at 0) from total_units and the row's transaction count,
             same as the original's units_sold/total_units comparison.
Root Cause:  Sprint task T229 — enrichment only fires when both
             total_units is requested AND the grouping is by project;
             any other combination is a silent no-op, matching the
             original's needs_total_units guard.
Context:     project_units is a small reference table maintained out
             of band (URA caveat counts, developer brochures); it is
             not populated by the ETL pipeline itself.
Suitability: L2 — one guarded branch, no control-flow complexity.
──────────────────────────────────────────────────────────────
*/

package aggregate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrichTotalUnits adds a "total_units" field to every row of result
// when the caller requested the total_units metric on a project
// grouping. It is a no-op for any other shape of result.
func EnrichTotalUnits(ctx context.Context, pool *pgxpool.Pool, p Params, result *Result) error {
	if !contains(p.Metrics, "total_units") || !contains(p.GroupBy, "project") {
		return nil
	}

	rows, err := pool.Query(ctx, "SELECT project_name, total_units FROM project_units")
	if err != nil {
		return fmt.Errorf("aggregate: enrich total_units: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var name string
		var units int64
		if err := rows.Scan(&name, &units); err != nil {
			return fmt.Errorf("aggregate: enrich total_units scan: %w", err)
		}
		counts[name] = units
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("aggregate: enrich total_units iteration: %w", err)
	}

	for _, r := range result.Rows {
		name, _ := r["project"].(string)
		units, ok := counts[name]
		if !ok {
			r["total_units"] = nil
			r["percent_sold"] = nil
			r["unsold_inventory"] = nil
			continue
		}
		r["total_units"] = units

		sold := rowCount(r)
		if units <= 0 {
			r["percent_sold"] = nil
			r["unsold_inventory"] = nil
			continue
		}
		percentSold := float64(sold) * 100 / float64(units)
		if percentSold > 100 {
			percentSold = 100
		}
		unsold := units - sold
		if unsold < 0 {
			unsold = 0
		}
		r["percent_sold"] = percentSold
		r["unsold_inventory"] = unsold
	}
	for _, m := range []string{"total_units", "percent_sold", "unsold_inventory"} {
		if !contains(result.Metrics, m) {
			result.Metrics = append(result.Metrics, m)
		}
	}
	return nil
}

// rowCount extracts the always-present "count" metric as int64,
// regardless of which concrete numeric type the driver scanned it as.
func rowCount(r Row) int64 {
	switch v := r["count"].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}
