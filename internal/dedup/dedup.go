/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Within-batch dedup and IQR-based outlier marking, both
             pushed down as SQL against transactions_staging rather
             than looped row-by-row in Go.
Root Cause:  Sprint task T223 — dedup + outlier marker stage between
             staging and promotion.
Context:     IQR bounds are computed from current production
             non-outlier rows only (never in-batch staging rows), so
             bounds stay stable across batches and aren't perturbed by
             whatever this batch happens to contain. k defaults to 5.0,
             not the textbook 1.5, to retain prime-district luxury
             sales as legitimate (if extreme) data points.
Suitability: L3 — correctness of the bounds query matters for every
             downstream aggregate.
──────────────────────────────────────────────────────────────
*/

// Package dedup implements within-batch deduplication and IQR-based
// outlier marking against transactions_staging.
package dedup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dedup removes duplicate rows within a single batch, keeping the
// lowest staging id per row_hash. Cross-batch duplicates are handled
// later by promotion's ON CONFLICT (row_hash) DO NOTHING, not here.
func Dedup(ctx context.Context, pool *pgxpool.Pool, batchID string) (int64, error) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM transactions_staging
		WHERE batch_id = $1
		AND id NOT IN (
			SELECT MIN(id) FROM transactions_staging
			WHERE batch_id = $1
			GROUP BY row_hash
		)
	`, batchID)
	if err != nil {
		return 0, fmt.Errorf("dedup: delete duplicates for batch %s: %w", batchID, err)
	}
	return tag.RowsAffected(), nil
}

// RemainingCount returns how many staging rows are left for batchID
// after Dedup — this is the rc.RowsAfterDedup value.
func RemainingCount(ctx context.Context, pool *pgxpool.Pool, batchID string) (int, error) {
	var n int
	err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM transactions_staging WHERE batch_id = $1", batchID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("dedup: count remaining rows for batch %s: %w", batchID, err)
	}
	return n, nil
}

// Bounds holds the IQR statistics used to classify outliers. Valid is
// false when production held too few non-outlier rows to form
// quartiles (e.g. an empty table on the very first ingest) — callers
// must treat that as "nothing to mark", not an error.
type Bounds struct {
	Valid      bool
	Q1         float64
	Q3         float64
	IQR        float64
	LowerBound float64
	UpperBound float64
}

// CalculateIQRBounds computes price IQR bounds from current production
// non-outlier rows (transactions, not transactions_staging), using
// Postgres's percentile_cont. percentile_cont returns SQL NULL over an
// empty set, so q1/q3 are scanned as nullable and a NULL either side
// yields Bounds{Valid: false} rather than an error.
func CalculateIQRBounds(ctx context.Context, pool *pgxpool.Pool, multiplier float64) (Bounds, error) {
	var q1, q3 *float64
	err := pool.QueryRow(ctx, `
		SELECT
			percentile_cont(0.25) WITHIN GROUP (ORDER BY price),
			percentile_cont(0.75) WITHIN GROUP (ORDER BY price)
		FROM transactions
		WHERE price > 0 AND is_outlier = false
	`).Scan(&q1, &q3)
	if err != nil {
		return Bounds{}, fmt.Errorf("dedup: calculate IQR bounds: %w", err)
	}
	if q1 == nil || q3 == nil {
		return Bounds{Valid: false}, nil
	}

	iqr := *q3 - *q1
	return Bounds{
		Valid:      true,
		Q1:         *q1,
		Q3:         *q3,
		IQR:        iqr,
		LowerBound: *q1 - multiplier*iqr,
		UpperBound: *q3 + multiplier*iqr,
	}, nil
}

// MarkOutliers flags staging rows for batchID whose price falls
// outside bounds. Outliers are kept, never discarded — is_outlier is
// an analytic filter applied at query time (internal/aggregate), not
// a deletion. A no-op when bounds couldn't be formed (empty
// production table): nothing is marked, every row is left clean.
func MarkOutliers(ctx context.Context, pool *pgxpool.Pool, batchID string, bounds Bounds) (int64, error) {
	if !bounds.Valid {
		return 0, nil
	}
	tag, err := pool.Exec(ctx, `
		UPDATE transactions_staging
		SET is_outlier = true
		WHERE batch_id = $1
		AND (price < $2 OR price > $3)
	`, batchID, bounds.LowerBound, bounds.UpperBound)
	if err != nil {
		return 0, fmt.Errorf("dedup: mark outliers for batch %s: %w", batchID, err)
	}
	return tag.RowsAffected(), nil
}
