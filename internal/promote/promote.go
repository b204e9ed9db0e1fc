/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Atomic Promoter: moves a batch's staging rows into
             transactions in a single transaction via INSERT ... SELECT
             ... ON CONFLICT (row_hash) DO NOTHING. Append-only — no
             table rename, no downtime window.
Root Cause:  Sprint task T224 — promotion resolves the spec's open
             question in favor of append-with-conflict-skip over a
             staging-then-rename strategy.
Context:     Snapshot isolation means readers never see a half-
             promoted batch; either the whole INSERT...SELECT commits
             or none of it does.
Suitability: L3 — the one place a bug silently corrupts production
             data, so keep this function small and unambiguous.
──────────────────────────────────────────────────────────────
*/

// Package promote implements the Atomic Promoter: the single
// transaction that moves validated, deduped, outlier-marked staging
// rows into the production transactions table.
package promote

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Error wraps a promotion failure, distinguishing it from other SQL
// errors per the error-kind taxonomy.
type Error struct {
	BatchID string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("promote: batch %s: %v", e.BatchID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result reports how many rows were promoted vs. skipped due to a
// row_hash collision with an already-promoted row (from a prior
// batch).
type Result struct {
	Promoted int64
	Skipped  int64
}

// Promote runs the atomic INSERT...SELECT...ON CONFLICT for batchID.
// Skipped collisions are derived by comparing the valid staging row
// count against rows actually inserted, inside the same transaction.
func Promote(ctx context.Context, pool *pgxpool.Pool, batchID string) (Result, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return Result{}, &Error{BatchID: batchID, Err: err}
	}
	defer tx.Rollback(ctx)

	var eligible int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions_staging WHERE batch_id = $1 AND is_valid = true`,
		batchID,
	).Scan(&eligible); err != nil {
		return Result{}, &Error{BatchID: batchID, Err: err}
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO transactions (
			row_hash, project_name, transaction_date, price, area_sqft, psf,
			district, region, bedroom_count, sale_type, floor_range, floor_level,
			tenure, tenure_class, lease_start_year, is_outlier, source, run_id
		)
		SELECT
			row_hash, project_name, transaction_date, price, area_sqft, psf,
			district, region, bedroom_count, sale_type, floor_range, floor_level,
			tenure, tenure_class, lease_start_year, is_outlier, 'csv', $2
		FROM transactions_staging
		WHERE batch_id = $1 AND is_valid = true
		ON CONFLICT (row_hash) DO NOTHING
	`, batchID, batchID)
	if err != nil {
		return Result{}, &Error{BatchID: batchID, Err: err}
	}

	promoted := tag.RowsAffected()
	result := Result{Promoted: promoted, Skipped: eligible - promoted}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, &Error{BatchID: batchID, Err: err}
	}
	return result, nil
}

// CleanupStaging deletes batchID's rows from transactions_staging once
// they've been promoted. Staging is a working area, not an archive —
// a batch's rows serve no purpose there after Promote has run.
func CleanupStaging(ctx context.Context, pool *pgxpool.Pool, batchID string) error {
	if _, err := pool.Exec(ctx, `DELETE FROM transactions_staging WHERE batch_id = $1`, batchID); err != nil {
		return &Error{BatchID: batchID, Err: err}
	}
	return nil
}
