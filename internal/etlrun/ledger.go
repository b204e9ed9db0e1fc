/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Persists a Context to the etl_batches audit table, either
             as an initial insert (batch starting) or an upsert at the
             end of the run once every row count and issue is final.
Root Cause:  Sprint task T214 — batch ledger persistence.
Context:     Issues/warnings/fingerprints are stored as JSONB; callers
             never hand-build that JSON, Save marshals it.
Suitability: L2 — one upsert statement, no branching business logic.
──────────────────────────────────────────────────────────────
*/

package etlrun

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Save upserts the Context's current state into etl_batches. Call it
// once to record the batch starting and again after Complete/Fail to
// record the final state.
func (c *Context) Save(ctx context.Context, pool *pgxpool.Pool) error {
	fingerprints, err := json.Marshal(c.FileFingerprints)
	if err != nil {
		return fmt.Errorf("etlrun: marshal file_fingerprints: %w", err)
	}
	report, err := json.Marshal(c.ContractReport)
	if err != nil {
		return fmt.Errorf("etlrun: marshal contract_report: %w", err)
	}
	issues, err := json.Marshal(c.ValidationIssues)
	if err != nil {
		return fmt.Errorf("etlrun: marshal validation_issues: %w", err)
	}
	warnings, err := json.Marshal(c.SemanticWarnings)
	if err != nil {
		return fmt.Errorf("etlrun: marshal semantic_warnings: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO etl_batches (
			batch_id, started_at, completed_at, status,
			file_fingerprints, total_files,
			schema_version, rules_version, contract_hash, header_fingerprint,
			contract_report, source_row_count, rows_rejected, rows_skipped,
			rows_loaded, rows_after_dedup, rows_outliers_marked, rows_promoted,
			rows_skipped_collision, validation_passed, validation_issues,
			semantic_warnings, error_message, error_stage, triggered_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		ON CONFLICT (batch_id) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			status = EXCLUDED.status,
			file_fingerprints = EXCLUDED.file_fingerprints,
			total_files = EXCLUDED.total_files,
			contract_report = EXCLUDED.contract_report,
			source_row_count = EXCLUDED.source_row_count,
			rows_rejected = EXCLUDED.rows_rejected,
			rows_skipped = EXCLUDED.rows_skipped,
			rows_loaded = EXCLUDED.rows_loaded,
			rows_after_dedup = EXCLUDED.rows_after_dedup,
			rows_outliers_marked = EXCLUDED.rows_outliers_marked,
			rows_promoted = EXCLUDED.rows_promoted,
			rows_skipped_collision = EXCLUDED.rows_skipped_collision,
			validation_passed = EXCLUDED.validation_passed,
			validation_issues = EXCLUDED.validation_issues,
			semantic_warnings = EXCLUDED.semantic_warnings,
			error_message = EXCLUDED.error_message,
			error_stage = EXCLUDED.error_stage
	`,
		c.BatchID, c.StartedAt, c.CompletedAt, c.Status,
		fingerprints, c.TotalFiles,
		c.SchemaVersion, c.RulesVersion, c.ContractHash, c.HeaderFingerprint,
		report, c.SourceRowCount, c.RowsRejected, c.RowsSkipped,
		c.RowsLoaded, c.RowsAfterDedup, c.RowsOutliersMarked, c.RowsPromoted,
		c.RowsSkippedCollision, c.ValidationPassed, issues,
		warnings, nullableString(c.ErrorMessage), nullableString(c.ErrorStage), c.TriggeredBy,
	)
	if err != nil {
		return fmt.Errorf("etlrun: save batch %s: %w", c.BatchID, err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
