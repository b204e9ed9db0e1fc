/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Unified run context threaded through every ETL stage
             (staging -> validating -> promoting -> completed/failed),
             accumulating row counts and issues, then serialized to
             the etl_batches audit table.
Root Cause:  Sprint task T213 — Batch Ledger so every ingest run is
             fully reconstructable from etl_batches alone.
Context:     One Context per cmd/ingest invocation. Never share a
             Context across concurrent batches — the dataset-scoped
             advisory lock (internal/pg/advisory.go) guarantees only
             one batch per dataset runs at a time, so no internal
             synchronization is needed here.
Suitability: L3 — state machine correctness matters for audit trust.
──────────────────────────────────────────────────────────────
*/

// Package etlrun implements the ETL Run Context: the per-batch audit
// object threaded through staging, validation, promotion, and the
// final batch-ledger write.
package etlrun

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunMode selects which stages of the pipeline a batch executes.
type RunMode string

const (
	ModePlan      RunMode = "plan"
	ModeStageOnly RunMode = "stage-only"
	ModePromote   RunMode = "promote"
	ModeFull      RunMode = "full"
)

// Status is the batch ledger's state machine value.
type Status string

const (
	StatusStaging    Status = "staging"
	StatusValidating Status = "validating"
	StatusPromoting  Status = "promoting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Issue is one validation problem or semantic warning recorded
// against a batch.
type Issue struct {
	Type    string
	Message string
	Details map[string]any
}

// Context is the audit object threaded through an entire ingest run.
type Context struct {
	BatchID string

	SchemaVersion     string
	RulesVersion      string
	ContractHash      string
	HeaderFingerprint string

	RunMode RunMode

	StartedAt   time.Time
	CompletedAt *time.Time

	Status Status

	FileFingerprints map[string]string
	TotalFiles       int

	ContractReport map[string]any

	SourceRowCount *int
	RowsRejected   int
	RowsSkipped    int

	RowsLoaded            int
	RowsAfterDedup        int
	RowsOutliersMarked    int
	RowsPromoted          int
	RowsSkippedCollision  int

	ValidationIssues  []Issue
	SemanticWarnings  []Issue
	ValidationPassed  bool

	ErrorMessage string
	ErrorStage   string

	TriggeredBy string
}

// New creates a fresh Context for a batch run.
func New(mode RunMode, triggeredBy string) *Context {
	return &Context{
		BatchID:          uuid.New().String(),
		RunMode:          mode,
		StartedAt:        time.Now().UTC(),
		Status:           StatusStaging,
		FileFingerprints: make(map[string]string),
		ValidationPassed: true,
		TriggeredBy:      triggeredBy,
	}
}

// MarkStage transitions the batch's status.
func (c *Context) MarkStage(stage Status) {
	c.Status = stage
}

// AddValidationIssue records a blocking validation problem and flips
// ValidationPassed to false. The row or batch that triggered it is
// still processed — blocking here means "batch should not be treated
// as clean", not "abort".
func (c *Context) AddValidationIssue(issueType, message string, details map[string]any) {
	c.ValidationIssues = append(c.ValidationIssues, Issue{Type: issueType, Message: message, Details: details})
	c.ValidationPassed = false
}

// AddSemanticWarning records a non-blocking observation (e.g. a PSF
// recomputation drift within tolerance but worth a note).
func (c *Context) AddSemanticWarning(warningType, message string, details map[string]any) {
	c.SemanticWarnings = append(c.SemanticWarnings, Issue{Type: warningType, Message: message, Details: details})
}

// Fail marks the run failed at a given stage with a message.
func (c *Context) Fail(stage, message string) {
	c.Status = StatusFailed
	c.ErrorStage = stage
	c.ErrorMessage = message
	now := time.Now().UTC()
	c.CompletedAt = &now
}

// Complete marks the run as completed successfully.
func (c *Context) Complete() {
	c.Status = StatusCompleted
	now := time.Now().UTC()
	c.CompletedAt = &now
}

// Summary renders a human-readable multi-line report, used by
// cmd/ingest for its stdout/log output at the end of a run.
func (c *Context) Summary() string {
	end := time.Now().UTC()
	if c.CompletedAt != nil {
		end = *c.CompletedAt
	}
	elapsed := end.Sub(c.StartedAt)

	var b strings.Builder
	fmt.Fprintf(&b, "Batch ID: %s...\n", c.BatchID[:8])
	fmt.Fprintf(&b, "Status: %s\n", c.Status)
	fmt.Fprintf(&b, "Schema: %s | Rules: %s\n", c.SchemaVersion, c.RulesVersion)
	fmt.Fprintf(&b, "Files: %d\n", c.TotalFiles)

	if c.SourceRowCount != nil {
		accounted := c.RowsLoaded + c.RowsRejected + c.RowsSkipped
		unaccounted := *c.SourceRowCount - accounted
		fmt.Fprintf(&b, "Source: %d = loaded(%d) + rejected(%d) + skipped(%d) [unaccounted: %d]\n",
			*c.SourceRowCount, c.RowsLoaded, c.RowsRejected, c.RowsSkipped, unaccounted)
	} else {
		fmt.Fprintf(&b, "Rows loaded: %d\n", c.RowsLoaded)
	}

	fmt.Fprintf(&b, "Pipeline: dedup=%d, outliers=%d, promoted=%d, collisions=%d\n",
		c.RowsAfterDedup, c.RowsOutliersMarked, c.RowsPromoted, c.RowsSkippedCollision)
	fmt.Fprintf(&b, "Elapsed: %.1fs\n", elapsed.Seconds())

	if c.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s: %s\n", c.ErrorStage, c.ErrorMessage)
	}
	if len(c.ValidationIssues) > 0 {
		fmt.Fprintf(&b, "Validation issues: %d\n", len(c.ValidationIssues))
	}
	if len(c.SemanticWarnings) > 0 {
		fmt.Fprintf(&b, "Semantic warnings: %d\n", len(c.SemanticWarnings))
	}
	return b.String()
}

// ReconciliationCheck verifies that every source row is accounted for
// by loaded+rejected+skipped counts. ok is nil when SourceRowCount was
// never set (e.g. a promote-only run with no staging phase this time).
func (c *Context) ReconciliationCheck() (ok *bool, unaccounted int, message string) {
	if c.SourceRowCount == nil {
		return nil, 0, "source_row_count not set"
	}
	accounted := c.RowsLoaded + c.RowsRejected + c.RowsSkipped
	unaccounted = *c.SourceRowCount - accounted
	okVal := unaccounted == 0
	if okVal {
		return &okVal, 0, "OK: all rows accounted for"
	}
	return &okVal, unaccounted, fmt.Sprintf("MISMATCH: %d rows unaccounted", unaccounted)
}
