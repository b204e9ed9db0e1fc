/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Ingest CLI entrypoint: acquires the dataset advisory
             lock, runs every CSV file through the staging loader,
             dedups and marks outliers, atomically promotes, refreshes
             precomputed stats, and writes the batch ledger — in that
             order, with exit codes distinguishing IO/parse failure
             from contract mismatch from hard validation failure from
             a promotion conflict.
Root Cause:  Sprint task T241 — the ETL core needs a real process
             entrypoint, not just the library packages underneath it.
Context:     One dataset name per invocation (-dataset flag); the
             advisory lock in internal/pg serializes concurrent ingest
             runs against the same dataset across hosts.
Suitability: L3 — stage ordering and exit-code mapping is the
             correctness-sensitive part; each stage itself is a single
             call into an already-tested package.
──────────────────────────────────────────────────────────────
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sgpropanalytics/condocore/config"
	"github.com/sgpropanalytics/condocore/internal/contract"
	"github.com/sgpropanalytics/condocore/internal/dedup"
	"github.com/sgpropanalytics/condocore/internal/etlrun"
	"github.com/sgpropanalytics/condocore/internal/loader"
	"github.com/sgpropanalytics/condocore/internal/pg"
	"github.com/sgpropanalytics/condocore/internal/promote"
	"github.com/sgpropanalytics/condocore/internal/rules"
	"github.com/sgpropanalytics/condocore/internal/snapshot"
	"github.com/sgpropanalytics/condocore/logger"
)

// Exit codes, per the ETL core's documented CLI contract.
const (
	exitSuccess           = 0
	exitIOParseError      = 1
	exitContractMismatch  = 2
	exitValidationFailed  = 3
	exitPromotionConflict = 4
)

func main() {
	dataset := flag.String("dataset", "default", "dataset name; scopes the advisory lock and batch ledger")
	triggeredBy := flag.String("triggered-by", "cli", "who/what triggered this run, recorded on the batch ledger")
	flag.Parse()
	files := flag.Args()

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest -dataset <name> <file.csv> [file2.csv ...]")
		os.Exit(exitIOParseError)
	}

	cfg := config.Load()
	log := logger.New(cfg)
	ctx := context.Background()

	pool, err := pg.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to postgres")
		os.Exit(exitIOParseError)
	}
	defer pool.Close()

	migrator, err := pg.NewMigrator(pool)
	if err != nil {
		log.Error().Err(err).Msg("failed to load schema migrations")
		os.Exit(exitIOParseError)
	}
	if err := migrator.MigrateUp(ctx); err != nil {
		log.Error().Err(err).Msg("schema migration failed")
		os.Exit(exitIOParseError)
	}

	lock, err := pg.AcquireDatasetLock(ctx, pool, *dataset)
	if err != nil {
		log.Error().Err(err).Str("dataset", *dataset).Msg("failed to acquire dataset lock")
		os.Exit(exitIOParseError)
	}
	defer lock.Release(ctx)

	spec := contract.Load()
	registry := rules.New()

	rc := etlrun.New(etlrun.ModeFull, *triggeredBy)
	rc.SchemaVersion = spec.Hash()
	rc.ContractHash = spec.Hash()
	rc.RulesVersion = registry.Version()
	rc.TotalFiles = len(files)
	_ = rc.Save(ctx, pool)

	exitCode := run(ctx, pool, cfg, spec, registry, files, rc, log)

	if exitCode == exitSuccess {
		rc.Complete()
	} else if rc.Status != etlrun.StatusFailed {
		rc.Fail("unknown", fmt.Sprintf("ingest exited with code %d", exitCode))
	}
	if err := rc.Save(ctx, pool); err != nil {
		log.Error().Err(err).Msg("failed to persist final batch ledger state")
	}

	fmt.Print(rc.Summary())
	if ok, unaccounted, msg := rc.ReconciliationCheck(); ok != nil && !*ok {
		log.Warn().Int("unaccounted", unaccounted).Msg(msg)
	}

	os.Exit(exitCode)
}

func run(
	ctx context.Context,
	pool *pgxpool.Pool,
	cfg *config.Config,
	spec *contract.Spec,
	registry *rules.Registry,
	files []string,
	rc *etlrun.Context,
	log zerolog.Logger,
) int {
	rc.MarkStage(etlrun.StatusStaging)

	var allRows []loader.Row
	for _, path := range files {
		rows, err := loader.LoadFile(path, spec, registry, rc)
		if err != nil {
			var contractErr *contract.Error
			if errors.As(err, &contractErr) {
				rc.Fail("loading", err.Error())
				log.Error().Err(err).Str("file", path).Msg("schema contract mismatch")
				return exitContractMismatch
			}
			rc.Fail("loading", err.Error())
			log.Error().Err(err).Str("file", path).Msg("failed to load file")
			return exitIOParseError
		}
		allRows = append(allRows, rows...)
	}

	if len(allRows) == 0 {
		rc.Fail("loading", "no valid rows parsed from any input file")
		return exitValidationFailed
	}

	if _, err := loader.StageRows(ctx, pool, allRows); err != nil {
		rc.Fail("staging", err.Error())
		log.Error().Err(err).Msg("failed to stage rows")
		return exitIOParseError
	}

	rc.MarkStage(etlrun.StatusValidating)

	if _, err := dedup.Dedup(ctx, pool, rc.BatchID); err != nil {
		rc.Fail("dedup", err.Error())
		log.Error().Err(err).Msg("dedup failed")
		return exitIOParseError
	}
	remaining, err := dedup.RemainingCount(ctx, pool, rc.BatchID)
	if err != nil {
		rc.Fail("dedup", err.Error())
		return exitIOParseError
	}
	rc.RowsAfterDedup = remaining

	bounds, err := dedup.CalculateIQRBounds(ctx, pool, cfg.IQRMultiplier)
	if err != nil {
		rc.Fail("outlier_marking", err.Error())
		log.Error().Err(err).Msg("IQR bounds calculation failed")
		return exitIOParseError
	}
	outliers, err := dedup.MarkOutliers(ctx, pool, rc.BatchID, bounds)
	if err != nil {
		rc.Fail("outlier_marking", err.Error())
		return exitIOParseError
	}
	rc.RowsOutliersMarked = int(outliers)

	// Row-level validation issues (parse errors, rejected rows) mark the
	// batch "not clean" but never abort it — only a contract mismatch or
	// a DB failure does that. ValidationPassed is carried through to the
	// ledger as-is; promotion proceeds regardless.
	rc.MarkStage(etlrun.StatusPromoting)

	result, err := promote.Promote(ctx, pool, rc.BatchID)
	if err != nil {
		rc.Fail("promoting", err.Error())
		log.Error().Err(err).Msg("promotion failed")
		return exitPromotionConflict
	}
	rc.RowsPromoted = int(result.Promoted)
	rc.RowsSkippedCollision = int(result.Skipped)

	if err := promote.CleanupStaging(ctx, pool, rc.BatchID); err != nil {
		log.Warn().Err(err).Msg("staging cleanup failed; batch's rows will linger in transactions_staging")
	}

	if err := snapshot.Refresh(ctx, pool); err != nil {
		log.Warn().Err(err).Msg("precomputed stats refresh failed; dashboard will serve stale snapshot")
	}

	return exitSuccess
}
