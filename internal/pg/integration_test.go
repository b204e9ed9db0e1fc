package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sgpropanalytics/condocore/config"
	"github.com/sgpropanalytics/condocore/internal/aggregate"
	"github.com/sgpropanalytics/condocore/internal/contract"
	"github.com/sgpropanalytics/condocore/internal/dedup"
	"github.com/sgpropanalytics/condocore/internal/etlrun"
	"github.com/sgpropanalytics/condocore/internal/loader"
	"github.com/sgpropanalytics/condocore/internal/pg"
	"github.com/sgpropanalytics/condocore/internal/promote"
	"github.com/sgpropanalytics/condocore/internal/rules"
	"github.com/rs/zerolog"
)

// End-to-end: migrate a scratch database, load a small fixture CSV
// through the full staging/dedup/outlier/promote pipeline, then run an
// aggregate query against the promoted rows. Skipped unless
// RUN_ANALYTICS_INTEGRATION=1 and DATABASE_URL point at a real,
// disposable Postgres instance.
func TestIngestAndAggregateEndToEnd(t *testing.T) {
	if os.Getenv("RUN_ANALYTICS_INTEGRATION") != "1" {
		t.Skip("integration test skipped; set RUN_ANALYTICS_INTEGRATION=1 and DATABASE_URL to run")
	}

	cfg := config.Load()
	log := zerolog.New(os.Stderr)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.Open(ctx, cfg, log)
	if err != nil {
		t.Fatalf("pg.Open: %v", err)
	}
	defer pool.Close()

	migrator, err := pg.NewMigrator(pool)
	if err != nil {
		t.Fatalf("pg.NewMigrator: %v", err)
	}
	if err := migrator.MigrateUp(ctx); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	fixture := writeFixtureCSV(t)

	spec := contract.Load()
	registry := rules.New()
	rc := etlrun.New(etlrun.ModeFull, "integration-test")

	rows, err := loader.LoadFile(fixture, spec, registry, rc)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected at least one parsed row from fixture")
	}

	if _, err := loader.StageRows(ctx, pool, rows); err != nil {
		t.Fatalf("StageRows: %v", err)
	}
	if _, err := dedup.Dedup(ctx, pool, rc.BatchID); err != nil {
		t.Fatalf("Dedup: %v", err)
	}
	bounds, err := dedup.CalculateIQRBounds(ctx, pool, cfg.IQRMultiplier)
	if err != nil {
		t.Fatalf("CalculateIQRBounds: %v", err)
	}
	if _, err := dedup.MarkOutliers(ctx, pool, rc.BatchID, bounds); err != nil {
		t.Fatalf("MarkOutliers: %v", err)
	}

	result, err := promote.Promote(ctx, pool, rc.BatchID)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if result.Promoted == 0 {
		t.Fatal("expected at least one row promoted")
	}

	engine := aggregate.New(pool)
	agg, err := engine.Aggregate(ctx, aggregate.Params{
		GroupBy: []string{"district"},
		Metrics: []string{"avg_psf", "total_value"},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if agg.TotalRecords == 0 {
		t.Fatal("expected promoted rows to be visible to the aggregate engine")
	}
}

func writeFixtureCSV(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "fixture-*.csv")
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	const body = `Project Name,Sale Date,Property Type,Transacted Price,Area (Sqft),Postal District,Sale Type,Floor Range,Tenure
The Sail,Dec-20,Condominium,1800000,1000,D01,New Sale,21-25,99 yrs lease commencing from 2019
The Sail,Jan-21,Condominium,1850000,1050,D01,Resale,16-20,99 yrs lease commencing from 2019
`
	if _, err := f.WriteString(body); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return f.Name()
}
