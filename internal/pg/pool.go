/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Postgres connection pool construction and lifecycle,
             wrapping pgxpool with the config/timeouts this service
             reads everywhere else (config).
Root Cause:  Sprint task T220 — finally back the long-standing
             DATABASE_URL config field with a real driver.
Context:     Every other package (etlrun, loader, dedup, promote,
             aggregate, snapshot) takes a *pgxpool.Pool directly;
             this file is the only place that builds one.
Suitability: L3 — connection lifecycle, not business logic.
──────────────────────────────────────────────────────────────
*/

// Package pg wraps the Postgres connection pool, embedded schema
// migrations, and dataset-scoped advisory locking used by the ETL
// core and the aggregation query engine.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sgpropanalytics/condocore/config"
)

// Open builds a pgxpool.Pool from cfg and verifies connectivity with a
// Ping before returning.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DBConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	pingCtx, cancel2 := context.WithTimeout(ctx, 3*time.Second)
	defer cancel2()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}

	log.Info().
		Int32("max_conns", cfg.DBMaxConns).
		Int32("min_conns", cfg.DBMinConns).
		Msg("postgres pool established")
	return pool, nil
}
