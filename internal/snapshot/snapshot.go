/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Snapshot Refresher: after a promote, recompute a small
             fixed set of headline statistics (overall count, median
             price/psf, per-region median) and write them into
             precomputed_stats keyed by stat_key, so dashboard reads
             never wait on a live aggregate query.
Root Cause:  Sprint task T233 — post-promote refresh so the dashboard
             endpoint is O(1) regardless of transactions table size.
Context:     This is additive to the aggregate engine, not a
             replacement — /aggregate always computes live, /dashboard
             reads these precomputed rows.
Suitability: L2.
──────────────────────────────────────────────────────────────
*/

// Package snapshot recomputes headline statistics into precomputed_stats
// after each successful promotion.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stat is one row of precomputed_stats.
type Stat struct {
	Key       string
	Value     json.RawMessage
	RowCount  int64
	ComputedAt time.Time
}

// Refresh recomputes every headline stat and upserts each into
// precomputed_stats in its own statement. A failure on one stat does
// not prevent the others from refreshing.
func Refresh(ctx context.Context, pool *pgxpool.Pool) error {
	refreshers := []func(context.Context, *pgxpool.Pool) error{
		refreshOverall,
		refreshByRegion,
		refreshByDistrict,
	}
	var firstErr error
	for _, fn := range refreshers {
		if err := fn(ctx, pool); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func upsert(ctx context.Context, pool *pgxpool.Pool, key string, value any, rowCount int64) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("snapshot: marshal %s: %w", key, err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO precomputed_stats (stat_key, stat_value, row_count, computed_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (stat_key) DO UPDATE SET
			stat_value = EXCLUDED.stat_value,
			row_count = EXCLUDED.row_count,
			computed_at = EXCLUDED.computed_at
	`, key, blob, rowCount)
	if err != nil {
		return fmt.Errorf("snapshot: upsert %s: %w", key, err)
	}
	return nil
}

type overallStat struct {
	Count       int64   `json:"count"`
	MedianPrice float64 `json:"median_price"`
	MedianPSF   float64 `json:"median_psf"`
	AvgPSF      float64 `json:"avg_psf"`
}

func refreshOverall(ctx context.Context, pool *pgxpool.Pool) error {
	var s overallStat
	err := pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price), 0),
			COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY psf), 0),
			COALESCE(AVG(psf), 0)
		FROM transactions
		WHERE is_outlier = false
	`).Scan(&s.Count, &s.MedianPrice, &s.MedianPSF, &s.AvgPSF)
	if err != nil {
		return fmt.Errorf("snapshot: overall query: %w", err)
	}
	return upsert(ctx, pool, "overall", s, s.Count)
}

type regionStat struct {
	Region      string  `json:"region"`
	Count       int64   `json:"count"`
	MedianPSF   float64 `json:"median_psf"`
}

func refreshByRegion(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `
		SELECT region, COUNT(*), COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY psf), 0)
		FROM transactions
		WHERE is_outlier = false
		GROUP BY region
	`)
	if err != nil {
		return fmt.Errorf("snapshot: by-region query: %w", err)
	}
	defer rows.Close()

	var stats []regionStat
	var total int64
	for rows.Next() {
		var s regionStat
		if err := rows.Scan(&s.Region, &s.Count, &s.MedianPSF); err != nil {
			return fmt.Errorf("snapshot: by-region scan: %w", err)
		}
		stats = append(stats, s)
		total += s.Count
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return upsert(ctx, pool, "by_region", stats, total)
}

type districtStat struct {
	District  string  `json:"district"`
	Count     int64   `json:"count"`
	MedianPSF float64 `json:"median_psf"`
}

func refreshByDistrict(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `
		SELECT district, COUNT(*), COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY psf), 0)
		FROM transactions
		WHERE is_outlier = false
		GROUP BY district
	`)
	if err != nil {
		return fmt.Errorf("snapshot: by-district query: %w", err)
	}
	defer rows.Close()

	var stats []districtStat
	var total int64
	for rows.Next() {
		var s districtStat
		if err := rows.Scan(&s.District, &s.Count, &s.MedianPSF); err != nil {
			return fmt.Errorf("snapshot: by-district scan: %w", err)
		}
		stats = append(stats, s)
		total += s.Count
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return upsert(ctx, pool, "by_district", stats, total)
}

// Read fetches a single precomputed stat row by key.
func Read(ctx context.Context, pool *pgxpool.Pool, key string) (*Stat, error) {
	var s Stat
	s.Key = key
	err := pool.QueryRow(ctx,
		`SELECT stat_value, row_count, computed_at FROM precomputed_stats WHERE stat_key = $1`, key,
	).Scan(&s.Value, &s.RowCount, &s.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", key, err)
	}
	return &s, nil
}
