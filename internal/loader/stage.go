/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Bulk-loads parsed Rows into transactions_staging via
             pgx's binary CopyFrom protocol instead of row-by-row
             INSERTs.
Root Cause:  Sprint task T219b — staging table population at CSV-file
             scale (tens of thousands of rows per batch).
Suitability: L2 — CopyFrom wiring.
──────────────────────────────────────────────────────────────
*/

package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var stagingColumns = []string{
	"batch_id", "row_hash", "project_name", "transaction_date", "price", "area_sqft", "psf",
	"district", "region", "bedroom_count", "sale_type", "floor_range", "floor_level",
	"tenure", "tenure_class", "lease_start_year", "source", "is_valid",
}

// StageRows bulk-inserts rows into transactions_staging via COPY.
func StageRows(ctx context.Context, pool *pgxpool.Pool, rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	source := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			r.BatchID, r.RowHash, r.ProjectName, r.TransactionDate, r.Price, r.AreaSqft, r.PSF,
			r.District, r.Region, r.BedroomCount, r.SaleType, nullIfEmpty(r.FloorRange), nullIfEmpty(r.FloorLevel),
			nullIfEmpty(r.Tenure), nullIfEmpty(r.TenureClass), r.LeaseStartYear, r.Source, r.IsValid,
		}, nil
	})

	n, err := pool.CopyFrom(ctx, pgx.Identifier{"transactions_staging"}, stagingColumns, source)
	if err != nil {
		return n, fmt.Errorf("loader: copy into transactions_staging: %w", err)
	}
	return n, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
