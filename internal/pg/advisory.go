/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Dataset-scoped Postgres advisory lock: one ingest run at
             a time per dataset, enforced server-side so it holds even
             across multiple cmd/ingest processes on different hosts.
Root Cause:  Sprint task T222 — concurrency invariant "one ingest run
             at a time per dataset" (see internal/etlrun, cmd/ingest).
Context:     hashtext() collapses the dataset name to a 32-bit key;
             pg_advisory_lock blocks until acquired, which is the
             desired behavior for a CLI waiting its turn rather than
             failing fast.
Suitability: L2 — single SQL call pair, low complexity.
──────────────────────────────────────────────────────────────
*/

package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatasetLock holds a session-scoped Postgres advisory lock keyed by
// dataset name for the lifetime of one ingest run. Release must run on
// the same connection the lock was acquired on, so the lock is held
// via a single pgxpool.Conn checked out for the duration.
type DatasetLock struct {
	conn    *pgxpool.Conn
	dataset string
}

// AcquireDatasetLock blocks until the advisory lock for dataset is
// acquired on a dedicated connection, then returns a handle to release
// it.
func AcquireDatasetLock(ctx context.Context, pool *pgxpool.Pool, dataset string) (*DatasetLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: acquire connection for dataset lock: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock(hashtext($1))", dataset); err != nil {
		conn.Release()
		return nil, fmt.Errorf("pg: acquire dataset lock for %q: %w", dataset, err)
	}

	return &DatasetLock{conn: conn, dataset: dataset}, nil
}

// Release unlocks the advisory lock and returns the connection to the
// pool. Safe to call once; subsequent calls are no-ops.
func (l *DatasetLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock(hashtext($1))", l.dataset)
	l.conn.Release()
	l.conn = nil
	if err != nil {
		return fmt.Errorf("pg: release dataset lock for %q: %w", l.dataset, err)
	}
	return nil
}
