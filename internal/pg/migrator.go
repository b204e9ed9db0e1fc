/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Embedded-SQL schema migrator. Applies numbered migration
             files in order under a Postgres advisory lock so two
             server/ingest processes starting concurrently never race
             on DDL.
Root Cause:  Sprint task T221 — schema migrations for transactions,
             transactions_staging, etl_batches, precomputed_stats.
Context:     Migration files are embedded via go:embed so the binary
             carries its own schema and does not depend on an external
             migration runner at deploy time.
Suitability: L3 — DDL ordering/locking correctness.
──────────────────────────────────────────────────────────────
*/

package pg

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one embedded, numbered schema step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrator applies embedded migrations to a pool.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
}

// NewMigrator loads the embedded migration files and returns a
// Migrator bound to pool.
func NewMigrator(pool *pgxpool.Pool) (*Migrator, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, fmt.Errorf("pg: load migrations: %w", err)
	}
	return &Migrator{pool: pool, migrations: migrations}, nil
}

// migrationAdvisoryLockID is a fixed, arbitrary advisory lock ID used
// to serialize schema migration across concurrent process starts.
const migrationAdvisoryLockID = 471185309

// MigrateUp applies every migration newer than the current schema
// version, in order, each in its own transaction.
func (m *Migrator) MigrateUp(ctx context.Context) error {
	// The advisory lock is session-scoped, so lock and unlock run on one
	// dedicated connection held for the whole migration.
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("pg: acquire connection for migration lock: %w", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationAdvisoryLockID); err != nil {
		return fmt.Errorf("pg: acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationAdvisoryLockID)
	}()

	if err := m.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("pg: migration %d (%s) failed: %w", mig.Version, mig.Description, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, or 0
// if none have run yet.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("pg: read current version: %w", err)
	}
	return version, nil
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("pg: ensure schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) applyMigration(ctx context.Context, mig Migration) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
		mig.Version, mig.Description); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// loadMigrations reads and parses embedded migration files. File
// names follow "NNN_description.sql"; the numeric prefix is the
// migration version and sort order.
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("migration filename %q missing version prefix", e.Name())
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("migration filename %q has non-numeric version: %w", e.Name(), err)
		}
		body, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, err
		}
		description := strings.TrimSuffix(parts[1], ".sql")
		migrations = append(migrations, Migration{
			Version:     version,
			Description: description,
			SQL:         string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}
