package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jmoiron/sqlx"
)

// Migration is one forward/backward schema step
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// Migrations is the ordered schema history
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Create job_postings table",
		Up: `
			CREATE TABLE IF NOT EXISTS job_postings (
				id UUID PRIMARY KEY,
				title TEXT NOT NULL CHECK (title <> ''),
				company TEXT NOT NULL CHECK (company <> ''),
				location TEXT NOT NULL DEFAULT 'Remote',
				salary TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL CHECK (description <> ''),
				requirements TEXT[] NOT NULL DEFAULT '{}',
				benefits TEXT[] NOT NULL DEFAULT '{}',
				status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'closed')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				applicant_count INTEGER NOT NULL DEFAULT 0 CHECK (applicant_count >= 0)
			);
			CREATE INDEX IF NOT EXISTS idx_job_postings_created_at ON job_postings (created_at DESC, id DESC);
			CREATE INDEX IF NOT EXISTS idx_job_postings_status ON job_postings (status);
		`,
		Down: `DROP TABLE IF EXISTS job_postings`,
	},
	{
		Version:     2,
		Description: "Create job_events table",
		Up: `
			CREATE TABLE IF NOT EXISTS job_events (
				event_id UUID PRIMARY KEY,
				job_id UUID NOT NULL,
				event_type TEXT NOT NULL,
				source TEXT NOT NULL,
				occurred_at TIMESTAMPTZ NOT NULL,
				details JSONB,
				recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_job_events_job_id ON job_events (job_id, occurred_at);
		`,
		Down: `DROP TABLE IF EXISTS job_events`,
	},
}

// Migrator applies Migrations and records them in schema_migrations
type Migrator struct {
	db         *sqlx.DB
	logger     *slog.Logger
	migrations []Migration
}

// NewMigrator creates a migrator over the default schema history
func NewMigrator(db *sqlx.DB, logger *slog.Logger) *Migrator {
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Migrator{
		db:         db,
		logger:     logger,
		migrations: sorted,
	}
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	var versions []int
	if err := m.db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// Up applies every pending migration, each in its own transaction.
// It returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}

		if err := m.apply(ctx, mig); err != nil {
			return count, err
		}
		count++

		m.logger.Info("Migration applied",
			slog.Int("version", mig.Version),
			slog.String("description", mig.Description),
		)
	}

	return count, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", mig.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
		return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
		mig.Version, mig.Description,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
	}
	return nil
}

// Down rolls back the most recently applied migration, if any
func (m *Migrator) Down(ctx context.Context) (*Migration, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if !applied[mig.Version] {
			continue
		}

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin rollback %d: %w", mig.Version, err)
		}
		if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to rollback migration %d: %w", mig.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to remove migration record %d: %w", mig.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit rollback %d: %w", mig.Version, err)
		}

		m.logger.Info("Migration rolled back", slog.Int("version", mig.Version))
		return &mig, nil
	}

	return nil, nil
}
