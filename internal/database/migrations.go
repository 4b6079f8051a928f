package database

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
)`

// RunMigrations applies all pending schema migrations in lexical order.
// Each migration runs in its own transaction and is recorded in the
// schema_migrations ledger; already-applied migrations are skipped, so
// running against a freshly restored dump is safe.
func (c *Controller) RunMigrations(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return fmt.Errorf("cannot run migrations: database not connected")
	}

	if _, err := c.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("cannot create schema_migrations table: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("cannot read embedded migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		var count int
		row := c.db.QueryRowContext(ctx,
			c.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE name = ?"), name)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("cannot check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		body, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("cannot read migration %s: %w", name, err)
		}

		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("cannot begin transaction for %s: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			c.Rebind("INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)"),
			name, time.Now().UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("cannot record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("cannot commit migration %s: %w", name, err)
		}

		c.log.Info("Applied migration", "name", name)
		applied++
	}

	if applied == 0 {
		c.log.Debug("No pending migrations")
	}
	return nil
}
