package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Workspaces, categories and transactions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS workspaces (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					channel_id TEXT UNIQUE,
					language TEXT NOT NULL DEFAULT 'en',
					auto_confirm BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					workspace_id TEXT NOT NULL REFERENCES workspaces(id),
					name TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('expense', 'income')),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (workspace_id, name, type)
				)`,
				`CREATE INDEX idx_categories_workspace_type ON categories(workspace_id, type)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					workspace_id TEXT NOT NULL REFERENCES workspaces(id),
					category_id TEXT REFERENCES categories(id),
					amount_cents INTEGER NOT NULL,
					description TEXT NOT NULL,
					date DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_workspace_date ON transactions(workspace_id, date)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add pending transactions awaiting confirmation",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS pending_transactions (
					id TEXT PRIMARY KEY,
					channel_id TEXT NOT NULL,
					workspace_id TEXT NOT NULL REFERENCES workspaces(id),
					category_id TEXT REFERENCES categories(id),
					amount_cents INTEGER NOT NULL,
					description TEXT NOT NULL,
					date DATETIME NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_pending_channel ON pending_transactions(channel_id, created_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add learned category mappings",
		Up: func(tx *sql.Tx) error {
			// Global entries use the empty workspace id and never reference a category row.
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS category_mappings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					workspace_id TEXT NOT NULL DEFAULT '',
					description_key TEXT NOT NULL,
					transaction_type TEXT NOT NULL CHECK (transaction_type IN ('expense', 'income')),
					category_id TEXT,
					category_name TEXT NOT NULL,
					usage_count INTEGER NOT NULL DEFAULT 1,
					last_used_at DATETIME NOT NULL,
					created_at DATETIME NOT NULL,
					UNIQUE (workspace_id, description_key, transaction_type),
					CHECK (workspace_id <> '' OR category_id IS NULL)
				)`,
				`CREATE INDEX idx_category_mappings_last_used ON category_mappings(last_used_at)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// Migrations returns the known migrations in order.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
