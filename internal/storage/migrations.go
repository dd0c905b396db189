package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// Migrate reports an error if the database cannot be brought to this version.
const ExpectedSchemaVersion = 2

// ErrSchemaVersion is returned when the database is not at ExpectedSchemaVersion
// after migrating, usually because a newer binary has already upgraded it.
var ErrSchemaVersion = errors.New("database schema version mismatch")

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

// Every statement is idempotent so that databases created before versioning
// (same tables, user_version 0) migrate cleanly.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Users and prediction history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					timestamp TEXT NOT NULL,
					raw_input TEXT NOT NULL,
					prediction TEXT NOT NULL,
					probability REAL NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
				)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Index history by user and time",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_user_timestamp ON transactions(user_id, timestamp)`,
			})
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations. It is safe to call on
// every start and from several processes at once: each migration re-reads
// the schema version inside its own write-locked transaction.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	for _, migration := range migrations {
		applied, err := s.applyMigration(ctx, migration)
		if err != nil {
			return err
		}
		if applied {
			slog.Info("Applied migration",
				"version", migration.Version,
				"description", migration.Description)
		}
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: expected %d, got %d",
			ErrSchemaVersion, ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

func (s *SQLiteStorage) applyMigration(ctx context.Context, migration Migration) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storeError("failed to begin migration", err)
	}
	defer func() { _ = tx.Rollback() }()

	var currentVersion int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return false, storeError("failed to get schema version", err)
	}
	if migration.Version <= currentVersion {
		return false, nil
	}

	if err := migration.Up(tx); err != nil {
		return false, storeError(fmt.Sprintf("migration %d failed", migration.Version), err)
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
		return false, storeError("failed to update schema version", err)
	}

	if err := tx.Commit(); err != nil {
		return false, storeError(fmt.Sprintf("failed to commit migration %d", migration.Version), err)
	}
	return true, nil
}
