package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects.
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
		Description: "Plans and transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS plans (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					daily_amount TEXT NOT NULL,
					cycle_days INTEGER NOT NULL,
					target_amount TEXT NOT NULL,
					current_amount TEXT NOT NULL,
					minimum_balance TEXT NOT NULL,
					auto_save_enabled INTEGER NOT NULL DEFAULT 0,
					auto_save_time TEXT,
					status TEXT NOT NULL,
					start_date DATETIME NOT NULL,
					end_date DATETIME NOT NULL,
					interest_rate REAL NOT NULL DEFAULT 0,
					streak INTEGER NOT NULL DEFAULT 0,
					total_contributions INTEGER NOT NULL DEFAULT 0,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_plans_user ON plans(user_id)`,
				`CREATE INDEX idx_plans_status ON plans(status)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					plan_id TEXT,
					amount TEXT NOT NULL,
					type TEXT NOT NULL,
					status TEXT NOT NULL,
					source TEXT,
					reference TEXT UNIQUE NOT NULL,
					description TEXT,
					metadata TEXT,
					created_at DATETIME NOT NULL,
					completed_at DATETIME,
					failed_at DATETIME,
					failure_reason TEXT
				)`,
				`CREATE INDEX idx_transactions_user ON transactions(user_id)`,
				`CREATE INDEX idx_transactions_plan ON transactions(plan_id)`,
				`CREATE INDEX idx_transactions_status ON transactions(status)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("failed to execute %q: %w", q[:40], err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Wallets and users",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS wallets (
					user_id TEXT PRIMARY KEY,
					balance TEXT NOT NULL DEFAULT '0',
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					kyc_tier TEXT NOT NULL DEFAULT 'unverified',
					created_at DATETIME NOT NULL
				)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("failed to execute %q: %w", q[:40], err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Interest payout tracking and created_at index",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE plans ADD COLUMN interest_paid INTEGER NOT NULL DEFAULT 0`,
				`CREATE INDEX idx_transactions_created ON transactions(created_at)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("failed to execute %q: %w", q[:40], err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
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

	return nil
}
