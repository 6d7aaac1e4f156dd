// Package storage provides the SQLite persistence adapter behind the
// savings core's ports.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/model"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements the PlanStore, TransactionStore, WalletService
// and KYCService ports using SQLite. Monetary amounts are stored as decimal
// strings in a single configured currency.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	currency model.Currency
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, currency model.Currency) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: currency", common.ErrMissingConfig)
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:       db,
		dbPath:   dbPath,
		currency: currency,
	}, nil
}

// Currency returns the currency all stored amounts are denominated in.
func (s *SQLiteStorage) Currency() model.Currency {
	return s.currency
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
