package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/service"
)

const txnColumns = `id, user_id, plan_id, amount, type, status, source,
	reference, description, metadata, created_at, completed_at, failed_at,
	failure_reason`

// SaveTransaction inserts a new transaction. A duplicate reference is
// rejected with ErrDuplicateReference; this is where the uniqueness
// invariant the core cannot see is enforced.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validateTransaction(txn); err != nil {
		return err
	}

	metadata, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+txnColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID.String(), txn.UserID.String(), nullableString(txn.PlanID.String()),
		txn.Amount.Amount().String(), string(txn.Type), string(txn.Status),
		string(txn.Source), txn.Reference, txn.Description, string(metadata),
		txn.CreatedAt, txn.CompletedAt, txn.FailedAt, txn.FailureReason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reference %q: %w", txn.Reference, common.ErrDuplicateReference)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// UpdateTransaction persists a status transition.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validateTransaction(txn); err != nil {
		return err
	}

	metadata, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			status = ?, metadata = ?, completed_at = ?, failed_at = ?, failure_reason = ?
		WHERE id = ?
	`,
		string(txn.Status), string(metadata), txn.CompletedAt, txn.FailedAt,
		txn.FailureReason, txn.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// GetTransaction fetches one transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id model.TransactionID) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id.String(), "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = ?`, id.String())
	txn, err := s.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionByReference fetches one transaction by its unique reference.
func (s *SQLiteStorage) GetTransactionByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := model.ValidateReference(reference); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE reference = ?`, reference)
	txn, err := s.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reference %q: %w", reference, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionsByUser fetches a user's transactions, newest first.
func (s *SQLiteStorage) GetTransactionsByUser(ctx context.Context, userID model.UserID, filter service.TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID.String()}

	if filter.StartDate != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND created_at < ?`
		args = append(args, *filter.EndDate)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetTransactionsByPlan fetches every transaction against a plan.
func (s *SQLiteStorage) GetTransactionsByPlan(ctx context.Context, planID model.PlanID) ([]model.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE plan_id = ? ORDER BY created_at DESC`,
		planID.String())
}

// GetTransactionsByStatus fetches every transaction in the given status.
func (s *SQLiteStorage) GetTransactionsByStatus(ctx context.Context, status model.TransactionStatus) ([]model.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE status = ? ORDER BY created_at DESC`,
		string(status))
}

// GetStaleTransactions returns pending transactions created before the
// cutoff, so an operator can sweep abandoned ones.
func (s *SQLiteStorage) GetStaleTransactions(ctx context.Context, olderThan time.Time) ([]model.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE status = ? AND created_at < ? ORDER BY created_at`,
		string(model.TxnPending), olderThan)
}

// DailyTotal sums a user's transaction volume for the calendar day
// containing the given instant. Failed and cancelled transactions do not
// count against limits.
func (s *SQLiteStorage) DailyTotal(ctx context.Context, userID model.UserID, day time.Time) (model.Money, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return s.sumAmounts(ctx, userID, start, start.AddDate(0, 0, 1))
}

// MonthlyTotal sums a user's transaction volume for the calendar month
// containing the given instant.
func (s *SQLiteStorage) MonthlyTotal(ctx context.Context, userID model.UserID, month time.Time) (model.Money, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.sumAmounts(ctx, userID, start, start.AddDate(0, 1, 0))
}

// sumAmounts totals amounts in Go with decimal arithmetic; SQLite REAL
// sums would drift.
func (s *SQLiteStorage) sumAmounts(ctx context.Context, userID model.UserID, start, end time.Time) (model.Money, error) {
	if err := validateContext(ctx); err != nil {
		return model.Money{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM transactions
		WHERE user_id = ? AND status IN (?, ?) AND created_at >= ? AND created_at < ?
	`, userID.String(), string(model.TxnPending), string(model.TxnCompleted), start, end)
	if err != nil {
		return model.Money{}, fmt.Errorf("failed to query totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return model.Money{}, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return model.Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return model.Money{}, err
	}

	return model.NewMoney(total, s.currency)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := s.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

func (s *SQLiteStorage) scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn                         model.Transaction
		id, userID, txnType, status string
		planID, source, metadata    sql.NullString
		description, failureReason  sql.NullString
		amount                      string
		completedAt, failedAt       sql.NullTime
	)

	err := row.Scan(
		&id, &userID, &planID, &amount, &txnType, &status, &source,
		&txn.Reference, &description, &metadata, &txn.CreatedAt,
		&completedAt, &failedAt, &failureReason,
	)
	if err != nil {
		return nil, err
	}

	txn.ID = model.TransactionID(id)
	txn.UserID = model.UserID(userID)
	txn.PlanID = model.PlanID(planID.String)
	txn.Type = model.TransactionType(txnType)
	txn.Status = model.TransactionStatus(status)
	txn.Source = model.PaymentSource(source.String)
	txn.Description = description.String
	txn.FailureReason = failureReason.String
	if completedAt.Valid {
		t := completedAt.Time
		txn.CompletedAt = &t
	}
	if failedAt.Valid {
		t := failedAt.Time
		txn.FailedAt = &t
	}

	if txn.Amount, err = model.NewMoneyFromString(amount, s.currency); err != nil {
		return nil, err
	}

	txn.Metadata = make(map[string]string)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &txn.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &txn, nil
}

// nullableString maps "" to NULL for optional foreign keys.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
