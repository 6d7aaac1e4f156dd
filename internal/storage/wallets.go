package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/model"
)

// EnsureUser registers a user with the given KYC tier and an empty wallet.
// Existing users keep their current tier and balance.
func (s *SQLiteStorage) EnsureUser(ctx context.Context, userID model.UserID, tier model.KYCTier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID.String(), "userID"); err != nil {
		return err
	}
	switch tier {
	case model.TierUnverified, model.TierBasic, model.TierFull:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKYCTier, tier)
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, kyc_tier, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, userID.String(), string(tier), now)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance, updated_at) VALUES (?, '0', ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID.String(), now)
	if err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

// SetTier updates a user's verification tier.
func (s *SQLiteStorage) SetTier(ctx context.Context, userID model.UserID, tier model.KYCTier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE users SET kyc_tier = ? WHERE id = ?`,
		string(tier), userID.String())
	if err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}
	return nil
}

// TierFor implements the KYC port. Unknown users are unverified.
func (s *SQLiteStorage) TierFor(ctx context.Context, userID model.UserID) (model.KYCTier, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	var tier string
	err := s.db.QueryRowContext(ctx, `SELECT kyc_tier FROM users WHERE id = ?`, userID.String()).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TierUnverified, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get KYC tier: %w", err)
	}
	return model.KYCTier(tier), nil
}

// Balance returns the user's wallet balance; a missing wallet reads as zero.
func (s *SQLiteStorage) Balance(ctx context.Context, userID model.UserID) (model.Money, error) {
	if err := validateContext(ctx); err != nil {
		return model.Money{}, err
	}

	var balance string
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, userID.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Zero(s.currency), nil
	}
	if err != nil {
		return model.Money{}, fmt.Errorf("failed to get balance: %w", err)
	}
	return model.NewMoneyFromString(balance, s.currency)
}

// HasSufficientBalance reports whether the wallet can cover the amount.
func (s *SQLiteStorage) HasSufficientBalance(ctx context.Context, userID model.UserID, amount model.Money) (bool, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount)
}

// Credit adds to the wallet balance, creating the wallet if needed.
func (s *SQLiteStorage) Credit(ctx context.Context, userID model.UserID, amount model.Money) error {
	return s.adjustBalance(ctx, userID, amount, false)
}

// Debit removes from the wallet balance, rejecting overdrafts.
func (s *SQLiteStorage) Debit(ctx context.Context, userID model.UserID, amount model.Money) error {
	return s.adjustBalance(ctx, userID, amount, true)
}

func (s *SQLiteStorage) adjustBalance(ctx context.Context, userID model.UserID, amount model.Money, debit bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if amount.Currency() != s.currency {
		return fmt.Errorf("%w: %s", ErrWrongCurrency, amount.Format())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, userID.String()).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if debit {
			return fmt.Errorf("user %s: %w", userID, common.ErrWalletNotFound)
		}
		stored = "0"
		if _, err := tx.ExecContext(ctx, `INSERT INTO wallets (user_id, balance, updated_at) VALUES (?, '0', ?)`,
			userID.String(), time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := model.NewMoneyFromString(stored, s.currency)
	if err != nil {
		return err
	}

	var updated model.Money
	if debit {
		updated, err = balance.Subtract(amount)
		if err != nil {
			return fmt.Errorf("wallet %s: %w", userID, common.ErrInsufficientFunds)
		}
	} else {
		updated, err = balance.Add(amount)
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance = ?, updated_at = ? WHERE user_id = ?`,
		updated.Amount().String(), time.Now().UTC(), userID.String()); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	return tx.Commit()
}
