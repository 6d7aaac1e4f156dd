package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tobiloba/dailystash/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidPlan    = errors.New("invalid plan")
	ErrInvalidTxn     = errors.New("invalid transaction")
	ErrWrongCurrency  = errors.New("amount currency does not match storage currency")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrUnknownStatus  = errors.New("unknown status")
	ErrUnknownKYCTier = errors.New("unknown KYC tier")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePlan checks a plan before it is written.
func (s *SQLiteStorage) validatePlan(plan *model.SavingsPlan) error {
	if plan == nil {
		return fmt.Errorf("%w: plan", ErrNilParameter)
	}
	if plan.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPlan)
	}
	if plan.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidPlan)
	}
	if plan.Version < 1 {
		return fmt.Errorf("%w: version must be at least 1", ErrInvalidPlan)
	}
	for _, amount := range []model.Money{plan.DailyAmount, plan.TargetAmount, plan.CurrentAmount, plan.MinimumBalance} {
		if amount.Currency() != s.currency {
			return fmt.Errorf("%w: %s", ErrWrongCurrency, amount.Format())
		}
	}
	switch plan.Status {
	case model.PlanActive, model.PlanPaused, model.PlanCompleted, model.PlanCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, plan.Status)
	}
	return nil
}

// validateTransaction checks a transaction before it is written.
func (s *SQLiteStorage) validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTxn)
	}
	if txn.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidTxn)
	}
	if err := model.ValidateReference(txn.Reference); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTxn, err)
	}
	if txn.Amount.Currency() != s.currency {
		return fmt.Errorf("%w: %s", ErrWrongCurrency, txn.Amount.Format())
	}
	switch txn.Status {
	case model.TxnPending, model.TxnCompleted, model.TxnFailed, model.TxnCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, txn.Status)
	}
	return nil
}
