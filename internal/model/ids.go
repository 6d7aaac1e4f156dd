package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Identifier kinds are distinct types so a user id can never be passed where
// a plan id is expected. Conversions are deliberate and explicit.

// UserID identifies an account holder.
type UserID string

// PlanID identifies a savings plan.
type PlanID string

// TransactionID identifies a money movement record.
type TransactionID string

// WalletID identifies a user's wallet.
type WalletID string

// NewUserID generates a fresh user identifier.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// NewPlanID generates a fresh plan identifier.
func NewPlanID() PlanID {
	return PlanID(uuid.NewString())
}

// NewTransactionID generates a fresh transaction identifier.
func NewTransactionID() TransactionID {
	return TransactionID(uuid.NewString())
}

// NewWalletID generates a fresh wallet identifier.
func NewWalletID() WalletID {
	return WalletID(uuid.NewString())
}

// ParseUserID validates an externally supplied user id.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return "", fmt.Errorf("user id is required")
	}
	return UserID(s), nil
}

// ParsePlanID validates an externally supplied plan id.
func ParsePlanID(s string) (PlanID, error) {
	if s == "" {
		return "", fmt.Errorf("plan id is required")
	}
	return PlanID(s), nil
}

// ParseTransactionID validates an externally supplied transaction id.
func ParseTransactionID(s string) (TransactionID, error) {
	if s == "" {
		return "", fmt.Errorf("transaction id is required")
	}
	return TransactionID(s), nil
}

func (id UserID) String() string        { return string(id) }
func (id PlanID) String() string        { return string(id) }
func (id TransactionID) String() string { return string(id) }
func (id WalletID) String() string      { return string(id) }
