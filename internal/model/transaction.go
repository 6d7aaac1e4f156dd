package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a money movement.
type TransactionType string

// Transaction type constants.
const (
	TypeContribution     TransactionType = "contribution"
	TypeWithdrawal       TransactionType = "withdrawal"
	TypeInterest         TransactionType = "interest"
	TypePenalty          TransactionType = "penalty"
	TypeWalletFunding    TransactionType = "wallet_funding"
	TypeWalletWithdrawal TransactionType = "wallet_withdrawal"
	TypeAutoSave         TransactionType = "auto_save"
)

// TransactionStatus indicates where a transaction is in its lifecycle.
// Transitions are one-directional: pending moves to exactly one terminal
// state and repeated terminal transitions fail.
type TransactionStatus string

// Transaction status constants.
const (
	TxnPending   TransactionStatus = "pending"
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
	TxnCancelled TransactionStatus = "cancelled"
)

// PaymentSource identifies where the money for a transaction comes from.
type PaymentSource string

// Payment source constants.
const (
	SourceWallet       PaymentSource = "wallet"
	SourceCard         PaymentSource = "card"
	SourceBankTransfer PaymentSource = "bank_transfer"
	SourceUSSD         PaymentSource = "ussd"
)

// MaxReferenceLength bounds the unique transaction reference.
const MaxReferenceLength = 100

var defaultDescriptions = map[TransactionType]string{
	TypeContribution:     "Daily savings contribution",
	TypeWithdrawal:       "Savings withdrawal",
	TypeInterest:         "Interest earned",
	TypePenalty:          "Early withdrawal penalty",
	TypeWalletFunding:    "Wallet funding",
	TypeWalletWithdrawal: "Wallet withdrawal",
	TypeAutoSave:         "Automatic daily savings",
}

// Transaction represents one money movement. Like SavingsPlan, mutating
// methods return a new snapshot rather than modifying the receiver.
type Transaction struct {
	CreatedAt     time.Time
	CompletedAt   *time.Time
	FailedAt      *time.Time
	Metadata      map[string]string
	Amount        Money
	ID            TransactionID
	UserID        UserID
	PlanID        PlanID
	Reference     string
	Description   string
	FailureReason string
	Type          TransactionType
	Status        TransactionStatus
	Source        PaymentSource
}

func newTransaction(txnType TransactionType, userID UserID, planID PlanID, amount Money, source PaymentSource) (Transaction, error) {
	if userID == "" {
		return Transaction{}, fmt.Errorf("user id is required")
	}
	reference := fmt.Sprintf("TXN-%s", uuid.NewString())
	if err := ValidateReference(reference); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:        NewTransactionID(),
		UserID:    userID,
		PlanID:    planID,
		Amount:    amount,
		Type:      txnType,
		Status:    TxnPending,
		Source:    source,
		Reference: reference,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateReference checks the uniqueness key constraints the core owns:
// non-empty and at most 100 characters. Global uniqueness is enforced by
// the persistence boundary.
func ValidateReference(reference string) error {
	if reference == "" {
		return fmt.Errorf("reference is required")
	}
	if len(reference) > MaxReferenceLength {
		return fmt.Errorf("reference must be at most %d characters, got %d", MaxReferenceLength, len(reference))
	}
	return nil
}

// NewContribution creates a pending contribution to a plan.
func NewContribution(userID UserID, planID PlanID, amount Money, source PaymentSource) (Transaction, error) {
	if planID == "" {
		return Transaction{}, fmt.Errorf("plan id is required for a contribution")
	}
	txn, err := newTransaction(TypeContribution, userID, planID, amount, source)
	if err != nil {
		return Transaction{}, err
	}
	txn.Metadata["channel"] = string(source)
	return txn, nil
}

// NewWithdrawal creates a pending withdrawal. PlanID may be empty for a
// wallet-only withdrawal.
func NewWithdrawal(userID UserID, planID PlanID, amount Money) (Transaction, error) {
	return newTransaction(TypeWithdrawal, userID, planID, amount, SourceWallet)
}

// NewWalletFunding creates a pending wallet top-up from an external source.
func NewWalletFunding(userID UserID, amount Money, source PaymentSource) (Transaction, error) {
	txn, err := newTransaction(TypeWalletFunding, userID, "", amount, source)
	if err != nil {
		return Transaction{}, err
	}
	txn.Metadata["channel"] = string(source)
	return txn, nil
}

// NewAutoSave creates a pending automatic contribution funded from the wallet.
func NewAutoSave(userID UserID, planID PlanID, amount Money) (Transaction, error) {
	if planID == "" {
		return Transaction{}, fmt.Errorf("plan id is required for an auto-save")
	}
	txn, err := newTransaction(TypeAutoSave, userID, planID, amount, SourceWallet)
	if err != nil {
		return Transaction{}, err
	}
	txn.Metadata["trigger"] = "scheduled"
	return txn, nil
}

// NewInterestCredit creates a pending interest credit for a plan.
func NewInterestCredit(userID UserID, planID PlanID, amount Money) (Transaction, error) {
	return newTransaction(TypeInterest, userID, planID, amount, SourceWallet)
}

// reversalTypes maps each transaction type to its opposite credit/debit
// counterpart for reversals.
var reversalTypes = map[TransactionType]TransactionType{
	TypeContribution:     TypeWithdrawal,
	TypeAutoSave:         TypeWithdrawal,
	TypeWithdrawal:       TypeContribution,
	TypeInterest:         TypePenalty,
	TypePenalty:          TypeInterest,
	TypeWalletFunding:    TypeWalletWithdrawal,
	TypeWalletWithdrawal: TypeWalletFunding,
}

// NewReversal creates a pending transaction of the opposite credit/debit
// type for the same amount, tagged with a reference to the original and the
// given reason.
func NewReversal(original Transaction, reason string) (Transaction, error) {
	opposite, ok := reversalTypes[original.Type]
	if !ok {
		return Transaction{}, fmt.Errorf("transaction type %s cannot be reversed", original.Type)
	}
	txn, err := newTransaction(opposite, original.UserID, original.PlanID, original.Amount, original.Source)
	if err != nil {
		return Transaction{}, err
	}
	txn.Description = fmt.Sprintf("Reversal of %s: %s", original.Reference, reason)
	txn.Metadata["reversal_of"] = original.Reference
	txn.Metadata["reversal_reason"] = reason
	return txn, nil
}

// IsCredit reports whether the transaction adds money to the user's holdings.
func (t Transaction) IsCredit() bool {
	switch t.Type {
	case TypeContribution, TypeInterest, TypeWalletFunding, TypeAutoSave:
		return true
	default:
		return false
	}
}

// IsDebit reports whether the transaction removes money from the user's holdings.
func (t Transaction) IsDebit() bool {
	switch t.Type {
	case TypeWithdrawal, TypePenalty, TypeWalletWithdrawal:
		return true
	default:
		return false
	}
}

// Complete marks a pending transaction as successfully processed.
func (t Transaction) Complete() (Transaction, error) {
	if t.Status != TxnPending {
		return Transaction{}, fmt.Errorf("%w: cannot complete transaction in status %s", ErrInvalidTransition, t.Status)
	}
	now := time.Now().UTC()
	t.Status = TxnCompleted
	t.CompletedAt = &now
	return t, nil
}

// Fail marks a pending transaction as failed with the captured reason.
func (t Transaction) Fail(reason string) (Transaction, error) {
	if t.Status != TxnPending {
		return Transaction{}, fmt.Errorf("%w: cannot fail transaction in status %s", ErrInvalidTransition, t.Status)
	}
	now := time.Now().UTC()
	t.Status = TxnFailed
	t.FailedAt = &now
	t.FailureReason = reason
	return t, nil
}

// CanBeCancelled reports whether the user may still cancel the transaction.
func (t Transaction) CanBeCancelled() bool {
	return t.Status == TxnPending
}

// Cancel voids a still-pending transaction at the user's request.
func (t Transaction) Cancel() (Transaction, error) {
	if !t.CanBeCancelled() {
		return Transaction{}, fmt.Errorf("%w: cannot cancel transaction in status %s", ErrInvalidTransition, t.Status)
	}
	t.Status = TxnCancelled
	return t, nil
}

// ProcessingTime returns how long the transaction took to complete, or
// false if it has not completed.
func (t Transaction) ProcessingTime() (time.Duration, bool) {
	if t.CompletedAt == nil {
		return 0, false
	}
	return t.CompletedAt.Sub(t.CreatedAt), true
}

// DisplayDescription returns the explicit description when present, else a
// default keyed by type.
func (t Transaction) DisplayDescription() string {
	if t.Description != "" {
		return t.Description
	}
	if desc, ok := defaultDescriptions[t.Type]; ok {
		return desc
	}
	return string(t.Type)
}
