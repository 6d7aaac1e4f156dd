// Package service defines the ports the savings core exposes to its
// collaborators. Implementations live elsewhere; the entities and
// validators never call these directly.
package service

import (
	"context"
	"time"

	"github.com/tobiloba/dailystash/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// PlanStore is the persistence port for savings plans. UpdatePlan must
// check-and-increment the plan's version atomically and reject a write
// when the stored version has moved.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *model.SavingsPlan) error
	GetPlan(ctx context.Context, id model.PlanID) (*model.SavingsPlan, error)
	GetPlansByUser(ctx context.Context, userID model.UserID) ([]model.SavingsPlan, error)
	GetActivePlansByUser(ctx context.Context, userID model.UserID) ([]model.SavingsPlan, error)
	UpdatePlan(ctx context.Context, plan *model.SavingsPlan) error
	GetPlansByStatus(ctx context.Context, status model.PlanStatus) ([]model.SavingsPlan, error)
	GetPlansDueForAutoSave(ctx context.Context, at time.Time) ([]model.SavingsPlan, error)
	GetPlansAwaitingInterest(ctx context.Context) ([]model.SavingsPlan, error)
}

// TransactionStore is the persistence port for transactions. SaveTransaction
// must reject a duplicate reference.
type TransactionStore interface {
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id model.TransactionID) (*model.Transaction, error)
	GetTransactionsByUser(ctx context.Context, userID model.UserID, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsByPlan(ctx context.Context, planID model.PlanID) ([]model.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*model.Transaction, error)
	GetTransactionsByStatus(ctx context.Context, status model.TransactionStatus) ([]model.Transaction, error)
	GetStaleTransactions(ctx context.Context, olderThan time.Time) ([]model.Transaction, error)
	DailyTotal(ctx context.Context, userID model.UserID, day time.Time) (model.Money, error)
	MonthlyTotal(ctx context.Context, userID model.UserID, month time.Time) (model.Money, error)
}

// WalletService is the port to the user's wallet balance.
type WalletService interface {
	Balance(ctx context.Context, userID model.UserID) (model.Money, error)
	Credit(ctx context.Context, userID model.UserID, amount model.Money) error
	Debit(ctx context.Context, userID model.UserID, amount model.Money) error
	HasSufficientBalance(ctx context.Context, userID model.UserID, amount model.Money) (bool, error)
}

// KYCService reports a user's current verification tier.
type KYCService interface {
	TierFor(ctx context.Context, userID model.UserID) (model.KYCTier, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
