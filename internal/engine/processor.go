// Package engine orchestrates validated money movements: it turns a proposed
// transaction plus a plan into a new, consistent pair of snapshots. Entity
// invariant violations are caught here and converted into failed
// transactions; they never propagate as faults.
package engine

import (
	"fmt"
	"time"

	"github.com/tobiloba/dailystash/internal/model"
)

// Processor applies validated transactions to plans. It is stateless apart
// from its clock, which is injectable for tests.
type Processor struct {
	now func() time.Time
}

// NewProcessor creates a processor using the wall clock.
func NewProcessor() *Processor {
	return NewProcessorWithClock(func() time.Time { return time.Now().UTC() })
}

// NewProcessorWithClock creates a processor with a custom clock.
func NewProcessorWithClock(now func() time.Time) *Processor {
	return &Processor{now: now}
}

// Result is the outcome of processing one transaction. On failure the
// Transaction is the failed snapshot and Plan (when present) is the
// original, untouched plan.
type Result struct {
	Plan        *model.SavingsPlan
	Message     string
	Transaction model.Transaction
	Disbursed   model.Money
	Penalty     model.Money
	Success     bool
}

// failed converts an entity-level failure into a failed transaction result.
func failed(txn model.Transaction, plan *model.SavingsPlan, reason string) (Result, error) {
	failedTxn, err := txn.Fail(reason)
	if err != nil {
		// The transaction was pending when we started, so this cannot happen
		return Result{}, fmt.Errorf("could not mark transaction %s failed: %w", txn.ID, err)
	}
	return Result{
		Transaction: failedTxn,
		Plan:        plan,
		Message:     reason,
	}, nil
}

// ProcessContribution applies a pending contribution (manual or auto-save)
// to its plan. Entity-level rejections produce a failed transaction, not an
// error; errors indicate caller misuse.
func (p *Processor) ProcessContribution(txn model.Transaction, plan model.SavingsPlan) (Result, error) {
	if txn.Status != model.TxnPending {
		return Result{}, fmt.Errorf("transaction %s is %s, expected pending", txn.ID, txn.Status)
	}
	if !txn.IsCredit() || (txn.Type != model.TypeContribution && txn.Type != model.TypeAutoSave) {
		return Result{}, fmt.Errorf("transaction %s has type %s, expected a contribution", txn.ID, txn.Type)
	}

	updatedPlan, err := plan.MakeContribution(txn.Amount)
	if err != nil {
		return failed(txn, &plan, err.Error())
	}

	completedTxn, err := txn.Complete()
	if err != nil {
		return Result{}, fmt.Errorf("could not complete transaction %s: %w", txn.ID, err)
	}

	message := fmt.Sprintf("Contribution of %s applied to plan %q", txn.Amount.Format(), plan.Name)
	if updatedPlan.Status == model.PlanCompleted {
		message = fmt.Sprintf("Contribution of %s applied; plan %q reached its target", txn.Amount.Format(), plan.Name)
	}

	return Result{
		Success:     true,
		Transaction: completedTxn,
		Plan:        &updatedPlan,
		Disbursed:   model.Zero(txn.Amount.Currency()),
		Penalty:     model.Zero(txn.Amount.Currency()),
		Message:     message,
	}, nil
}

// ProcessWithdrawal applies a pending withdrawal. With a plan that is only
// eligible for early withdrawal, the disbursed amount is the transaction
// amount minus the 5% penalty while the plan is reduced by the full amount;
// the penalty is absorbed into the reduced disbursement rather than recorded
// as a separate transaction. Without a plan this is a wallet-only
// withdrawal with no plan mutation.
func (p *Processor) ProcessWithdrawal(txn model.Transaction, plan *model.SavingsPlan) (Result, error) {
	if txn.Status != model.TxnPending {
		return Result{}, fmt.Errorf("transaction %s is %s, expected pending", txn.ID, txn.Status)
	}
	if !txn.IsDebit() || txn.Type != model.TypeWithdrawal {
		return Result{}, fmt.Errorf("transaction %s has type %s, expected a withdrawal", txn.ID, txn.Type)
	}

	currency := txn.Amount.Currency()

	if plan == nil {
		completedTxn, err := txn.Complete()
		if err != nil {
			return Result{}, fmt.Errorf("could not complete transaction %s: %w", txn.ID, err)
		}
		return Result{
			Success:     true,
			Transaction: completedTxn,
			Disbursed:   txn.Amount,
			Penalty:     model.Zero(currency),
			Message:     fmt.Sprintf("Wallet withdrawal of %s processed", txn.Amount.Format()),
		}, nil
	}

	penalty := model.Zero(currency)
	if !plan.CanWithdrawAt(p.now()) && plan.CanEarlyWithdraw() {
		penalty = plan.EarlyWithdrawalPenalty()
	}

	updatedPlan, err := plan.Withdraw(txn.Amount)
	if err != nil {
		return failed(txn, plan, err.Error())
	}

	disbursed, err := txn.Amount.Subtract(penalty)
	if err != nil {
		return failed(txn, plan, fmt.Sprintf("penalty of %s exceeds withdrawal amount: %v", penalty.Format(), err))
	}

	completedTxn, err := txn.Complete()
	if err != nil {
		return Result{}, fmt.Errorf("could not complete transaction %s: %w", txn.ID, err)
	}

	message := fmt.Sprintf("Withdrawal of %s processed from plan %q", txn.Amount.Format(), plan.Name)
	if !penalty.IsZero() {
		message = fmt.Sprintf("Early withdrawal of %s processed from plan %q; %s penalty applied, %s disbursed",
			txn.Amount.Format(), plan.Name, penalty.Format(), disbursed.Format())
	}

	return Result{
		Success:     true,
		Transaction: completedTxn,
		Plan:        &updatedPlan,
		Disbursed:   disbursed,
		Penalty:     penalty,
		Message:     message,
	}, nil
}

// ProcessAutoSave applies a pending auto-save. Outside the plan's auto-save
// window or without sufficient wallet balance it fails the transaction
// rather than returning an error.
func (p *Processor) ProcessAutoSave(txn model.Transaction, plan model.SavingsPlan, walletBalance model.Money) (Result, error) {
	if txn.Status != model.TxnPending {
		return Result{}, fmt.Errorf("transaction %s is %s, expected pending", txn.ID, txn.Status)
	}
	if txn.Type != model.TypeAutoSave {
		return Result{}, fmt.Errorf("transaction %s has type %s, expected an auto-save", txn.ID, txn.Type)
	}

	if !plan.IsAutoSaveTimeAt(p.now()) {
		return failed(txn, &plan, fmt.Sprintf("plan %q is not within its auto-save window", plan.Name))
	}

	sufficient, err := walletBalance.GreaterThanOrEqual(txn.Amount)
	if err != nil {
		return failed(txn, &plan, err.Error())
	}
	if !sufficient {
		return failed(txn, &plan, fmt.Sprintf("wallet balance %s cannot cover auto-save of %s",
			walletBalance.Format(), txn.Amount.Format()))
	}

	return p.ProcessContribution(txn, plan)
}

// CalculateAndProcessInterest constructs and immediately completes an
// interest transaction for a completed plan. It returns nil when the plan
// is not completed, its rate is zero, or the computed interest is zero.
// The plan itself is not mutated; the caller applies the credit.
func (p *Processor) CalculateAndProcessInterest(plan model.SavingsPlan, userID model.UserID) (*model.Transaction, error) {
	if plan.Status != model.PlanCompleted || plan.InterestRate == 0 {
		return nil, nil
	}

	interest := plan.InterestEarnedAt(p.now())
	if interest.IsZero() {
		return nil, nil
	}

	txn, err := model.NewInterestCredit(userID, plan.ID, interest)
	if err != nil {
		return nil, fmt.Errorf("could not create interest transaction: %w", err)
	}
	completed, err := txn.Complete()
	if err != nil {
		return nil, fmt.Errorf("could not complete interest transaction: %w", err)
	}
	return &completed, nil
}

// ProcessReversal creates and completes a transaction of the opposite
// credit/debit type for the same amount. Only a completed transaction can
// be reversed.
func (p *Processor) ProcessReversal(original model.Transaction, reason string) (model.Transaction, error) {
	if original.Status != model.TxnCompleted {
		return model.Transaction{}, fmt.Errorf("cannot reverse transaction %s in status %s", original.ID, original.Status)
	}

	reversal, err := model.NewReversal(original, reason)
	if err != nil {
		return model.Transaction{}, err
	}
	completed, err := reversal.Complete()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("could not complete reversal of %s: %w", original.ID, err)
	}
	return completed, nil
}
