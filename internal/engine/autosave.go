package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/rules"
	"github.com/tobiloba/dailystash/internal/service"
)

// AutoSaveRunner walks the plans whose auto-save window is open and funds
// each one from its owner's wallet, running the KYC limit and contribution
// pipelines before any money moves. Per-plan failures are recorded as
// failed transactions and do not stop the run.
type AutoSaveRunner struct {
	plans     service.PlanStore
	txns      service.TransactionStore
	wallet    service.WalletService
	kyc       service.KYCService
	processor *Processor
	limits    model.LimitPolicy
	progress  func(done, total int)
}

// NewAutoSaveRunner wires a runner from the ports it drives.
func NewAutoSaveRunner(plans service.PlanStore, txns service.TransactionStore, wallet service.WalletService, kyc service.KYCService, processor *Processor, limits model.LimitPolicy) *AutoSaveRunner {
	return &AutoSaveRunner{
		plans:     plans,
		txns:      txns,
		wallet:    wallet,
		kyc:       kyc,
		processor: processor,
		limits:    limits,
	}
}

// OnProgress registers a callback invoked after each plan is handled.
func (r *AutoSaveRunner) OnProgress(fn func(done, total int)) {
	r.progress = fn
}

// RunStats summarizes one auto-save sweep.
type RunStats struct {
	Due    int
	Saved  int
	Failed int
}

// Run processes every plan currently due for auto-save.
func (r *AutoSaveRunner) Run(ctx context.Context) (RunStats, error) {
	now := r.processor.now()
	due, err := r.plans.GetPlansDueForAutoSave(ctx, now)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to find plans due for auto-save: %w", err)
	}

	stats := RunStats{Due: len(due)}
	if len(due) == 0 {
		slog.Info("No plans due for auto-save")
		return stats, nil
	}

	slog.Info("Starting auto-save run", "due", len(due))

	for i, plan := range due {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if err := r.runOne(ctx, plan); err != nil {
			stats.Failed++
			slog.Error("Auto-save failed",
				"plan_id", plan.ID,
				"user_id", plan.UserID,
				"error", err)
		} else {
			stats.Saved++
		}

		if r.progress != nil {
			r.progress(i+1, len(due))
		}
	}

	slog.Info("Auto-save run finished", "due", stats.Due, "saved", stats.Saved, "failed", stats.Failed)
	return stats, nil
}

// runOne processes a single due plan. A rule violation or entity rejection
// still persists the failed transaction for the audit trail; only
// infrastructure errors propagate.
func (r *AutoSaveRunner) runOne(ctx context.Context, plan model.SavingsPlan) error {
	txn, err := model.NewAutoSave(plan.UserID, plan.ID, plan.DailyAmount)
	if err != nil {
		return fmt.Errorf("failed to create auto-save transaction: %w", err)
	}

	balance, err := r.wallet.Balance(ctx, plan.UserID)
	if err != nil {
		return fmt.Errorf("failed to read wallet balance: %w", err)
	}
	tier, err := r.kyc.TierFor(ctx, plan.UserID)
	if err != nil {
		return fmt.Errorf("failed to read KYC tier: %w", err)
	}
	now := r.processor.now()
	dailyTotal, err := r.txns.DailyTotal(ctx, plan.UserID, now)
	if err != nil {
		return fmt.Errorf("failed to read daily total: %w", err)
	}
	monthlyTotal, err := r.txns.MonthlyTotal(ctx, plan.UserID, now)
	if err != nil {
		return fmt.Errorf("failed to read monthly total: %w", err)
	}

	ruleCtx := rules.Context{
		Now:           now,
		UserID:        plan.UserID,
		Plan:          &plan,
		Transaction:   txn,
		WalletBalance: balance,
		DailyTotal:    dailyTotal,
		MonthlyTotal:  monthlyTotal,
		Tier:          tier,
		Limits:        r.limits,
	}
	if violation := rules.Run(ruleCtx, rules.TransactionLimitPipeline()); violation != nil {
		return r.recordFailure(ctx, txn, violation.Error())
	}

	result, err := r.processor.ProcessAutoSave(txn, plan, balance)
	if err != nil {
		return err
	}

	if err := r.txns.SaveTransaction(ctx, &result.Transaction); err != nil {
		return fmt.Errorf("failed to save auto-save transaction: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("auto-save rejected: %s", result.Message)
	}

	if err := r.wallet.Debit(ctx, plan.UserID, txn.Amount); err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if err := r.plans.UpdatePlan(ctx, result.Plan); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	slog.Debug("Auto-save applied",
		"plan_id", plan.ID,
		"amount", txn.Amount.Format(),
		"streak", result.Plan.Streak)
	return nil
}

func (r *AutoSaveRunner) recordFailure(ctx context.Context, txn model.Transaction, reason string) error {
	failedTxn, err := txn.Fail(reason)
	if err != nil {
		return err
	}
	if err := r.txns.SaveTransaction(ctx, &failedTxn); err != nil {
		return fmt.Errorf("failed to save failed transaction: %w", err)
	}
	return fmt.Errorf("auto-save rejected: %s", reason)
}
