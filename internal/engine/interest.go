package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tobiloba/dailystash/internal/service"
)

// InterestRunner pays out accrued interest on completed plans. The
// processor only constructs the interest transaction; applying the credit
// (wallet deposit plus marking the plan paid) happens here.
type InterestRunner struct {
	plans     service.PlanStore
	txns      service.TransactionStore
	wallet    service.WalletService
	processor *Processor
}

// NewInterestRunner wires a runner from the ports it drives.
func NewInterestRunner(plans service.PlanStore, txns service.TransactionStore, wallet service.WalletService, processor *Processor) *InterestRunner {
	return &InterestRunner{
		plans:     plans,
		txns:      txns,
		wallet:    wallet,
		processor: processor,
	}
}

// InterestStats summarizes one interest sweep.
type InterestStats struct {
	Eligible int
	Paid     int
	Skipped  int
	Failed   int
}

// Run pays interest on every completed plan still awaiting it.
func (r *InterestRunner) Run(ctx context.Context) (InterestStats, error) {
	plans, err := r.plans.GetPlansAwaitingInterest(ctx)
	if err != nil {
		return InterestStats{}, fmt.Errorf("failed to find plans awaiting interest: %w", err)
	}

	stats := InterestStats{Eligible: len(plans)}
	if len(plans) == 0 {
		slog.Info("No plans awaiting interest")
		return stats, nil
	}

	for _, plan := range plans {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		txn, err := r.processor.CalculateAndProcessInterest(plan, plan.UserID)
		if err != nil {
			stats.Failed++
			slog.Error("Interest calculation failed", "plan_id", plan.ID, "error", err)
			continue
		}
		if txn == nil {
			// Nothing accrued yet; the plan stays eligible for the next run
			stats.Skipped++
			continue
		}

		if err := r.txns.SaveTransaction(ctx, txn); err != nil {
			stats.Failed++
			slog.Error("Failed to save interest transaction", "plan_id", plan.ID, "error", err)
			continue
		}
		if err := r.wallet.Credit(ctx, plan.UserID, txn.Amount); err != nil {
			stats.Failed++
			slog.Error("Failed to credit wallet with interest", "plan_id", plan.ID, "error", err)
			continue
		}

		paid, err := plan.MarkInterestPaid()
		if err != nil {
			stats.Failed++
			slog.Error("Failed to mark interest paid", "plan_id", plan.ID, "error", err)
			continue
		}
		if err := r.plans.UpdatePlan(ctx, &paid); err != nil {
			stats.Failed++
			slog.Error("Failed to update plan after interest", "plan_id", plan.ID, "error", err)
			continue
		}

		stats.Paid++
		slog.Info("Interest paid", "plan_id", plan.ID, "amount", txn.Amount.Format())
	}

	return stats, nil
}
