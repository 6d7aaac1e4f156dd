package rules

import (
	"fmt"

	"github.com/tobiloba/dailystash/internal/model"
)

// Absolute contribution bounds, independent of any plan.
const (
	MinContributionAmount = 10
	MaxContributionAmount = 50_000
)

// ContributionPipeline returns the ordered rules gating a contribution:
// ownership, plan capacity/status, wallet balance (wallet-funded only),
// then the absolute amount bounds.
func ContributionPipeline() []Rule {
	return []Rule{
		planOwnership(OpContribution),
		contributionEligibility,
		walletBalanceForContribution,
		amountAtLeast(OpContribution, MinContributionAmount),
		amountAtMost(OpContribution, MaxContributionAmount),
	}
}

// contributionEligibility defers to the plan's own contribution rules:
// active status, exact daily amount, target not yet reached.
func contributionEligibility(c Context) *Violation {
	if c.Plan == nil {
		return c.violation(OpContribution, CodePlanIneligible, "no plan supplied")
	}
	if c.Plan.CanMakeContribution(c.Transaction.Amount) {
		return nil
	}
	if c.Plan.Status != model.PlanActive {
		return c.violation(OpContribution, CodeStatus,
			fmt.Sprintf("plan %s is %s and cannot accept contributions", c.Plan.ID, c.Plan.Status))
	}
	return c.violation(OpContribution, CodePlanIneligible,
		fmt.Sprintf("plan %s cannot accept a contribution of %s (daily amount %s, current %s, target %s)",
			c.Plan.ID, c.Transaction.Amount.Format(), c.Plan.DailyAmount.Format(),
			c.Plan.CurrentAmount.Format(), c.Plan.TargetAmount.Format()))
}

// walletBalanceForContribution checks wallet sufficiency, but only when the
// contribution is funded from the wallet.
func walletBalanceForContribution(c Context) *Violation {
	if c.Transaction.Source != model.SourceWallet {
		return nil
	}
	ok, err := c.WalletBalance.GreaterThanOrEqual(c.Transaction.Amount)
	if err != nil {
		return c.violation(OpContribution, CodeInvalidAmount, err.Error())
	}
	if !ok {
		v := c.violation(OpContribution, CodeInsufficientBalance,
			fmt.Sprintf("wallet balance %s cannot cover contribution of %s",
				c.WalletBalance.Format(), c.Transaction.Amount.Format()))
		v.Available = c.WalletBalance
		return v
	}
	return nil
}
