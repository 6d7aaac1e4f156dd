package rules

import (
	"fmt"
)

// Absolute withdrawal bounds.
const (
	MinWithdrawalAmount = 100
	MaxWithdrawalAmount = 1_000_000
)

// WithdrawalPipeline returns the ordered rules gating a plan withdrawal:
// ownership, eligibility (matured/completed or early), balance sufficiency,
// minimum-balance preservation, then the absolute amount bounds.
func WithdrawalPipeline() []Rule {
	return []Rule{
		planOwnership(OpWithdrawal),
		withdrawalEligibility,
		withdrawalBalance,
		minimumBalanceFloor,
		amountAtLeast(OpWithdrawal, MinWithdrawalAmount),
		amountAtMost(OpWithdrawal, MaxWithdrawalAmount),
	}
}

// WalletWithdrawalPipeline returns the ordered rules gating a withdrawal
// straight from the wallet, with no plan involved: wallet balance
// sufficiency, then the absolute amount bounds.
func WalletWithdrawalPipeline() []Rule {
	return []Rule{
		walletWithdrawalBalance,
		amountAtLeast(OpWithdrawal, MinWithdrawalAmount),
		amountAtMost(OpWithdrawal, MaxWithdrawalAmount),
	}
}

// walletWithdrawalBalance rejects withdrawals above the wallet balance.
func walletWithdrawalBalance(c Context) *Violation {
	ok, err := c.Transaction.Amount.LessThanOrEqual(c.WalletBalance)
	if err != nil {
		return c.violation(OpWithdrawal, CodeInvalidAmount, err.Error())
	}
	if !ok {
		v := c.violation(OpWithdrawal, CodeInsufficientBalance,
			fmt.Sprintf("withdrawal of %s exceeds wallet balance of %s",
				c.Transaction.Amount.Format(), c.WalletBalance.Format()))
		v.Available = c.WalletBalance
		return v
	}
	return nil
}

// withdrawalEligibility allows regular withdrawal from a completed or
// matured plan, or a penalized early withdrawal from an active one.
func withdrawalEligibility(c Context) *Violation {
	if c.Plan == nil {
		return c.violation(OpWithdrawal, CodeStatus, "no plan supplied")
	}
	if c.Plan.CanWithdrawAt(c.Now) || c.Plan.CanEarlyWithdraw() {
		return nil
	}
	return c.violation(OpWithdrawal, CodeStatus,
		fmt.Sprintf("plan %s is %s and not eligible for withdrawal", c.Plan.ID, c.Plan.Status))
}

// withdrawalBalance rejects withdrawals above the plan's current amount.
func withdrawalBalance(c Context) *Violation {
	ok, err := c.Transaction.Amount.LessThanOrEqual(c.Plan.CurrentAmount)
	if err != nil {
		return c.violation(OpWithdrawal, CodeInvalidAmount, err.Error())
	}
	if !ok {
		v := c.violation(OpWithdrawal, CodeInsufficientBalance,
			fmt.Sprintf("withdrawal of %s exceeds plan balance of %s",
				c.Transaction.Amount.Format(), c.Plan.CurrentAmount.Format()))
		v.Available = c.Plan.CurrentAmount
		return v
	}
	return nil
}

// minimumBalanceFloor rejects withdrawals that would breach the plan's
// minimum balance.
func minimumBalanceFloor(c Context) *Violation {
	if c.Plan.CanWithdrawAmount(c.Transaction.Amount) {
		return nil
	}
	v := c.violation(OpWithdrawal, CodeMinimumBalance,
		fmt.Sprintf("withdrawal of %s would breach the minimum balance of %s (withdrawable: %s)",
			c.Transaction.Amount.Format(), c.Plan.MinimumBalance.Format(), c.Plan.WithdrawableAmount().Format()))
	v.Available = c.Plan.WithdrawableAmount()
	v.Limit = c.Plan.MinimumBalance
	return v
}
