// Package rules implements the composable validation pipelines that gate
// every money movement. Each rule is a pure function over a Context; a
// pipeline runs its rules in a fixed order and stops at the first failure.
// Rules never have side effects and never touch persistence.
package rules

import (
	"fmt"
	"time"

	"github.com/tobiloba/dailystash/internal/model"
)

// Operation names the money movement a pipeline guards.
type Operation string

// Guarded operations.
const (
	OpContribution     Operation = "contribution"
	OpWithdrawal       Operation = "withdrawal"
	OpWalletFunding    Operation = "wallet_funding"
	OpTransactionLimit Operation = "transaction_limit"
)

// Code classifies why a rule failed.
type Code string

// Violation codes.
const (
	CodeOwnership            Code = "ownership"
	CodeStatus               Code = "status"
	CodePlanIneligible       Code = "plan_ineligible"
	CodeInsufficientBalance  Code = "insufficient_balance"
	CodeMinimumBalance       Code = "minimum_balance"
	CodeKYCLimit             Code = "kyc_limit"
	CodeInvalidPaymentSource Code = "invalid_payment_source"
	CodeInvalidAmount        Code = "invalid_amount"
)

// LimitType identifies which KYC ceiling a transaction violated.
type LimitType string

// Limit types.
const (
	LimitDaily   LimitType = "daily"
	LimitMonthly LimitType = "monthly"
	LimitSingle  LimitType = "single"
)

// Violation is the structured failure a rule returns. It carries enough
// context for callers to render a precise rejection reason.
type Violation struct {
	Requested model.Money
	Available model.Money
	Limit     model.Money
	UserID    model.UserID
	PlanID    model.PlanID
	Message   string
	Op        Operation
	Code      Code
	LimitType LimitType
	Tier      model.KYCTier
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s validation failed (%s): %s", v.Op, v.Code, v.Message)
}

// Context carries everything the rules may inspect. The caller assembles it
// from the proposed transaction, the relevant plan, and contextual data
// (wallet balance, KYC tier, running totals). A nil Plan means the operation
// has no plan (e.g. wallet funding or wallet-only withdrawal).
type Context struct {
	Now           time.Time
	Plan          *model.SavingsPlan
	Limits        model.LimitPolicy
	Transaction   model.Transaction
	WalletBalance model.Money
	DailyTotal    model.Money
	MonthlyTotal  model.Money
	UserID        model.UserID
	Tier          model.KYCTier
}

// Rule is one pure check. A nil return means the rule passed.
type Rule func(c Context) *Violation

// Run evaluates a pipeline in order and returns the first violation, or nil
// when every rule passes. Earlier rules are structural (ownership, status)
// and must not be masked by later numeric checks, so ordering matters.
func Run(c Context, pipeline []Rule) *Violation {
	if c.Now.IsZero() {
		c.Now = time.Now().UTC()
	}
	for _, rule := range pipeline {
		if v := rule(c); v != nil {
			return v
		}
	}
	return nil
}

// violation fills the shared fields every rule reports.
func (c Context) violation(op Operation, code Code, message string) *Violation {
	v := &Violation{
		Op:        op,
		Code:      code,
		Message:   message,
		UserID:    c.UserID,
		Requested: c.Transaction.Amount,
	}
	if c.Plan != nil {
		v.PlanID = c.Plan.ID
	}
	return v
}

// planOwnership verifies the plan belongs to the acting user.
func planOwnership(op Operation) Rule {
	return func(c Context) *Violation {
		if c.Plan == nil {
			return c.violation(op, CodeOwnership, "no plan supplied")
		}
		if c.Plan.UserID != c.UserID {
			return c.violation(op, CodeOwnership,
				fmt.Sprintf("plan %s does not belong to user %s", c.Plan.ID, c.UserID))
		}
		return nil
	}
}

// amountAtLeast rejects amounts below the floor.
func amountAtLeast(op Operation, floor float64) Rule {
	return func(c Context) *Violation {
		min := model.MustMoney(floor, c.Transaction.Amount.Currency())
		ok, err := c.Transaction.Amount.GreaterThanOrEqual(min)
		if err != nil {
			return c.violation(op, CodeInvalidAmount, err.Error())
		}
		if !ok {
			v := c.violation(op, CodeInvalidAmount,
				fmt.Sprintf("amount %s is below the minimum of %s", c.Transaction.Amount.Format(), min.Format()))
			v.Limit = min
			return v
		}
		return nil
	}
}

// amountAtMost rejects amounts above the ceiling.
func amountAtMost(op Operation, ceiling float64) Rule {
	return func(c Context) *Violation {
		max := model.MustMoney(ceiling, c.Transaction.Amount.Currency())
		ok, err := c.Transaction.Amount.LessThanOrEqual(max)
		if err != nil {
			return c.violation(op, CodeInvalidAmount, err.Error())
		}
		if !ok {
			v := c.violation(op, CodeInvalidAmount,
				fmt.Sprintf("amount %s is above the maximum of %s", c.Transaction.Amount.Format(), max.Format()))
			v.Limit = max
			return v
		}
		return nil
	}
}
