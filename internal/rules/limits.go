package rules

import (
	"fmt"
)

// TransactionLimitPipeline returns the ordered KYC-tier ceiling checks:
// daily, then monthly, then single-transaction. All boundaries are
// inclusive: a total exactly at the limit passes.
func TransactionLimitPipeline() []Rule {
	return []Rule{
		dailyLimit,
		monthlyLimit,
		singleTransactionLimit,
	}
}

func (c Context) limitViolation(limitType LimitType, message string) *Violation {
	v := c.violation(OpTransactionLimit, CodeKYCLimit, message)
	v.LimitType = limitType
	v.Tier = c.Tier
	if limits, ok := c.Limits.For(c.Tier); ok {
		switch limitType {
		case LimitDaily:
			v.Limit = limits.Daily
		case LimitMonthly:
			v.Limit = limits.Monthly
		case LimitSingle:
			v.Limit = limits.Single
		}
	}
	return v
}

func dailyLimit(c Context) *Violation {
	limits, ok := c.Limits.For(c.Tier)
	if !ok {
		return c.limitViolation(LimitDaily, fmt.Sprintf("no limits configured for tier %q", c.Tier))
	}
	projected, err := c.DailyTotal.Add(c.Transaction.Amount)
	if err != nil {
		return c.violation(OpTransactionLimit, CodeInvalidAmount, err.Error())
	}
	within, err := projected.LessThanOrEqual(limits.Daily)
	if err != nil {
		return c.violation(OpTransactionLimit, CodeInvalidAmount, err.Error())
	}
	if !within {
		return c.limitViolation(LimitDaily,
			fmt.Sprintf("transaction of %s would bring today's total to %s, over the %s tier daily limit of %s",
				c.Transaction.Amount.Format(), projected.Format(), c.Tier, limits.Daily.Format()))
	}
	return nil
}

func monthlyLimit(c Context) *Violation {
	limits, ok := c.Limits.For(c.Tier)
	if !ok {
		return c.limitViolation(LimitMonthly, fmt.Sprintf("no limits configured for tier %q", c.Tier))
	}
	projected, err := c.MonthlyTotal.Add(c.Transaction.Amount)
	if err != nil {
		return c.violation(OpTransactionLimit, CodeInvalidAmount, err.Error())
	}
	within, err := projected.LessThanOrEqual(limits.Monthly)
	if err != nil {
		return c.violation(OpTransactionLimit, CodeInvalidAmount, err.Error())
	}
	if !within {
		return c.limitViolation(LimitMonthly,
			fmt.Sprintf("transaction of %s would bring this month's total to %s, over the %s tier monthly limit of %s",
				c.Transaction.Amount.Format(), projected.Format(), c.Tier, limits.Monthly.Format()))
	}
	return nil
}

func singleTransactionLimit(c Context) *Violation {
	limits, ok := c.Limits.For(c.Tier)
	if !ok {
		return c.limitViolation(LimitSingle, fmt.Sprintf("no limits configured for tier %q", c.Tier))
	}
	within, err := c.Transaction.Amount.LessThanOrEqual(limits.Single)
	if err != nil {
		return c.violation(OpTransactionLimit, CodeInvalidAmount, err.Error())
	}
	if !within {
		return c.limitViolation(LimitSingle,
			fmt.Sprintf("transaction of %s exceeds the %s tier single-transaction limit of %s",
				c.Transaction.Amount.Format(), c.Tier, limits.Single.Format()))
	}
	return nil
}
