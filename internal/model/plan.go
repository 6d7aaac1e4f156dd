package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition indicates a state machine transition from a status
// that does not permit it.
var ErrInvalidTransition = errors.New("invalid state transition")

// PlanStatus indicates where a savings plan is in its lifecycle.
type PlanStatus string

// Plan status constants.
const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// Plan validation bounds.
const (
	MinPlanNameLength = 1
	MaxPlanNameLength = 100
	MinCycleDays      = 7
	MaxCycleDays      = 365
)

// earlyWithdrawalPenaltyRate is the fraction of the current amount forfeited
// on withdrawal from an active, unmatured plan.
var earlyWithdrawalPenaltyRate = decimal.NewFromFloat(0.05)

// autoSaveWindow is how far either side of the configured time an auto-save
// is considered due.
const autoSaveWindow = 5 * time.Minute

var autoSaveTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// SavingsPlan represents one time-boxed savings goal. Mutating methods are
// copy-on-write: they return a new snapshot with the version counter bumped
// and never modify the receiver. The persistence layer uses Version for
// optimistic concurrency.
type SavingsPlan struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartDate          time.Time
	EndDate            time.Time
	DailyAmount        Money
	TargetAmount       Money
	CurrentAmount      Money
	MinimumBalance     Money
	ID                 PlanID
	UserID             UserID
	Name               string
	AutoSaveTime       string
	Status             PlanStatus
	InterestRate       float64
	CycleDays          int
	Streak             int
	TotalContributions int
	Version            int64
	AutoSaveEnabled    bool
	InterestPaid       bool
}

// PlanParams holds the inputs for creating a new savings plan. TargetAmount
// and MinimumBalance are optional; a nil target defaults to
// DailyAmount x CycleDays and a nil minimum balance defaults to zero.
type PlanParams struct {
	TargetAmount    *Money
	MinimumBalance  *Money
	UserID          UserID
	Name            string
	AutoSaveTime    string
	DailyAmount     Money
	InterestRate    float64
	CycleDays       int
	AutoSaveEnabled bool
}

// NewSavingsPlan creates an active plan starting now, ending CycleDays later.
func NewSavingsPlan(p PlanParams) (SavingsPlan, error) {
	if p.UserID == "" {
		return SavingsPlan{}, fmt.Errorf("user id is required")
	}
	if len(p.Name) < MinPlanNameLength || len(p.Name) > MaxPlanNameLength {
		return SavingsPlan{}, fmt.Errorf("plan name must be between %d and %d characters", MinPlanNameLength, MaxPlanNameLength)
	}
	if p.CycleDays < MinCycleDays || p.CycleDays > MaxCycleDays {
		return SavingsPlan{}, fmt.Errorf("cycle duration must be between %d and %d days", MinCycleDays, MaxCycleDays)
	}
	if p.InterestRate < 0 || p.InterestRate > 1 {
		return SavingsPlan{}, fmt.Errorf("interest rate must be between 0 and 1")
	}
	if p.DailyAmount.IsZero() {
		return SavingsPlan{}, fmt.Errorf("daily amount must be positive")
	}
	if p.AutoSaveEnabled && p.AutoSaveTime == "" {
		return SavingsPlan{}, fmt.Errorf("auto-save time is required when auto-save is enabled")
	}
	if p.AutoSaveTime != "" && !autoSaveTimeRe.MatchString(p.AutoSaveTime) {
		return SavingsPlan{}, fmt.Errorf("auto-save time must match HH:mm, got %q", p.AutoSaveTime)
	}

	currency := p.DailyAmount.Currency()

	target := Money{}
	if p.TargetAmount != nil {
		if p.TargetAmount.Currency() != currency {
			return SavingsPlan{}, fmt.Errorf("%w: target %s vs daily %s", ErrCurrencyMismatch, p.TargetAmount.Currency(), currency)
		}
		target = *p.TargetAmount
	} else {
		computed, err := p.DailyAmount.Multiply(decimal.NewFromInt(int64(p.CycleDays)))
		if err != nil {
			return SavingsPlan{}, err
		}
		target = computed
	}

	minBalance := Zero(currency)
	if p.MinimumBalance != nil {
		if p.MinimumBalance.Currency() != currency {
			return SavingsPlan{}, fmt.Errorf("%w: minimum balance %s vs daily %s", ErrCurrencyMismatch, p.MinimumBalance.Currency(), currency)
		}
		minBalance = *p.MinimumBalance
	}

	now := time.Now().UTC()
	return SavingsPlan{
		ID:              NewPlanID(),
		UserID:          p.UserID,
		Name:            p.Name,
		DailyAmount:     p.DailyAmount,
		CycleDays:       p.CycleDays,
		TargetAmount:    target,
		CurrentAmount:   Zero(currency),
		MinimumBalance:  minBalance,
		AutoSaveEnabled: p.AutoSaveEnabled,
		AutoSaveTime:    p.AutoSaveTime,
		Status:          PlanActive,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, p.CycleDays),
		InterestRate:    p.InterestRate,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// touched is the single place the version counter moves. Every successful
// mutation goes through it exactly once.
func (p SavingsPlan) touched() SavingsPlan {
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	return p
}

// HasTarget reports whether the plan caps contributions at a target amount.
func (p SavingsPlan) HasTarget() bool {
	return !p.TargetAmount.IsZero()
}

// IsMaturedAt reports whether the plan's end date has passed at t.
func (p SavingsPlan) IsMaturedAt(t time.Time) bool {
	return !t.Before(p.EndDate)
}

// IsMatured reports whether the plan has reached its end date.
func (p SavingsPlan) IsMatured() bool {
	return p.IsMaturedAt(time.Now().UTC())
}

// CanMakeContribution reports whether the plan accepts this contribution:
// the plan is active, the amount equals the fixed daily amount, and the
// target (when present) has not been reached yet. The contribution that
// crosses the target is taken in full, so the final balance may overshoot.
func (p SavingsPlan) CanMakeContribution(amount Money) bool {
	if p.Status != PlanActive {
		return false
	}
	if !amount.Equals(p.DailyAmount) {
		return false
	}
	if !p.HasTarget() {
		return true
	}
	reached, err := p.CurrentAmount.GreaterThanOrEqual(p.TargetAmount)
	return err == nil && !reached
}

// MakeContribution applies a contribution and returns the new snapshot.
// The plan completes when the new amount reaches the target.
func (p SavingsPlan) MakeContribution(amount Money) (SavingsPlan, error) {
	if !p.CanMakeContribution(amount) {
		return SavingsPlan{}, fmt.Errorf("plan %s cannot accept contribution of %s in status %s", p.ID, amount.Format(), p.Status)
	}

	newAmount, err := p.CurrentAmount.Add(amount)
	if err != nil {
		return SavingsPlan{}, err
	}

	p.CurrentAmount = newAmount
	p.Streak++
	p.TotalContributions++

	if p.HasTarget() {
		reached, err := newAmount.GreaterThanOrEqual(p.TargetAmount)
		if err != nil {
			return SavingsPlan{}, err
		}
		if reached {
			p.Status = PlanCompleted
		}
	}

	return p.touched(), nil
}

// Withdraw reduces the current amount. Eligibility is the caller's
// responsibility via the withdrawal validators; this only enforces that the
// balance never goes negative. Status is unchanged.
func (p SavingsPlan) Withdraw(amount Money) (SavingsPlan, error) {
	remaining, err := p.CurrentAmount.Subtract(amount)
	if err != nil {
		return SavingsPlan{}, fmt.Errorf("cannot withdraw %s from plan %s: %w", amount.Format(), p.ID, err)
	}
	p.CurrentAmount = remaining
	return p.touched(), nil
}

// CanWithdrawAt reports whether a regular (penalty-free) withdrawal is
// allowed at t: the plan is completed or matured, and not cancelled.
func (p SavingsPlan) CanWithdrawAt(t time.Time) bool {
	if p.Status == PlanCancelled {
		return false
	}
	return p.Status == PlanCompleted || p.IsMaturedAt(t)
}

// CanWithdraw reports whether a regular withdrawal is allowed now.
func (p SavingsPlan) CanWithdraw() bool {
	return p.CanWithdrawAt(time.Now().UTC())
}

// CanWithdrawAmount reports whether withdrawing amount preserves the
// minimum balance floor.
func (p SavingsPlan) CanWithdrawAmount(amount Money) bool {
	remaining, err := p.CurrentAmount.Subtract(amount)
	if err != nil {
		return false
	}
	ok, err := remaining.GreaterThanOrEqual(p.MinimumBalance)
	return err == nil && ok
}

// WithdrawableAmount returns how much can be withdrawn without breaching
// the minimum balance, floored at zero.
func (p SavingsPlan) WithdrawableAmount() Money {
	available, err := p.CurrentAmount.Subtract(p.MinimumBalance)
	if err != nil {
		return Zero(p.CurrentAmount.Currency())
	}
	return available
}

// IsFullWithdrawal reports whether withdrawing amount would leave no more
// than the minimum balance behind.
func (p SavingsPlan) IsFullWithdrawal(amount Money) bool {
	if amount.Currency() != p.CurrentAmount.Currency() {
		return false
	}
	remaining := p.CurrentAmount.Amount().Sub(amount.Amount())
	return remaining.LessThanOrEqual(p.MinimumBalance.Amount())
}

// CanEarlyWithdraw reports whether the plan qualifies for an early
// (penalized) withdrawal: active with a non-zero balance.
func (p SavingsPlan) CanEarlyWithdraw() bool {
	return p.Status == PlanActive && !p.CurrentAmount.IsZero()
}

// EarlyWithdrawalPenalty returns 5% of the current amount when the plan
// qualifies for early withdrawal, zero otherwise.
func (p SavingsPlan) EarlyWithdrawalPenalty() Money {
	if !p.CanEarlyWithdraw() {
		return Zero(p.CurrentAmount.Currency())
	}
	return Money{
		amount:   p.CurrentAmount.Amount().Mul(earlyWithdrawalPenaltyRate).Round(2),
		currency: p.CurrentAmount.Currency(),
	}
}

// InterestEarnedAt computes simple interest accrued by t:
// current x annual rate x days elapsed / 365. Zero when the rate or the
// balance is zero.
func (p SavingsPlan) InterestEarnedAt(t time.Time) Money {
	currency := p.CurrentAmount.Currency()
	if p.InterestRate == 0 || p.CurrentAmount.IsZero() {
		return Zero(currency)
	}

	days := int(t.Sub(p.StartDate).Hours() / 24)
	if days <= 0 {
		return Zero(currency)
	}

	interest := p.CurrentAmount.Amount().
		Mul(decimal.NewFromFloat(p.InterestRate)).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(365)).
		Round(2)

	return Money{amount: interest, currency: currency}
}

// InterestEarned computes simple interest accrued to date.
func (p SavingsPlan) InterestEarned() Money {
	return p.InterestEarnedAt(time.Now().UTC())
}

// Pause suspends contributions. Only an active plan can pause.
func (p SavingsPlan) Pause() (SavingsPlan, error) {
	if p.Status != PlanActive {
		return SavingsPlan{}, fmt.Errorf("%w: cannot pause plan in status %s", ErrInvalidTransition, p.Status)
	}
	p.Status = PlanPaused
	return p.touched(), nil
}

// Resume reactivates a paused plan.
func (p SavingsPlan) Resume() (SavingsPlan, error) {
	if p.Status != PlanPaused {
		return SavingsPlan{}, fmt.Errorf("%w: cannot resume plan in status %s", ErrInvalidTransition, p.Status)
	}
	p.Status = PlanActive
	return p.touched(), nil
}

// Complete finishes an active plan explicitly.
func (p SavingsPlan) Complete() (SavingsPlan, error) {
	if p.Status != PlanActive {
		return SavingsPlan{}, fmt.Errorf("%w: cannot complete plan in status %s", ErrInvalidTransition, p.Status)
	}
	p.Status = PlanCompleted
	return p.touched(), nil
}

// Cancel abandons the plan. Allowed from any state except completed and
// cancelled.
func (p SavingsPlan) Cancel() (SavingsPlan, error) {
	if p.Status == PlanCompleted || p.Status == PlanCancelled {
		return SavingsPlan{}, fmt.Errorf("%w: cannot cancel plan in status %s", ErrInvalidTransition, p.Status)
	}
	p.Status = PlanCancelled
	return p.touched(), nil
}

// MarkInterestPaid records that accrued interest has been paid out. Only a
// completed plan that has not already been paid qualifies.
func (p SavingsPlan) MarkInterestPaid() (SavingsPlan, error) {
	if p.Status != PlanCompleted {
		return SavingsPlan{}, fmt.Errorf("%w: cannot pay interest on plan in status %s", ErrInvalidTransition, p.Status)
	}
	if p.InterestPaid {
		return SavingsPlan{}, fmt.Errorf("%w: interest already paid for plan %s", ErrInvalidTransition, p.ID)
	}
	p.InterestPaid = true
	return p.touched(), nil
}

// IsAutoSaveTimeAt reports whether t falls within the auto-save window:
// auto-save enabled, plan active, and t within 5 minutes of the configured
// time of day.
func (p SavingsPlan) IsAutoSaveTimeAt(t time.Time) bool {
	if !p.AutoSaveEnabled || p.Status != PlanActive {
		return false
	}
	configured, err := time.Parse("15:04", p.AutoSaveTime)
	if err != nil {
		return false
	}

	scheduled := time.Date(t.Year(), t.Month(), t.Day(), configured.Hour(), configured.Minute(), 0, 0, t.Location())
	diff := t.Sub(scheduled)
	if diff < 0 {
		diff = -diff
	}
	return diff <= autoSaveWindow
}

// IsAutoSaveTime reports whether the auto-save window is open now.
func (p SavingsPlan) IsAutoSaveTime() bool {
	return p.IsAutoSaveTimeAt(time.Now().UTC())
}

// PlanProgress summarizes how far along a plan is.
type PlanProgress struct {
	RequiredDailyAmount Money
	Percent             float64
	DaysRemaining       int
	TargetReached       bool
	CycleComplete       bool
}

// Progress derives completion metrics from the plan's counters.
func (p SavingsPlan) Progress() PlanProgress {
	currency := p.CurrentAmount.Currency()

	progress := PlanProgress{
		DaysRemaining:       p.CycleDays - p.Streak,
		CycleComplete:       p.Streak >= p.CycleDays,
		RequiredDailyAmount: Zero(currency),
	}
	if progress.DaysRemaining < 0 {
		progress.DaysRemaining = 0
	}

	if !p.HasTarget() {
		return progress
	}

	percent, _ := p.CurrentAmount.Amount().
		Div(p.TargetAmount.Amount()).
		Mul(decimal.NewFromInt(100)).
		Float64()
	if percent > 100 {
		percent = 100
	}
	progress.Percent = percent
	progress.TargetReached = p.CurrentAmount.Amount().GreaterThanOrEqual(p.TargetAmount.Amount())

	remaining := p.TargetAmount.Amount().Sub(p.CurrentAmount.Amount())
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	required := remaining
	if progress.DaysRemaining > 0 {
		required = remaining.Div(decimal.NewFromInt(int64(progress.DaysRemaining))).Round(2)
	}
	progress.RequiredDailyAmount = Money{amount: required, currency: currency}

	return progress
}
