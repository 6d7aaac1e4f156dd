package rules

import (
	"testing"
	"time"

	"github.com/tobiloba/dailystash/internal/model"
)

// fixtures shared by the pipeline tests.

func activePlan(t *testing.T, userID model.UserID) model.SavingsPlan {
	t.Helper()
	plan, err := model.NewSavingsPlan(model.PlanParams{
		UserID:      userID,
		Name:        "Holiday fund",
		DailyAmount: model.MustMoney(100, model.NGN),
		CycleDays:   30,
	})
	if err != nil {
		t.Fatalf("NewSavingsPlan() unexpected error: %v", err)
	}
	return plan
}

func contributionContext(t *testing.T, plan *model.SavingsPlan, userID model.UserID, amount float64, source model.PaymentSource) Context {
	t.Helper()
	planID := model.PlanID("")
	if plan != nil {
		planID = plan.ID
	}
	txn, err := model.NewContribution(userID, planID, model.MustMoney(amount, model.NGN), source)
	if err != nil {
		t.Fatalf("NewContribution() unexpected error: %v", err)
	}
	return Context{
		Now:           time.Now().UTC(),
		UserID:        userID,
		Plan:          plan,
		Transaction:   txn,
		WalletBalance: model.MustMoney(100_000, model.NGN),
		DailyTotal:    model.Zero(model.NGN),
		MonthlyTotal:  model.Zero(model.NGN),
		Tier:          model.TierFull,
		Limits:        model.DefaultLimitPolicy(model.NGN),
	}
}

func TestRunStopsAtFirstViolation(t *testing.T) {
	calls := 0
	failing := func(c Context) *Violation {
		calls++
		return c.violation(OpContribution, CodeStatus, "nope")
	}
	neverReached := func(c Context) *Violation {
		t.Error("rule after a violation must not run")
		return nil
	}

	v := Run(Context{}, []Rule{failing, neverReached})
	if v == nil {
		t.Fatal("Run() = nil, want violation")
	}
	if calls != 1 {
		t.Errorf("failing rule ran %d times, want 1", calls)
	}
}

func TestRunAllPass(t *testing.T) {
	pass := func(Context) *Violation { return nil }
	if v := Run(Context{}, []Rule{pass, pass, pass}); v != nil {
		t.Errorf("Run() = %v, want nil", v)
	}
}

func TestContributionPipeline(t *testing.T) {
	userID := model.NewUserID()

	tests := []struct {
		name     string
		setup    func(t *testing.T) Context
		wantCode Code
	}{
		{
			name: "valid wallet contribution",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				return contributionContext(t, &plan, userID, 100, model.SourceWallet)
			},
		},
		{
			name: "valid card contribution with empty wallet",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				c := contributionContext(t, &plan, userID, 100, model.SourceCard)
				c.WalletBalance = model.Zero(model.NGN)
				return c
			},
		},
		{
			name: "plan belongs to someone else",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, model.NewUserID())
				return contributionContext(t, &plan, userID, 100, model.SourceWallet)
			},
			wantCode: CodeOwnership,
		},
		{
			name: "no plan",
			setup: func(t *testing.T) Context {
				return contributionContext(t, nil, userID, 100, model.SourceWallet)
			},
			wantCode: CodeOwnership,
		},
		{
			name: "paused plan",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				paused, err := plan.Pause()
				if err != nil {
					t.Fatalf("Pause() unexpected error: %v", err)
				}
				return contributionContext(t, &paused, userID, 100, model.SourceWallet)
			},
			wantCode: CodeStatus,
		},
		{
			name: "amount differs from daily amount",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				return contributionContext(t, &plan, userID, 150, model.SourceWallet)
			},
			wantCode: CodePlanIneligible,
		},
		{
			name: "wallet cannot cover it",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				c := contributionContext(t, &plan, userID, 100, model.SourceWallet)
				c.WalletBalance = model.MustMoney(50, model.NGN)
				return c
			},
			wantCode: CodeInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Run(tt.setup(t), ContributionPipeline())
			if tt.wantCode == "" {
				if v != nil {
					t.Fatalf("Run() = %v, want pass", v)
				}
				return
			}
			if v == nil {
				t.Fatalf("Run() = nil, want code %s", tt.wantCode)
			}
			if v.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", v.Code, tt.wantCode)
			}
			if v.Op != OpContribution {
				t.Errorf("Op = %s, want contribution", v.Op)
			}
		})
	}
}

func TestContributionAmountBounds(t *testing.T) {
	userID := model.NewUserID()

	// Plans whose daily amount sits outside the absolute bounds still get
	// rejected even though the amount matches the plan.
	plan := activePlan(t, userID)
	plan.DailyAmount = model.MustMoney(5, model.NGN)
	c := contributionContext(t, &plan, userID, 5, model.SourceWallet)

	v := Run(c, ContributionPipeline())
	if v == nil || v.Code != CodeInvalidAmount {
		t.Errorf("Run() = %v, want invalid_amount for below-minimum contribution", v)
	}
	if v != nil && !v.Limit.Equals(model.MustMoney(MinContributionAmount, model.NGN)) {
		t.Errorf("Limit = %s, want the floor", v.Limit.Format())
	}
}

func TestWithdrawalPipeline(t *testing.T) {
	userID := model.NewUserID()

	maturedPlan := func(t *testing.T) model.SavingsPlan {
		plan := activePlan(t, userID)
		plan.EndDate = time.Now().UTC().AddDate(0, 0, -1)
		plan.CurrentAmount = model.MustMoney(3000, model.NGN)
		return plan
	}

	withdrawalContext := func(t *testing.T, plan *model.SavingsPlan, amount float64) Context {
		t.Helper()
		planID := model.PlanID("")
		if plan != nil {
			planID = plan.ID
		}
		txn, err := model.NewWithdrawal(userID, planID, model.MustMoney(amount, model.NGN))
		if err != nil {
			t.Fatalf("NewWithdrawal() unexpected error: %v", err)
		}
		return Context{
			Now:          time.Now().UTC(),
			UserID:       userID,
			Plan:         plan,
			Transaction:  txn,
			DailyTotal:   model.Zero(model.NGN),
			MonthlyTotal: model.Zero(model.NGN),
			Tier:         model.TierFull,
			Limits:       model.DefaultLimitPolicy(model.NGN),
		}
	}

	tests := []struct {
		name     string
		setup    func(t *testing.T) Context
		wantCode Code
	}{
		{
			name: "matured plan full withdrawal",
			setup: func(t *testing.T) Context {
				plan := maturedPlan(t)
				return withdrawalContext(t, &plan, 3000)
			},
		},
		{
			name: "early withdrawal from active plan",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				plan.CurrentAmount = model.MustMoney(3000, model.NGN)
				return withdrawalContext(t, &plan, 3000)
			},
		},
		{
			name: "cancelled plan",
			setup: func(t *testing.T) Context {
				plan := maturedPlan(t)
				plan.Status = model.PlanCancelled
				return withdrawalContext(t, &plan, 3000)
			},
			wantCode: CodeStatus,
		},
		{
			name: "empty active plan",
			setup: func(t *testing.T) Context {
				plan := activePlan(t, userID)
				return withdrawalContext(t, &plan, 500)
			},
			wantCode: CodeStatus,
		},
		{
			name: "amount exceeds plan balance",
			setup: func(t *testing.T) Context {
				plan := maturedPlan(t)
				return withdrawalContext(t, &plan, 5000)
			},
			wantCode: CodeInsufficientBalance,
		},
		{
			name: "breaches minimum balance",
			setup: func(t *testing.T) Context {
				plan := maturedPlan(t)
				plan.MinimumBalance = model.MustMoney(500, model.NGN)
				return withdrawalContext(t, &plan, 2600)
			},
			wantCode: CodeMinimumBalance,
		},
		{
			name: "below absolute minimum",
			setup: func(t *testing.T) Context {
				plan := maturedPlan(t)
				return withdrawalContext(t, &plan, 50)
			},
			wantCode: CodeInvalidAmount,
		},
		{
			name: "not the owner",
			setup: func(t *testing.T) Context {
				plan := maturedPlan(t)
				plan.UserID = model.NewUserID()
				return withdrawalContext(t, &plan, 3000)
			},
			wantCode: CodeOwnership,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Run(tt.setup(t), WithdrawalPipeline())
			if tt.wantCode == "" {
				if v != nil {
					t.Fatalf("Run() = %v, want pass", v)
				}
				return
			}
			if v == nil {
				t.Fatalf("Run() = nil, want code %s", tt.wantCode)
			}
			if v.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", v.Code, tt.wantCode)
			}
		})
	}
}

func TestWalletWithdrawalPipeline(t *testing.T) {
	userID := model.NewUserID()

	makeContext := func(t *testing.T, amount, balance float64) Context {
		t.Helper()
		txn, err := model.NewWithdrawal(userID, "", model.MustMoney(amount, model.NGN))
		if err != nil {
			t.Fatalf("NewWithdrawal() unexpected error: %v", err)
		}
		return Context{
			UserID:        userID,
			Transaction:   txn,
			WalletBalance: model.MustMoney(balance, model.NGN),
		}
	}

	if v := Run(makeContext(t, 500, 1000), WalletWithdrawalPipeline()); v != nil {
		t.Errorf("Run() = %v, want pass", v)
	}
	v := Run(makeContext(t, 1500, 1000), WalletWithdrawalPipeline())
	if v == nil || v.Code != CodeInsufficientBalance {
		t.Errorf("Run() = %v, want insufficient_balance", v)
	}
	if v := Run(makeContext(t, 50, 1000), WalletWithdrawalPipeline()); v == nil || v.Code != CodeInvalidAmount {
		t.Errorf("Run() = %v, want invalid_amount", v)
	}
}

func TestWalletFundingPipeline(t *testing.T) {
	userID := model.NewUserID()

	fundingContext := func(t *testing.T, amount float64, source model.PaymentSource) Context {
		t.Helper()
		txn, err := model.NewWalletFunding(userID, model.MustMoney(amount, model.NGN), source)
		if err != nil {
			t.Fatalf("NewWalletFunding() unexpected error: %v", err)
		}
		return Context{UserID: userID, Transaction: txn}
	}

	tests := []struct {
		name     string
		amount   float64
		source   model.PaymentSource
		wantCode Code
	}{
		{name: "card funding", amount: 5000, source: model.SourceCard},
		{name: "bank transfer", amount: 5000, source: model.SourceBankTransfer},
		{name: "ussd", amount: 5000, source: model.SourceUSSD},
		{name: "wallet is not a funding source", amount: 5000, source: model.SourceWallet, wantCode: CodeInvalidPaymentSource},
		{name: "unknown source", amount: 5000, source: "crypto", wantCode: CodeInvalidPaymentSource},
		{name: "below minimum", amount: 50, source: model.SourceCard, wantCode: CodeInvalidAmount},
		{name: "at minimum", amount: 100, source: model.SourceCard},
		{name: "at maximum", amount: 1_000_000, source: model.SourceCard},
		{name: "above maximum", amount: 1_000_001, source: model.SourceCard, wantCode: CodeInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Run(fundingContext(t, tt.amount, tt.source), WalletFundingPipeline())
			if tt.wantCode == "" {
				if v != nil {
					t.Fatalf("Run() = %v, want pass", v)
				}
				return
			}
			if v == nil {
				t.Fatalf("Run() = nil, want code %s", tt.wantCode)
			}
			if v.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", v.Code, tt.wantCode)
			}
		})
	}
}
