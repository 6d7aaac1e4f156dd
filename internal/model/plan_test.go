package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validPlanParams() PlanParams {
	return PlanParams{
		UserID:      NewUserID(),
		Name:        "Rent money",
		DailyAmount: MustMoney(100, NGN),
		CycleDays:   30,
	}
}

func TestNewSavingsPlan(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlanParams)
		wantErr bool
	}{
		{name: "valid", mutate: func(*PlanParams) {}},
		{name: "missing user", mutate: func(p *PlanParams) { p.UserID = "" }, wantErr: true},
		{name: "empty name", mutate: func(p *PlanParams) { p.Name = "" }, wantErr: true},
		{name: "name too long", mutate: func(p *PlanParams) { p.Name = strings.Repeat("x", 101) }, wantErr: true},
		{name: "name at max length", mutate: func(p *PlanParams) { p.Name = strings.Repeat("x", 100) }},
		{name: "cycle too short", mutate: func(p *PlanParams) { p.CycleDays = 6 }, wantErr: true},
		{name: "cycle at minimum", mutate: func(p *PlanParams) { p.CycleDays = 7 }},
		{name: "cycle too long", mutate: func(p *PlanParams) { p.CycleDays = 366 }, wantErr: true},
		{name: "cycle at maximum", mutate: func(p *PlanParams) { p.CycleDays = 365 }},
		{name: "negative interest", mutate: func(p *PlanParams) { p.InterestRate = -0.1 }, wantErr: true},
		{name: "interest above one", mutate: func(p *PlanParams) { p.InterestRate = 1.5 }, wantErr: true},
		{name: "interest at one", mutate: func(p *PlanParams) { p.InterestRate = 1 }},
		{name: "zero daily amount", mutate: func(p *PlanParams) { p.DailyAmount = Zero(NGN) }, wantErr: true},
		{name: "autosave without time", mutate: func(p *PlanParams) { p.AutoSaveEnabled = true }, wantErr: true},
		{name: "autosave with time", mutate: func(p *PlanParams) { p.AutoSaveEnabled = true; p.AutoSaveTime = "09:30" }},
		{name: "bad autosave time", mutate: func(p *PlanParams) { p.AutoSaveEnabled = true; p.AutoSaveTime = "25:00" }, wantErr: true},
		{name: "bad autosave minutes", mutate: func(p *PlanParams) { p.AutoSaveEnabled = true; p.AutoSaveTime = "09:60" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validPlanParams()
			tt.mutate(&params)
			_, err := NewSavingsPlan(params)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSavingsPlan() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSavingsPlanDefaults(t *testing.T) {
	plan, err := NewSavingsPlan(validPlanParams())
	if err != nil {
		t.Fatalf("NewSavingsPlan() unexpected error: %v", err)
	}

	if plan.Status != PlanActive {
		t.Errorf("Status = %v, want active", plan.Status)
	}
	if plan.Version != 1 {
		t.Errorf("Version = %d, want 1", plan.Version)
	}
	// Target defaults to daily x cycle
	if !plan.TargetAmount.Equals(MustMoney(3000, NGN)) {
		t.Errorf("TargetAmount = %s, want NGN 3000.00", plan.TargetAmount.Format())
	}
	if !plan.CurrentAmount.IsZero() {
		t.Errorf("CurrentAmount = %s, want zero", plan.CurrentAmount.Format())
	}
	if !plan.MinimumBalance.IsZero() {
		t.Errorf("MinimumBalance = %s, want zero", plan.MinimumBalance.Format())
	}
	wantEnd := plan.StartDate.AddDate(0, 0, 30)
	if !plan.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", plan.EndDate, wantEnd)
	}
}

func TestNewSavingsPlanCurrencyMismatch(t *testing.T) {
	params := validPlanParams()
	target := MustMoney(5000, USD)
	params.TargetAmount = &target

	if _, err := NewSavingsPlan(params); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("NewSavingsPlan() error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestMakeContribution(t *testing.T) {
	plan, err := NewSavingsPlan(validPlanParams())
	if err != nil {
		t.Fatalf("NewSavingsPlan() unexpected error: %v", err)
	}

	updated, err := plan.MakeContribution(MustMoney(100, NGN))
	if err != nil {
		t.Fatalf("MakeContribution() unexpected error: %v", err)
	}

	if !updated.CurrentAmount.Equals(MustMoney(100, NGN)) {
		t.Errorf("CurrentAmount = %s, want NGN 100.00", updated.CurrentAmount.Format())
	}
	if updated.Streak != 1 {
		t.Errorf("Streak = %d, want 1", updated.Streak)
	}
	if updated.TotalContributions != 1 {
		t.Errorf("TotalContributions = %d, want 1", updated.TotalContributions)
	}
	if updated.Version != plan.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, plan.Version+1)
	}

	// The original snapshot is untouched
	if !plan.CurrentAmount.IsZero() {
		t.Errorf("original CurrentAmount = %s, want zero", plan.CurrentAmount.Format())
	}
	if plan.Version != 1 {
		t.Errorf("original Version = %d, want 1", plan.Version)
	}
}

func TestMakeContributionRejections(t *testing.T) {
	base, err := NewSavingsPlan(validPlanParams())
	if err != nil {
		t.Fatalf("NewSavingsPlan() unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(SavingsPlan) SavingsPlan
		amount Money
	}{
		{
			name:   "paused plan",
			mutate: func(p SavingsPlan) SavingsPlan { p.Status = PlanPaused; return p },
			amount: MustMoney(100, NGN),
		},
		{
			name:   "cancelled plan",
			mutate: func(p SavingsPlan) SavingsPlan { p.Status = PlanCancelled; return p },
			amount: MustMoney(100, NGN),
		},
		{
			name:   "wrong amount",
			mutate: func(p SavingsPlan) SavingsPlan { return p },
			amount: MustMoney(50, NGN),
		},
		{
			name:   "wrong currency",
			mutate: func(p SavingsPlan) SavingsPlan { return p },
			amount: MustMoney(100, USD),
		},
		{
			name: "target already reached",
			mutate: func(p SavingsPlan) SavingsPlan {
				p.CurrentAmount = MustMoney(3000, NGN) // target 3000
				return p
			},
			amount: MustMoney(100, NGN),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := tt.mutate(base)
			if plan.CanMakeContribution(tt.amount) {
				t.Error("CanMakeContribution() = true, want false")
			}
			if _, err := plan.MakeContribution(tt.amount); err == nil {
				t.Error("MakeContribution() should fail")
			}
		})
	}
}

func TestContributionCompletesPlanAtTarget(t *testing.T) {
	plan, err := NewSavingsPlan(validPlanParams())
	if err != nil {
		t.Fatalf("NewSavingsPlan() unexpected error: %v", err)
	}
	plan.TargetAmount = MustMoney(9000, NGN)
	plan.CurrentAmount = MustMoney(8950, NGN)

	// The crossing contribution is taken in full and overshoots the target
	updated, err := plan.MakeContribution(MustMoney(100, NGN))
	if err != nil {
		t.Fatalf("MakeContribution() unexpected error: %v", err)
	}

	if !updated.CurrentAmount.Equals(MustMoney(9050, NGN)) {
		t.Errorf("CurrentAmount = %s, want NGN 9050.00", updated.CurrentAmount.Format())
	}
	if updated.Status != PlanCompleted {
		t.Errorf("Status = %v, want completed", updated.Status)
	}
	if updated.Version != plan.Version+1 {
		t.Errorf("Version = %d, want exactly one bump", updated.Version)
	}
}

func TestCanWithdraw(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		status  PlanStatus
		endDate time.Time
		want    bool
	}{
		{name: "completed plan", status: PlanCompleted, endDate: now.AddDate(0, 0, 10), want: true},
		{name: "active matured plan", status: PlanActive, endDate: now.AddDate(0, 0, -1), want: true},
		{name: "active unmatured plan", status: PlanActive, endDate: now.AddDate(0, 0, 10), want: false},
		{name: "paused matured plan", status: PlanPaused, endDate: now.AddDate(0, 0, -1), want: true},
		{name: "cancelled matured plan", status: PlanCancelled, endDate: now.AddDate(0, 0, -1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := SavingsPlan{Status: tt.status, EndDate: tt.endDate}
			if got := plan.CanWithdrawAt(now); got != tt.want {
				t.Errorf("CanWithdrawAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithdraw(t *testing.T) {
	plan, err := NewSavingsPlan(validPlanParams())
	if err != nil {
		t.Fatalf("NewSavingsPlan() unexpected error: %v", err)
	}
	plan.CurrentAmount = MustMoney(3000, NGN)

	updated, err := plan.Withdraw(MustMoney(1000, NGN))
	if err != nil {
		t.Fatalf("Withdraw() unexpected error: %v", err)
	}
	if !updated.CurrentAmount.Equals(MustMoney(2000, NGN)) {
		t.Errorf("CurrentAmount = %s, want NGN 2000.00", updated.CurrentAmount.Format())
	}
	if updated.Status != plan.Status {
		t.Errorf("Withdraw() changed status to %v", updated.Status)
	}
	if updated.Version != plan.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, plan.Version+1)
	}

	if _, err := plan.Withdraw(MustMoney(5000, NGN)); err == nil {
		t.Error("Withdraw() beyond balance should fail")
	}
}

func TestMinimumBalanceFloor(t *testing.T) {
	plan := SavingsPlan{
		CurrentAmount:  MustMoney(1000, NGN),
		MinimumBalance: MustMoney(300, NGN),
	}

	if !plan.CanWithdrawAmount(MustMoney(700, NGN)) {
		t.Error("CanWithdrawAmount() at the floor should pass")
	}
	if plan.CanWithdrawAmount(MustMoney(701, NGN)) {
		t.Error("CanWithdrawAmount() breaching the floor should fail")
	}
	if !plan.WithdrawableAmount().Equals(MustMoney(700, NGN)) {
		t.Errorf("WithdrawableAmount() = %s, want NGN 700.00", plan.WithdrawableAmount().Format())
	}

	if !plan.IsFullWithdrawal(MustMoney(700, NGN)) {
		t.Error("IsFullWithdrawal() at the floor should be true")
	}
	if plan.IsFullWithdrawal(MustMoney(500, NGN)) {
		t.Error("IsFullWithdrawal() leaving more than the floor should be false")
	}
}

func TestEarlyWithdrawalPenalty(t *testing.T) {
	plan := SavingsPlan{
		Status:        PlanActive,
		CurrentAmount: MustMoney(10000, NGN),
	}

	if !plan.CanEarlyWithdraw() {
		t.Fatal("CanEarlyWithdraw() = false, want true")
	}
	if !plan.EarlyWithdrawalPenalty().Equals(MustMoney(500, NGN)) {
		t.Errorf("EarlyWithdrawalPenalty() = %s, want NGN 500.00", plan.EarlyWithdrawalPenalty().Format())
	}

	// Empty or inactive plans have no penalty because they have no early withdrawal
	empty := SavingsPlan{Status: PlanActive, CurrentAmount: Zero(NGN)}
	if empty.CanEarlyWithdraw() {
		t.Error("CanEarlyWithdraw() on empty plan = true, want false")
	}
	if !empty.EarlyWithdrawalPenalty().IsZero() {
		t.Error("EarlyWithdrawalPenalty() on empty plan should be zero")
	}

	completed := SavingsPlan{Status: PlanCompleted, CurrentAmount: MustMoney(10000, NGN)}
	if completed.CanEarlyWithdraw() {
		t.Error("CanEarlyWithdraw() on completed plan = true, want false")
	}
}

func TestInterestEarned(t *testing.T) {
	start := time.Now().UTC().AddDate(0, 0, -73) // 73 days = exactly a fifth of a year

	tests := []struct {
		name string
		plan SavingsPlan
		at   time.Time
		want Money
	}{
		{
			name: "simple accrual",
			plan: SavingsPlan{CurrentAmount: MustMoney(10000, NGN), InterestRate: 0.1, StartDate: start},
			at:   time.Now().UTC(),
			want: MustMoney(200, NGN), // 10000 x 0.1 x 73/365
		},
		{
			name: "zero rate",
			plan: SavingsPlan{CurrentAmount: MustMoney(10000, NGN), StartDate: start},
			at:   time.Now().UTC(),
			want: Zero(NGN),
		},
		{
			name: "zero balance",
			plan: SavingsPlan{CurrentAmount: Zero(NGN), InterestRate: 0.1, StartDate: start},
			at:   time.Now().UTC(),
			want: Zero(NGN),
		},
		{
			name: "before a full day",
			plan: SavingsPlan{CurrentAmount: MustMoney(10000, NGN), InterestRate: 0.1, StartDate: start},
			at:   start.Add(time.Hour),
			want: Zero(NGN),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.plan.InterestEarnedAt(tt.at)
			if !got.Equals(tt.want) {
				t.Errorf("InterestEarnedAt() = %s, want %s", got.Format(), tt.want.Format())
			}
		})
	}
}

func TestPlanTransitions(t *testing.T) {
	tests := []struct {
		name       string
		from       PlanStatus
		transition func(SavingsPlan) (SavingsPlan, error)
		to         PlanStatus
		wantErr    bool
	}{
		{name: "pause active", from: PlanActive, transition: SavingsPlan.Pause, to: PlanPaused},
		{name: "pause paused", from: PlanPaused, transition: SavingsPlan.Pause, wantErr: true},
		{name: "pause completed", from: PlanCompleted, transition: SavingsPlan.Pause, wantErr: true},
		{name: "resume paused", from: PlanPaused, transition: SavingsPlan.Resume, to: PlanActive},
		{name: "resume active", from: PlanActive, transition: SavingsPlan.Resume, wantErr: true},
		{name: "complete active", from: PlanActive, transition: SavingsPlan.Complete, to: PlanCompleted},
		{name: "complete paused", from: PlanPaused, transition: SavingsPlan.Complete, wantErr: true},
		{name: "cancel active", from: PlanActive, transition: SavingsPlan.Cancel, to: PlanCancelled},
		{name: "cancel paused", from: PlanPaused, transition: SavingsPlan.Cancel, to: PlanCancelled},
		{name: "cancel completed", from: PlanCompleted, transition: SavingsPlan.Cancel, wantErr: true},
		{name: "cancel cancelled", from: PlanCancelled, transition: SavingsPlan.Cancel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := SavingsPlan{Status: tt.from, Version: 3}
			updated, err := tt.transition(plan)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("error = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != tt.to {
				t.Errorf("Status = %v, want %v", updated.Status, tt.to)
			}
			if updated.Version != 4 {
				t.Errorf("Version = %d, want 4", updated.Version)
			}
		})
	}
}

func TestMarkInterestPaid(t *testing.T) {
	plan := SavingsPlan{Status: PlanCompleted, Version: 1}

	paid, err := plan.MarkInterestPaid()
	if err != nil {
		t.Fatalf("MarkInterestPaid() unexpected error: %v", err)
	}
	if !paid.InterestPaid {
		t.Error("InterestPaid = false, want true")
	}

	if _, err := paid.MarkInterestPaid(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second MarkInterestPaid() error = %v, want ErrInvalidTransition", err)
	}

	active := SavingsPlan{Status: PlanActive}
	if _, err := active.MarkInterestPaid(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("MarkInterestPaid() on active plan error = %v, want ErrInvalidTransition", err)
	}
}

func TestIsAutoSaveTime(t *testing.T) {
	base := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		plan SavingsPlan
		at   time.Time
		want bool
	}{
		{
			name: "exactly on time",
			plan: SavingsPlan{Status: PlanActive, AutoSaveEnabled: true, AutoSaveTime: "09:30"},
			at:   base,
			want: true,
		},
		{
			name: "five minutes after",
			plan: SavingsPlan{Status: PlanActive, AutoSaveEnabled: true, AutoSaveTime: "09:30"},
			at:   base.Add(5 * time.Minute),
			want: true,
		},
		{
			name: "five minutes before",
			plan: SavingsPlan{Status: PlanActive, AutoSaveEnabled: true, AutoSaveTime: "09:30"},
			at:   base.Add(-5 * time.Minute),
			want: true,
		},
		{
			name: "six minutes after",
			plan: SavingsPlan{Status: PlanActive, AutoSaveEnabled: true, AutoSaveTime: "09:30"},
			at:   base.Add(6 * time.Minute),
			want: false,
		},
		{
			name: "disabled",
			plan: SavingsPlan{Status: PlanActive, AutoSaveEnabled: false, AutoSaveTime: "09:30"},
			at:   base,
			want: false,
		},
		{
			name: "paused plan",
			plan: SavingsPlan{Status: PlanPaused, AutoSaveEnabled: true, AutoSaveTime: "09:30"},
			at:   base,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.IsAutoSaveTimeAt(tt.at); got != tt.want {
				t.Errorf("IsAutoSaveTimeAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	plan := SavingsPlan{
		CurrentAmount: MustMoney(1500, NGN),
		TargetAmount:  MustMoney(3000, NGN),
		CycleDays:     30,
		Streak:        15,
	}

	progress := plan.Progress()
	if progress.Percent != 50 {
		t.Errorf("Percent = %v, want 50", progress.Percent)
	}
	if progress.DaysRemaining != 15 {
		t.Errorf("DaysRemaining = %d, want 15", progress.DaysRemaining)
	}
	if progress.TargetReached {
		t.Error("TargetReached = true, want false")
	}
	if !progress.RequiredDailyAmount.Equals(MustMoney(100, NGN)) {
		t.Errorf("RequiredDailyAmount = %s, want NGN 100.00", progress.RequiredDailyAmount.Format())
	}
}

func TestProgressOverTarget(t *testing.T) {
	plan := SavingsPlan{
		CurrentAmount: MustMoney(3500, NGN),
		TargetAmount:  MustMoney(3000, NGN),
		CycleDays:     30,
		Streak:        35,
	}

	progress := plan.Progress()
	if progress.Percent != 100 {
		t.Errorf("Percent = %v, want capped at 100", progress.Percent)
	}
	if !progress.TargetReached {
		t.Error("TargetReached = false, want true")
	}
	if progress.DaysRemaining != 0 {
		t.Errorf("DaysRemaining = %d, want floored at 0", progress.DaysRemaining)
	}
	if !progress.CycleComplete {
		t.Error("CycleComplete = false, want true")
	}
}
