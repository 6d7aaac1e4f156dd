package model

import "testing"

func TestDefaultLimitPolicy(t *testing.T) {
	policy := DefaultLimitPolicy(NGN)

	tests := []struct {
		tier    KYCTier
		daily   float64
		monthly float64
		single  float64
	}{
		{TierUnverified, 5_000, 50_000, 5_000},
		{TierBasic, 50_000, 500_000, 50_000},
		{TierFull, 500_000, 5_000_000, 500_000},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			limits, ok := policy.For(tt.tier)
			if !ok {
				t.Fatalf("For(%s) missing", tt.tier)
			}
			if !limits.Daily.Equals(MustMoney(tt.daily, NGN)) {
				t.Errorf("Daily = %s, want %v", limits.Daily.Format(), tt.daily)
			}
			if !limits.Monthly.Equals(MustMoney(tt.monthly, NGN)) {
				t.Errorf("Monthly = %s, want %v", limits.Monthly.Format(), tt.monthly)
			}
			if !limits.Single.Equals(MustMoney(tt.single, NGN)) {
				t.Errorf("Single = %s, want %v", limits.Single.Format(), tt.single)
			}
		})
	}

	if _, ok := policy.For("platinum"); ok {
		t.Error("For() unknown tier should report missing")
	}
}

func TestIDs(t *testing.T) {
	if NewUserID() == NewUserID() {
		t.Error("NewUserID() should be unique")
	}

	if _, err := ParseUserID(""); err == nil {
		t.Error("ParseUserID() empty should fail")
	}
	if _, err := ParsePlanID(""); err == nil {
		t.Error("ParsePlanID() empty should fail")
	}
	if _, err := ParseTransactionID(""); err == nil {
		t.Error("ParseTransactionID() empty should fail")
	}

	id, err := ParseUserID("user-42")
	if err != nil {
		t.Fatalf("ParseUserID() unexpected error: %v", err)
	}
	if id.String() != "user-42" {
		t.Errorf("String() = %q, want user-42", id.String())
	}
}
