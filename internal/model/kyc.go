package model

// KYCTier is an identity-verification level. Higher tiers unlock higher
// transaction ceilings.
type KYCTier string

// Verification tiers.
const (
	TierUnverified KYCTier = "unverified"
	TierBasic      KYCTier = "basic"
	TierFull       KYCTier = "full"
)

// TierLimits caps transaction volume for one verification tier.
type TierLimits struct {
	Daily   Money
	Monthly Money
	Single  Money
}

// LimitPolicy maps verification tiers to their ceilings. It is plain
// configuration data: construct it once and pass it to the validators,
// never read it from global state.
type LimitPolicy map[KYCTier]TierLimits

// For returns the limits for a tier.
func (p LimitPolicy) For(tier KYCTier) (TierLimits, bool) {
	limits, ok := p[tier]
	return limits, ok
}

// DefaultLimitPolicy returns the standard tier ceilings in the given
// currency.
func DefaultLimitPolicy(currency Currency) LimitPolicy {
	return LimitPolicy{
		TierUnverified: {
			Daily:   MustMoney(5_000, currency),
			Monthly: MustMoney(50_000, currency),
			Single:  MustMoney(5_000, currency),
		},
		TierBasic: {
			Daily:   MustMoney(50_000, currency),
			Monthly: MustMoney(500_000, currency),
			Single:  MustMoney(50_000, currency),
		},
		TierFull: {
			Daily:   MustMoney(500_000, currency),
			Monthly: MustMoney(5_000_000, currency),
			Single:  MustMoney(500_000, currency),
		},
	}
}
