package rules

import (
	"fmt"

	"github.com/tobiloba/dailystash/internal/model"
)

// Absolute wallet funding bounds.
const (
	MinFundingAmount = 100
	MaxFundingAmount = 1_000_000
)

// recognizedFundingSources are the external payment sources a wallet can be
// funded from. The wallet itself is not one of them.
var recognizedFundingSources = map[model.PaymentSource]bool{
	model.SourceCard:         true,
	model.SourceBankTransfer: true,
	model.SourceUSSD:         true,
}

// WalletFundingPipeline returns the ordered rules gating a wallet top-up:
// the absolute amount bounds, then the payment source check.
func WalletFundingPipeline() []Rule {
	return []Rule{
		amountAtLeast(OpWalletFunding, MinFundingAmount),
		amountAtMost(OpWalletFunding, MaxFundingAmount),
		fundingSource,
	}
}

// fundingSource requires one of the recognized external sources.
func fundingSource(c Context) *Violation {
	if recognizedFundingSources[c.Transaction.Source] {
		return nil
	}
	return c.violation(OpWalletFunding, CodeInvalidPaymentSource,
		fmt.Sprintf("payment source %q is not recognized", c.Transaction.Source))
}
