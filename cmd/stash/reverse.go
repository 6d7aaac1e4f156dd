package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/engine"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/storage"
)

func reverseCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reverse <reference>",
		Short: "Reverse a completed transaction",
		Long: `Reverse a completed transaction by creating a completed transaction
of the opposite credit/debit type for the same amount, linked to the
original by reference. The wallet moves opposite to the original, and
money held by a plan is returned to it before the wallet is refunded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			original, err := store.GetTransactionByReference(ctx, args[0])
			if err != nil {
				return err
			}
			if err := canReverse(*original); err != nil {
				return err
			}

			reversal, err := engine.NewProcessor().ProcessReversal(*original, reason)
			if err != nil {
				return err
			}
			if err := store.SaveTransaction(ctx, &reversal); err != nil {
				return err
			}
			if err := applyReversal(ctx, store, *original); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Reversed %s", original.Reference)))
			fmt.Print(cli.RenderTransaction(reversal))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the transaction is being reversed (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

// canReverse rejects originals whose money movement cannot be undone from
// the recorded amount alone.
func canReverse(original model.Transaction) error {
	if original.Type == model.TypeWithdrawal && original.PlanID != "" {
		return common.NewUserError(
			fmt.Sprintf("Plan withdrawal %s cannot be reversed: the amount paid out may differ from the recorded amount by the early-withdrawal penalty. Fund the wallet and contribute instead.", original.Reference),
			nil)
	}
	return nil
}

// applyReversal undoes the original transaction's money movement. The
// wallet moves opposite to the original's effect on it, not opposite to the
// reversal record's credit/debit type: reversing a contribution puts money
// back in the wallet even though the reversal itself is withdrawal-typed.
// Contributions are also clawed back out of the plan's balance.
func applyReversal(ctx context.Context, store *storage.SQLiteStorage, original model.Transaction) error {
	switch original.Type {
	case model.TypeContribution, model.TypeAutoSave:
		if _, err := transitionPlan(ctx, store, original.PlanID, func(p model.SavingsPlan) (model.SavingsPlan, error) {
			return p.Withdraw(original.Amount)
		}); err != nil {
			return fmt.Errorf("could not return %s to plan owner: %w", original.Amount.Format(), err)
		}
		return store.Credit(ctx, original.UserID, original.Amount)
	case model.TypeWalletFunding, model.TypeInterest:
		return store.Debit(ctx, original.UserID, original.Amount)
	case model.TypeWithdrawal, model.TypeWalletWithdrawal, model.TypePenalty:
		return store.Credit(ctx, original.UserID, original.Amount)
	default:
		return fmt.Errorf("transaction type %s cannot be reversed", original.Type)
	}
}
