package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/engine"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/rules"
	"github.com/tobiloba/dailystash/internal/storage"
)

func withdrawCmd() *cobra.Command {
	var (
		user   string
		plan   string
		amount float64
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw from a plan into the wallet",
		Long: `Withdraw from a savings plan into the wallet. Completed and matured
plans pay out in full; withdrawing from an active plan before maturity
forfeits 5% of the plan balance as a penalty and asks for confirmation.
Without --plan the amount is withdrawn from the wallet directly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := model.ParseUserID(user)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			money, err := model.NewMoneyFromFloat(amount, store.Currency())
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			if plan == "" {
				return runWalletWithdrawal(cmd, store, userID, money)
			}

			planID, err := model.ParsePlanID(plan)
			if err != nil {
				return err
			}
			savingsPlan, err := store.GetPlan(ctx, planID)
			if err != nil {
				return err
			}

			txn, err := model.NewWithdrawal(userID, planID, money)
			if err != nil {
				return err
			}

			ruleCtx, err := buildRuleContext(ctx, store, txn, savingsPlan)
			if err != nil {
				return err
			}
			if v := rules.Run(ruleCtx, rules.WithdrawalPipeline()); v != nil {
				return rejectTransaction(ctx, store, txn, v)
			}
			if v := rules.Run(ruleCtx, rules.TransactionLimitPipeline()); v != nil {
				return rejectTransaction(ctx, store, txn, v)
			}

			processor := engine.NewProcessor()

			// Confirm before taking the penalty
			if !savingsPlan.CanWithdraw() && savingsPlan.CanEarlyWithdraw() && !yes {
				penalty := savingsPlan.EarlyWithdrawalPenalty()
				disbursed, err := money.Subtract(penalty)
				if err != nil {
					return fmt.Errorf("penalty of %s exceeds withdrawal amount: %w", penalty.Format(), err)
				}
				prompter := cli.NewPrompter(os.Stdin, os.Stdout)
				confirmed, err := prompter.ConfirmEarlyWithdrawal(money, penalty, disbursed)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println(cli.SubtleStyle.Render("Withdrawal aborted"))
					return nil
				}
			}

			result, err := processor.ProcessWithdrawal(txn, savingsPlan)
			if err != nil {
				return err
			}
			if err := store.SaveTransaction(ctx, &result.Transaction); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("withdrawal rejected: %s", result.Message)
			}

			if err := store.UpdatePlan(ctx, result.Plan); err != nil {
				return err
			}
			if err := store.Credit(ctx, userID, result.Disbursed); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("✓ " + result.Message))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&plan, "plan", "", "plan ID; omit to withdraw from the wallet")
	cmd.Flags().Float64Var(&amount, "amount", 0, "withdrawal amount (required)")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the early-withdrawal confirmation")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// runWalletWithdrawal moves money out of the wallet with no plan involved.
// Plan eligibility rules do not apply; amount bounds and KYC limits do.
func runWalletWithdrawal(cmd *cobra.Command, store *storage.SQLiteStorage, userID model.UserID, amount model.Money) error {
	ctx := cmd.Context()

	txn, err := model.NewWithdrawal(userID, "", amount)
	if err != nil {
		return err
	}

	ruleCtx, err := buildRuleContext(ctx, store, txn, nil)
	if err != nil {
		return err
	}
	if v := rules.Run(ruleCtx, rules.WalletWithdrawalPipeline()); v != nil {
		return rejectTransaction(ctx, store, txn, v)
	}
	if v := rules.Run(ruleCtx, rules.TransactionLimitPipeline()); v != nil {
		return rejectTransaction(ctx, store, txn, v)
	}

	result, err := engine.NewProcessor().ProcessWithdrawal(txn, nil)
	if err != nil {
		return err
	}
	if err := store.SaveTransaction(ctx, &result.Transaction); err != nil {
		return err
	}
	if err := store.Debit(ctx, userID, amount); err != nil {
		return err
	}

	fmt.Println(cli.SuccessStyle.Render("✓ " + result.Message))
	return nil
}
