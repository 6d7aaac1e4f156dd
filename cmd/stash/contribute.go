package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/engine"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/rules"
	"github.com/tobiloba/dailystash/internal/service"
	"github.com/tobiloba/dailystash/internal/storage"
)

func contributeCmd() *cobra.Command {
	var (
		user   string
		plan   string
		amount float64
		source string
	)

	cmd := &cobra.Command{
		Use:   "contribute",
		Short: "Make a daily contribution to a plan",
		Long: `Make a daily contribution to a savings plan. The amount must equal
the plan's fixed daily amount. Contributions funded from the wallet
require sufficient balance; card, bank_transfer, and ussd sources are
assumed collected externally.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := model.ParseUserID(user)
			if err != nil {
				return err
			}
			planID, err := model.ParsePlanID(plan)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			savingsPlan, err := store.GetPlan(ctx, planID)
			if err != nil {
				return err
			}

			money, err := model.NewMoneyFromFloat(amount, store.Currency())
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			txn, err := model.NewContribution(userID, planID, money, model.PaymentSource(source))
			if err != nil {
				return err
			}

			ruleCtx, err := buildRuleContext(ctx, store, txn, savingsPlan)
			if err != nil {
				return err
			}
			if v := rules.Run(ruleCtx, rules.ContributionPipeline()); v != nil {
				return rejectTransaction(ctx, store, txn, v)
			}
			if v := rules.Run(ruleCtx, rules.TransactionLimitPipeline()); v != nil {
				return rejectTransaction(ctx, store, txn, v)
			}

			result, err := applyContribution(ctx, store, txn)
			if err != nil {
				return err
			}
			if err := store.SaveTransaction(ctx, &result.Transaction); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("contribution rejected: %s", result.Message)
			}

			// The plan write has succeeded; only now take the money
			if txn.Source == model.SourceWallet {
				if err := store.Debit(ctx, userID, txn.Amount); err != nil {
					return err
				}
			}

			fmt.Println(cli.SuccessStyle.Render("✓ " + result.Message))
			fmt.Print(cli.RenderPlan(*result.Plan))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&plan, "plan", "", "plan ID (required)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "contribution amount (required)")
	cmd.Flags().StringVar(&source, "source", string(model.SourceWallet), "payment source (wallet, card, bank_transfer, ussd)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// applyContribution runs the contribution against a fresh plan snapshot and
// persists the result, retrying on version conflicts since the auto-save
// runner may touch the same plan concurrently. An entity-level rejection
// comes back as a failed result, not an error, and leaves the plan alone.
func applyContribution(ctx context.Context, store *storage.SQLiteStorage, txn model.Transaction) (engine.Result, error) {
	processor := engine.NewProcessor()

	var result engine.Result
	err := common.WithRetry(ctx, func() error {
		plan, err := store.GetPlan(ctx, txn.PlanID)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		res, err := processor.ProcessContribution(txn, *plan)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		if res.Success {
			if err := store.UpdatePlan(ctx, res.Plan); err != nil {
				return &common.RetryableError{Err: err, Retryable: common.IsRetryable(err)}
			}
		}
		result = res
		return nil
	}, service.RetryOptions{})

	return result, err
}
