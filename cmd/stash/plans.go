package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/service"
	"github.com/tobiloba/dailystash/internal/storage"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage savings plans",
	}
	cmd.AddCommand(plansCreateCmd())
	cmd.AddCommand(plansListCmd())
	cmd.AddCommand(plansShowCmd())
	cmd.AddCommand(plansTransitionCmd("pause", "Pause an active plan",
		func(p model.SavingsPlan) (model.SavingsPlan, error) { return p.Pause() }))
	cmd.AddCommand(plansTransitionCmd("resume", "Resume a paused plan",
		func(p model.SavingsPlan) (model.SavingsPlan, error) { return p.Resume() }))
	cmd.AddCommand(plansTransitionCmd("cancel", "Cancel a plan",
		func(p model.SavingsPlan) (model.SavingsPlan, error) { return p.Cancel() }))
	return cmd
}

func plansCreateCmd() *cobra.Command {
	var (
		user         string
		name         string
		daily        float64
		days         int
		target       float64
		minBalance   float64
		interestRate float64
		autoSaveAt   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new savings plan",
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

			dailyAmount, err := model.NewMoneyFromFloat(daily, store.Currency())
			if err != nil {
				return fmt.Errorf("invalid daily amount: %w", err)
			}

			params := model.PlanParams{
				UserID:          userID,
				Name:            name,
				DailyAmount:     dailyAmount,
				CycleDays:       days,
				InterestRate:    interestRate,
				AutoSaveEnabled: autoSaveAt != "",
				AutoSaveTime:    autoSaveAt,
			}
			if target > 0 {
				t, err := model.NewMoneyFromFloat(target, store.Currency())
				if err != nil {
					return fmt.Errorf("invalid target amount: %w", err)
				}
				params.TargetAmount = &t
			}
			if minBalance > 0 {
				m, err := model.NewMoneyFromFloat(minBalance, store.Currency())
				if err != nil {
					return fmt.Errorf("invalid minimum balance: %w", err)
				}
				params.MinimumBalance = &m
			}

			plan, err := model.NewSavingsPlan(params)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("Could not create plan: %v", err), err)
			}

			// A plan implies a wallet to fund it from
			if err := store.EnsureUser(ctx, userID, model.TierUnverified); err != nil {
				return err
			}
			if err := store.SavePlan(ctx, &plan); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("✓ Plan created"))
			fmt.Print(cli.RenderPlan(plan))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "owner user ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "plan name (required)")
	cmd.Flags().Float64Var(&daily, "daily", 0, "fixed daily contribution amount (required)")
	cmd.Flags().IntVar(&days, "days", 30, "savings cycle length in days")
	cmd.Flags().Float64Var(&target, "target", 0, "target amount (default: daily x days)")
	cmd.Flags().Float64Var(&minBalance, "min-balance", 0, "minimum balance to keep in the plan")
	cmd.Flags().Float64Var(&interestRate, "interest", 0, "annual interest rate as a fraction, e.g. 0.1")
	cmd.Flags().StringVar(&autoSaveAt, "autosave-at", "", "daily auto-save time (HH:mm); enables auto-save")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("daily")

	return cmd
}

func plansListCmd() *cobra.Command {
	var (
		user   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's savings plans",
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

			var plans []model.SavingsPlan
			switch status {
			case "":
				plans, err = store.GetPlansByUser(ctx, userID)
			case string(model.PlanActive):
				plans, err = store.GetActivePlansByUser(ctx, userID)
			default:
				all, listErr := store.GetPlansByStatus(ctx, model.PlanStatus(status))
				err = listErr
				for _, p := range all {
					if p.UserID == userID {
						plans = append(plans, p)
					}
				}
			}
			if err != nil {
				return err
			}

			if len(plans) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No plans found"))
				return nil
			}
			for _, plan := range plans {
				fmt.Print(cli.RenderPlan(plan))
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "owner user ID (required)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, paused, completed, cancelled)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func plansShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show a plan and its recent transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			planID, err := model.ParsePlanID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			plan, err := store.GetPlan(ctx, planID)
			if err != nil {
				return err
			}
			fmt.Print(cli.RenderPlan(*plan))

			txns, err := store.GetTransactionsByPlan(ctx, planID)
			if err != nil {
				return err
			}
			if len(txns) > 0 {
				fmt.Println(cli.TitleStyle.Render("Transactions"))
				for _, txn := range txns {
					fmt.Print(cli.RenderTransaction(txn))
				}
			}
			return nil
		},
	}
}

// plansTransitionCmd builds pause/resume/cancel. The read-modify-update is
// retried on version conflicts since the auto-save runner may touch the same
// plan concurrently.
func plansTransitionCmd(verb, short string, transition func(model.SavingsPlan) (model.SavingsPlan, error)) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <plan-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			planID, err := model.ParsePlanID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			updated, err := transitionPlan(ctx, store, planID, transition)
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Plan %s is now %s", planID, updated.Status)))
			return nil
		},
	}
}

func transitionPlan(ctx context.Context, store *storage.SQLiteStorage, planID model.PlanID, transition func(model.SavingsPlan) (model.SavingsPlan, error)) (*model.SavingsPlan, error) {
	var updated *model.SavingsPlan

	err := common.WithRetry(ctx, func() error {
		plan, err := store.GetPlan(ctx, planID)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		next, err := transition(*plan)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		if err := store.UpdatePlan(ctx, &next); err != nil {
			return &common.RetryableError{Err: err, Retryable: common.IsRetryable(err)}
		}
		updated = &next
		return nil
	}, service.RetryOptions{})

	return updated, err
}
