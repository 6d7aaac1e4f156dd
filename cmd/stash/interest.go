package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/engine"
)

func interestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interest",
		Short: "Interest payout",
	}
	cmd.AddCommand(interestRunCmd())
	return cmd
}

func interestRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Pay accrued interest on completed plans",
		Long: `Credit accrued interest to the wallet for every completed plan that
has an interest rate and has not been paid yet. Each plan is paid at
most once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runner := engine.NewInterestRunner(store, store, store, engine.NewProcessor())
			stats, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			if stats.Eligible == 0 {
				fmt.Println(cli.SubtleStyle.Render("No plans awaiting interest"))
				return nil
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Interest run complete: %d eligible, %d paid, %d skipped, %d failed",
				stats.Eligible, stats.Paid, stats.Skipped, stats.Failed)))
			return nil
		},
	}
}
