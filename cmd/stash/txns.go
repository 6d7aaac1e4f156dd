package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/service"
)

func txnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txns",
		Short: "Inspect transactions",
	}
	cmd.AddCommand(txnsListCmd())
	cmd.AddCommand(txnsStaleCmd())
	return cmd
}

func txnsListCmd() *cobra.Command {
	var (
		user  string
		since string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's transactions, newest first",
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

			filter := service.TransactionFilter{Limit: limit}
			if since != "" {
				start, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (want YYYY-MM-DD): %w", err)
				}
				filter.StartDate = &start
			}

			txns, err := store.GetTransactionsByUser(ctx, userID, filter)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions found"))
				return nil
			}
			for _, txn := range txns {
				fmt.Print(cli.RenderTransaction(txn))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&since, "since", "", "only transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of transactions")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func txnsStaleCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "stale",
		Short: "List pending transactions older than a cutoff",
		Long: `List transactions stuck in pending. These usually mean an external
payment was never confirmed; cancel or complete them manually.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
			txns, err := store.GetStaleTransactions(ctx, cutoff)
			if err != nil {
				return err
			}

			if len(txns) == 0 {
				fmt.Println(cli.SuccessStyle.Render("✓ No stale transactions"))
				return nil
			}
			fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("%d transactions pending for over %dh:", len(txns), hours)))
			for _, txn := range txns {
				fmt.Print(cli.RenderTransaction(txn))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "pending age threshold in hours")

	return cmd
}
