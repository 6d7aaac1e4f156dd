package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/rules"
)

func fundCmd() *cobra.Command {
	var (
		user   string
		amount float64
		source string
	)

	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Fund the wallet from an external source",
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
			txn, err := model.NewWalletFunding(userID, money, model.PaymentSource(source))
			if err != nil {
				return err
			}

			ruleCtx, err := buildRuleContext(ctx, store, txn, nil)
			if err != nil {
				return err
			}
			if v := rules.Run(ruleCtx, rules.WalletFundingPipeline()); v != nil {
				return rejectTransaction(ctx, store, txn, v)
			}
			if v := rules.Run(ruleCtx, rules.TransactionLimitPipeline()); v != nil {
				return rejectTransaction(ctx, store, txn, v)
			}

			completed, err := txn.Complete()
			if err != nil {
				return err
			}
			if err := store.EnsureUser(ctx, userID, model.TierUnverified); err != nil {
				return err
			}
			if err := store.SaveTransaction(ctx, &completed); err != nil {
				return err
			}
			if err := store.Credit(ctx, userID, money); err != nil {
				return err
			}

			balance, err := store.Balance(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Wallet funded with %s via %s", money.Format(), source)))
			fmt.Printf("  Balance: %s\n", cli.BoldStyle.Render(balance.Format()))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "funding amount (required)")
	cmd.Flags().StringVar(&source, "source", string(model.SourceCard), "payment source (card, bank_transfer, ussd)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
