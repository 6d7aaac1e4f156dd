package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/model"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users and KYC tiers",
	}
	cmd.AddCommand(usersRegisterCmd())
	cmd.AddCommand(usersSetTierCmd())
	cmd.AddCommand(usersShowCmd())
	return cmd
}

func usersRegisterCmd() *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "register <user-id>",
		Short: "Register a user with an empty wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := model.ParseUserID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.EnsureUser(ctx, userID, model.KYCTier(tier)); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ User %s registered as %s", userID, tier)))
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", string(model.TierUnverified), "KYC tier (unverified, basic, full)")

	return cmd
}

func usersSetTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-tier <user-id> <tier>",
		Short: "Change a user's KYC tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := model.ParseUserID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetTier(ctx, userID, model.KYCTier(args[1])); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ User %s is now %s", userID, args[1])))
			return nil
		},
	}
}

func usersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's tier, limits, and wallet balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := model.ParseUserID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tier, err := store.TierFor(ctx, userID)
			if err != nil {
				return err
			}
			balance, err := store.Balance(ctx, userID)
			if err != nil {
				return err
			}
			policy, err := limitPolicy(store.Currency())
			if err != nil {
				return err
			}
			fmt.Println(cli.TitleStyle.Render(userID.String()))
			fmt.Printf("  Tier:    %s\n", cli.BoldStyle.Render(string(tier)))
			fmt.Printf("  Wallet:  %s\n", balance.Format())
			if limits, ok := policy.For(tier); ok {
				fmt.Printf("  Limits:  %s/day, %s/month, %s/transaction\n",
					limits.Daily.Format(), limits.Monthly.Format(), limits.Single.Format())
			}
			return nil
		},
	}
}
