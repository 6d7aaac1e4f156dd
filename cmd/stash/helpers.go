package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tobiloba/dailystash/internal/config"
	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/rules"
	"github.com/tobiloba/dailystash/internal/storage"
)

// initStorage opens the database with proper path expansion and brings the
// schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/stash/stash.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath, configuredCurrency())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// configuredCurrency returns the deployment currency, NGN by default.
func configuredCurrency() model.Currency {
	if c := viper.GetString("currency"); c != "" {
		return model.Currency(c)
	}
	return model.NGN
}

// limitPolicy builds the KYC tier limit table, applying any per-tier
// overrides from config. The policy is passed into the validators as data.
func limitPolicy(currency model.Currency) (model.LimitPolicy, error) {
	policy := model.DefaultLimitPolicy(currency)

	for _, tier := range []model.KYCTier{model.TierUnverified, model.TierBasic, model.TierFull} {
		key := fmt.Sprintf("limits.%s", tier)
		if !viper.IsSet(key) {
			continue
		}
		limits := policy[tier]
		if v := viper.GetFloat64(key + ".daily"); v > 0 {
			m, err := model.NewMoneyFromFloat(v, currency)
			if err != nil {
				return nil, fmt.Errorf("invalid %s daily limit: %w", tier, err)
			}
			limits.Daily = m
		}
		if v := viper.GetFloat64(key + ".monthly"); v > 0 {
			m, err := model.NewMoneyFromFloat(v, currency)
			if err != nil {
				return nil, fmt.Errorf("invalid %s monthly limit: %w", tier, err)
			}
			limits.Monthly = m
		}
		if v := viper.GetFloat64(key + ".single"); v > 0 {
			m, err := model.NewMoneyFromFloat(v, currency)
			if err != nil {
				return nil, fmt.Errorf("invalid %s single limit: %w", tier, err)
			}
			limits.Single = m
		}
		policy[tier] = limits
	}

	return policy, nil
}

// buildRuleContext assembles everything the validation pipelines inspect
// for one proposed transaction.
func buildRuleContext(ctx context.Context, store *storage.SQLiteStorage, txn model.Transaction, plan *model.SavingsPlan) (rules.Context, error) {
	now := time.Now().UTC()

	balance, err := store.Balance(ctx, txn.UserID)
	if err != nil {
		return rules.Context{}, fmt.Errorf("failed to read wallet balance: %w", err)
	}
	tier, err := store.TierFor(ctx, txn.UserID)
	if err != nil {
		return rules.Context{}, fmt.Errorf("failed to read KYC tier: %w", err)
	}
	dailyTotal, err := store.DailyTotal(ctx, txn.UserID, now)
	if err != nil {
		return rules.Context{}, fmt.Errorf("failed to read daily total: %w", err)
	}
	monthlyTotal, err := store.MonthlyTotal(ctx, txn.UserID, now)
	if err != nil {
		return rules.Context{}, fmt.Errorf("failed to read monthly total: %w", err)
	}
	limits, err := limitPolicy(store.Currency())
	if err != nil {
		return rules.Context{}, err
	}

	return rules.Context{
		Now:           now,
		UserID:        txn.UserID,
		Plan:          plan,
		Transaction:   txn,
		WalletBalance: balance,
		DailyTotal:    dailyTotal,
		MonthlyTotal:  monthlyTotal,
		Tier:          tier,
		Limits:        limits,
	}, nil
}

// rejectTransaction persists the failed transaction so the rejection shows
// up in the user's history, then surfaces the violation.
func rejectTransaction(ctx context.Context, store *storage.SQLiteStorage, txn model.Transaction, violation *rules.Violation) error {
	failed, err := txn.Fail(violation.Error())
	if err != nil {
		return err
	}
	if err := store.SaveTransaction(ctx, &failed); err != nil {
		return fmt.Errorf("failed to record rejected transaction: %w", err)
	}
	return violation
}
