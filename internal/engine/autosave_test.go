package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobiloba/dailystash/internal/model"
	"github.com/tobiloba/dailystash/internal/storage"
)

// The runner tests drive the real SQLite adapter in memory; the engine's
// ports are exactly what the adapter implements.

func newRunnerStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:", model.NGN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func autoSaveClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	}
}

func storeAutoSavePlan(t *testing.T, store *storage.SQLiteStorage, daily float64, tier model.KYCTier, walletBalance float64) model.SavingsPlan {
	t.Helper()
	ctx := context.Background()

	plan, err := model.NewSavingsPlan(model.PlanParams{
		UserID:          model.NewUserID(),
		Name:            "Morning stash",
		DailyAmount:     model.MustMoney(daily, model.NGN),
		CycleDays:       30,
		AutoSaveEnabled: true,
		AutoSaveTime:    "09:30",
	})
	require.NoError(t, err)

	require.NoError(t, store.EnsureUser(ctx, plan.UserID, tier))
	if walletBalance > 0 {
		require.NoError(t, store.Credit(ctx, plan.UserID, model.MustMoney(walletBalance, model.NGN)))
	}
	require.NoError(t, store.SavePlan(ctx, &plan))
	return plan
}

func TestAutoSaveRunner(t *testing.T) {
	store := newRunnerStore(t)
	ctx := context.Background()

	plan := storeAutoSavePlan(t, store, 100, model.TierBasic, 1000)

	processor := NewProcessorWithClock(autoSaveClock())
	runner := NewAutoSaveRunner(store, store, store, store, processor, model.DefaultLimitPolicy(model.NGN))

	var progressCalls int
	runner.OnProgress(func(done, total int) {
		progressCalls++
		assert.Equal(t, 1, total)
	})

	stats, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Due: 1, Saved: 1}, stats)
	assert.Equal(t, 1, progressCalls)

	// Plan credited, wallet debited, transaction completed
	updated, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, updated.CurrentAmount.Equals(model.MustMoney(100, model.NGN)))
	assert.Equal(t, 1, updated.Streak)
	assert.Equal(t, plan.Version+1, updated.Version)

	balance, err := store.Balance(ctx, plan.UserID)
	require.NoError(t, err)
	assert.True(t, balance.Equals(model.MustMoney(900, model.NGN)), "balance = %s", balance.Format())

	txns, err := store.GetTransactionsByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TypeAutoSave, txns[0].Type)
	assert.Equal(t, model.TxnCompleted, txns[0].Status)
}

func TestAutoSaveRunnerNothingDue(t *testing.T) {
	store := newRunnerStore(t)

	// Window closes at 09:35; run at 14:00
	storeAutoSavePlan(t, store, 100, model.TierBasic, 1000)
	clock := func() time.Time {
		return time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	}

	runner := NewAutoSaveRunner(store, store, store, store, NewProcessorWithClock(clock), model.DefaultLimitPolicy(model.NGN))
	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunStats{}, stats)
}

func TestAutoSaveRunnerInsufficientWallet(t *testing.T) {
	store := newRunnerStore(t)
	ctx := context.Background()

	plan := storeAutoSavePlan(t, store, 100, model.TierBasic, 0)

	runner := NewAutoSaveRunner(store, store, store, store, NewProcessorWithClock(autoSaveClock()), model.DefaultLimitPolicy(model.NGN))
	stats, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Due: 1, Failed: 1}, stats)

	// The failure is persisted for the audit trail and the plan is untouched
	txns, err := store.GetTransactionsByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TxnFailed, txns[0].Status)

	updated, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, updated.CurrentAmount.IsZero())
	assert.Equal(t, plan.Version, updated.Version)
}

func TestAutoSaveRunnerKYCLimit(t *testing.T) {
	store := newRunnerStore(t)
	ctx := context.Background()

	// Unverified daily ceiling is 5000; an earlier 3000 plus this 3000
	// projects to 6000
	plan := storeAutoSavePlan(t, store, 3000, model.TierUnverified, 10_000)
	earlier, err := model.NewWalletFunding(plan.UserID, model.MustMoney(3000, model.NGN), model.SourceCard)
	require.NoError(t, err)
	completedEarlier, err := earlier.Complete()
	require.NoError(t, err)
	completedEarlier.CreatedAt = time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveTransaction(ctx, &completedEarlier))

	runner := NewAutoSaveRunner(store, store, store, store, NewProcessorWithClock(autoSaveClock()), model.DefaultLimitPolicy(model.NGN))
	stats, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Due: 1, Failed: 1}, stats)

	txns, err := store.GetTransactionsByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TxnFailed, txns[0].Status)
	assert.Contains(t, txns[0].FailureReason, "daily limit")

	balance, err := store.Balance(ctx, plan.UserID)
	require.NoError(t, err)
	assert.True(t, balance.Equals(model.MustMoney(10_000, model.NGN)), "wallet must be untouched")
}

func TestAutoSaveRunnerContextCancelled(t *testing.T) {
	store := newRunnerStore(t)
	storeAutoSavePlan(t, store, 100, model.TierBasic, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewAutoSaveRunner(store, store, store, store, NewProcessorWithClock(autoSaveClock()), model.DefaultLimitPolicy(model.NGN))
	_, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
