package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tobiloba/dailystash/internal/common"
	"github.com/tobiloba/dailystash/internal/model"
)

const planColumns = `id, user_id, name, daily_amount, cycle_days, target_amount,
	current_amount, minimum_balance, auto_save_enabled, auto_save_time, status,
	start_date, end_date, interest_rate, streak, total_contributions,
	interest_paid, version, created_at, updated_at`

// SavePlan inserts a new plan.
func (s *SQLiteStorage) SavePlan(ctx context.Context, plan *model.SavingsPlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validatePlan(plan); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		plan.ID.String(), plan.UserID.String(), plan.Name,
		plan.DailyAmount.Amount().String(), plan.CycleDays,
		plan.TargetAmount.Amount().String(), plan.CurrentAmount.Amount().String(),
		plan.MinimumBalance.Amount().String(), plan.AutoSaveEnabled, plan.AutoSaveTime,
		string(plan.Status), plan.StartDate, plan.EndDate, plan.InterestRate,
		plan.Streak, plan.TotalContributions, plan.InterestPaid, plan.Version,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plan %s: %w", plan.ID, common.ErrDuplicateReference)
		}
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// UpdatePlan writes a mutated plan snapshot. The write only succeeds when
// the stored version is exactly one behind the snapshot's, which is how
// concurrent conflicting writes are rejected.
func (s *SQLiteStorage) UpdatePlan(ctx context.Context, plan *model.SavingsPlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validatePlan(plan); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE plans SET
			name = ?, daily_amount = ?, cycle_days = ?, target_amount = ?,
			current_amount = ?, minimum_balance = ?, auto_save_enabled = ?,
			auto_save_time = ?, status = ?, start_date = ?, end_date = ?,
			interest_rate = ?, streak = ?, total_contributions = ?,
			interest_paid = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		plan.Name, plan.DailyAmount.Amount().String(), plan.CycleDays,
		plan.TargetAmount.Amount().String(), plan.CurrentAmount.Amount().String(),
		plan.MinimumBalance.Amount().String(), plan.AutoSaveEnabled, plan.AutoSaveTime,
		string(plan.Status), plan.StartDate, plan.EndDate, plan.InterestRate,
		plan.Streak, plan.TotalContributions, plan.InterestPaid, plan.Version,
		plan.UpdatedAt,
		plan.ID.String(), plan.Version-1,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists bool
		checkErr := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM plans WHERE id = ?)`, plan.ID.String()).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to check plan existence: %w", checkErr)
		}
		if !exists {
			return fmt.Errorf("plan %s: %w", plan.ID, common.ErrNotFound)
		}
		return fmt.Errorf("plan %s at version %d: %w", plan.ID, plan.Version, common.ErrVersionConflict)
	}
	return nil
}

// GetPlan fetches one plan by id.
func (s *SQLiteStorage) GetPlan(ctx context.Context, id model.PlanID) (*model.SavingsPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id.String(), "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id.String())
	plan, err := s.scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// GetPlansByUser fetches every plan owned by a user.
func (s *SQLiteStorage) GetPlansByUser(ctx context.Context, userID model.UserID) ([]model.SavingsPlan, error) {
	return s.queryPlans(ctx, `SELECT `+planColumns+` FROM plans WHERE user_id = ? ORDER BY created_at DESC`, userID.String())
}

// GetActivePlansByUser fetches a user's active plans.
func (s *SQLiteStorage) GetActivePlansByUser(ctx context.Context, userID model.UserID) ([]model.SavingsPlan, error) {
	return s.queryPlans(ctx, `SELECT `+planColumns+` FROM plans WHERE user_id = ? AND status = ? ORDER BY created_at DESC`,
		userID.String(), string(model.PlanActive))
}

// GetPlansByStatus fetches every plan in the given status.
func (s *SQLiteStorage) GetPlansByStatus(ctx context.Context, status model.PlanStatus) ([]model.SavingsPlan, error) {
	return s.queryPlans(ctx, `SELECT `+planColumns+` FROM plans WHERE status = ? ORDER BY created_at DESC`, string(status))
}

// GetPlansDueForAutoSave returns active auto-save plans whose configured
// window contains the given instant. The window check is entity logic, so
// the query narrows and the plan decides.
func (s *SQLiteStorage) GetPlansDueForAutoSave(ctx context.Context, at time.Time) ([]model.SavingsPlan, error) {
	candidates, err := s.queryPlans(ctx,
		`SELECT `+planColumns+` FROM plans WHERE status = ? AND auto_save_enabled = 1`,
		string(model.PlanActive))
	if err != nil {
		return nil, err
	}

	due := make([]model.SavingsPlan, 0, len(candidates))
	for _, plan := range candidates {
		if plan.IsAutoSaveTimeAt(at) {
			due = append(due, plan)
		}
	}
	return due, nil
}

// GetPlansAwaitingInterest returns completed, interest-bearing plans that
// have not been paid out yet.
func (s *SQLiteStorage) GetPlansAwaitingInterest(ctx context.Context) ([]model.SavingsPlan, error) {
	return s.queryPlans(ctx,
		`SELECT `+planColumns+` FROM plans WHERE status = ? AND interest_paid = 0 AND interest_rate > 0`,
		string(model.PlanCompleted))
}

func (s *SQLiteStorage) queryPlans(ctx context.Context, query string, args ...any) ([]model.SavingsPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plans []model.SavingsPlan
	for rows.Next() {
		plan, err := s.scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStorage) scanPlan(row scanner) (*model.SavingsPlan, error) {
	var (
		plan                                                     model.SavingsPlan
		id, userID, status                                       string
		dailyAmount, targetAmount, currentAmount, minimumBalance string
		autoSaveTime                                             sql.NullString
	)

	err := row.Scan(
		&id, &userID, &plan.Name, &dailyAmount, &plan.CycleDays, &targetAmount,
		&currentAmount, &minimumBalance, &plan.AutoSaveEnabled, &autoSaveTime,
		&status, &plan.StartDate, &plan.EndDate, &plan.InterestRate,
		&plan.Streak, &plan.TotalContributions, &plan.InterestPaid,
		&plan.Version, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.ID = model.PlanID(id)
	plan.UserID = model.UserID(userID)
	plan.Status = model.PlanStatus(status)
	plan.AutoSaveTime = autoSaveTime.String

	if plan.DailyAmount, err = model.NewMoneyFromString(dailyAmount, s.currency); err != nil {
		return nil, err
	}
	if plan.TargetAmount, err = model.NewMoneyFromString(targetAmount, s.currency); err != nil {
		return nil, err
	}
	if plan.CurrentAmount, err = model.NewMoneyFromString(currentAmount, s.currency); err != nil {
		return nil, err
	}
	if plan.MinimumBalance, err = model.NewMoneyFromString(minimumBalance, s.currency); err != nil {
		return nil, err
	}

	return &plan, nil
}
