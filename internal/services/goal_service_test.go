package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gastos/internal/core"
	"gastos/internal/storage"
)

func newGoalService(t *testing.T) *GoalService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewGoalService(repo)
}

func TestGoalServiceLifecycle(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.Goal{
		Name:        "Viagem",
		TargetValue: core.Money{Cents: 500000},
		TargetDate:  core.NewDate(2025, 12, 31),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	goals, err := svc.ListGoals(ctx)
	if err != nil || len(goals) != 1 {
		t.Fatalf("list goals: %v, count %d", err, len(goals))
	}

	if err := svc.DeleteGoal(ctx, goal.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	goals, _ = svc.ListGoals(ctx)
	if len(goals) != 0 {
		t.Fatalf("expected no goals after delete, got %d", len(goals))
	}
}

func TestGoalServiceRejectsInvalidGoal(t *testing.T) {
	svc := newGoalService(t)
	_, err := svc.CreateGoal(context.Background(), core.Goal{
		TargetValue: core.Money{Cents: 100},
		TargetDate:  core.NewDate(2025, 12, 31),
	})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestGoalServiceContributionsDeriveCurrentValue(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.Goal{
		Name:        "Reserva",
		TargetValue: core.Money{Cents: 1000000},
		TargetDate:  core.NewDate(2026, 6, 30),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	first, updated, err := svc.AddContribution(ctx, core.Contribution{
		GoalID: goal.ID,
		Value:  core.Money{Cents: 5000},
	})
	if err != nil {
		t.Fatalf("add contribution: %v", err)
	}
	if first.Responsible != core.DefaultResponsible {
		t.Errorf("responsible not defaulted: %q", first.Responsible)
	}
	if updated.CurrentValue().Cents != 5000 {
		t.Errorf("current value = %d, want 5000", updated.CurrentValue().Cents)
	}

	_, updated, err = svc.AddContribution(ctx, core.Contribution{
		GoalID:      goal.ID,
		Value:       core.Money{Cents: 2550},
		Responsible: "Ana",
		Date:        core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("add second contribution: %v", err)
	}
	if updated.CurrentValue().Cents != 7550 {
		t.Errorf("current value = %d, want 7550", updated.CurrentValue().Cents)
	}

	// Deleting the first contribution leaves exactly the second's value.
	if err := svc.DeleteContribution(ctx, first.ID); err != nil {
		t.Fatalf("delete contribution: %v", err)
	}
	goals, err := svc.ListGoals(ctx)
	if err != nil || len(goals) != 1 {
		t.Fatalf("list goals: %v", err)
	}
	if goals[0].CurrentValue().Cents != 2550 {
		t.Errorf("current value after delete = %d, want 2550", goals[0].CurrentValue().Cents)
	}
}

func TestGoalServiceContributionToMissingGoal(t *testing.T) {
	svc := newGoalService(t)
	_, _, err := svc.AddContribution(context.Background(), core.Contribution{
		GoalID: 999,
		Value:  core.Money{Cents: 100},
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
