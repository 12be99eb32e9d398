package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gastos/internal/core"
	"gastos/internal/storage"
)

func newTestService(t *testing.T) (*ExpenseService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewExpenseService(repo, nil), repo
}

func seedCategory(t *testing.T, repo *storage.SQLiteRepository) core.Category {
	t.Helper()
	cat, err := repo.CreateCategory(context.Background(), "Alimentação")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return cat
}

func TestExpenseServiceCreateAndDelete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cat := seedCategory(t, repo)

	created, err := svc.CreateExpense(ctx, core.Expense{
		Name:        "Mercado",
		Value:       core.Money{Cents: 12050},
		Responsible: core.DefaultResponsible,
		Category:    cat,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if created.Category.Name != "Alimentação" {
		t.Errorf("category not resolved: %+v", created.Category)
	}

	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestExpenseServiceCreateRejectsInvalid(t *testing.T) {
	svc, repo := newTestService(t)
	cat := seedCategory(t, repo)

	tests := []struct {
		name    string
		expense core.Expense
		wantErr error
	}{
		{
			name: "empty name",
			expense: core.Expense{
				Value:    core.Money{Cents: 100},
				Category: cat,
				Date:     core.NewDate(2024, 3, 5),
			},
			wantErr: core.ErrEmptyName,
		},
		{
			name: "zero value",
			expense: core.Expense{
				Name:     "Mercado",
				Category: cat,
				Date:     core.NewDate(2024, 3, 5),
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "installment count below two",
			expense: core.Expense{
				Name:             "Notebook",
				Value:            core.Money{Cents: 100000},
				Category:         cat,
				Date:             core.NewDate(2024, 3, 5),
				IsInstallment:    true,
				InstallmentCount: 1,
				InstallmentValue: core.Money{Cents: 100000},
			},
			wantErr: core.ErrInvalidInstallmentCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(context.Background(), tt.expense)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateExpense() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpenseServiceUpdate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cat := seedCategory(t, repo)

	created, err := svc.CreateExpense(ctx, core.Expense{
		Name:        "Mercado",
		Value:       core.Money{Cents: 12050},
		Responsible: core.DefaultResponsible,
		Category:    cat,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	created.Name = "Mercado Mensal"
	created.Value = core.Money{Cents: 15000}
	updated, err := svc.UpdateExpense(ctx, created)
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if updated.Name != "Mercado Mensal" || updated.Value.Cents != 15000 {
		t.Errorf("update not persisted: %+v", updated)
	}
}

func TestExpenseServiceDeleteMissing(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.DeleteExpense(context.Background(), 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenseServiceCloseWithNilComponents(t *testing.T) {
	svc := &ExpenseService{}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close with nil components: %v", err)
	}
}
