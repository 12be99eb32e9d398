package worker

import (
	"context"
	"path/filepath"
	"testing"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/mirror/memory"
	"gastos/internal/storage"
)

func newTestWorker(t *testing.T) (*MirrorWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	store := memory.New()
	return NewMirrorWorker(repo, store, 50), repo, store
}

func seedExpense(t *testing.T, repo *storage.SQLiteRepository, name string, date core.Date) core.Expense {
	t.Helper()
	ctx := context.Background()
	cat, err := repo.CreateCategory(ctx, "Alimentação")
	if err != nil {
		cats, lerr := repo.ListCategories(ctx, false)
		if lerr != nil || len(cats) == 0 {
			t.Fatalf("create category: %v", err)
		}
		cat = cats[0]
	}
	e, err := repo.CreateExpense(ctx, core.Expense{
		Name:        name,
		Value:       core.Money{Cents: 12050},
		Responsible: core.DefaultResponsible,
		Category:    cat,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return e
}

func TestHandleEventUpsert(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()
	e := seedExpense(t, repo, "Mercado", core.NewDate(2024, 3, 5))

	if err := w.HandleEvent(ctx, amqp.NewUpsertEvent(e.ID)); err != nil {
		t.Fatalf("handle upsert: %v", err)
	}

	mirrored := store.Expenses()
	if len(mirrored) != 1 || mirrored[0].Name != "Mercado" {
		t.Fatalf("unexpected mirror contents: %v", mirrored)
	}

	// A second upsert for the same expense must not duplicate the row.
	if err := w.HandleEvent(ctx, amqp.NewUpsertEvent(e.ID)); err != nil {
		t.Fatalf("handle repeat upsert: %v", err)
	}
	if got := store.Expenses(); len(got) != 1 {
		t.Fatalf("expected single mirrored row, got %d", len(got))
	}
}

func TestHandleEventUpsertForMissingExpense(t *testing.T) {
	w, _, store := newTestWorker(t)

	// An upsert for an expense already deleted is acknowledged, not retried.
	if err := w.HandleEvent(context.Background(), amqp.NewUpsertEvent(999)); err != nil {
		t.Fatalf("handle upsert for missing expense: %v", err)
	}
	if got := store.Expenses(); len(got) != 0 {
		t.Fatalf("expected empty mirror, got %v", got)
	}
}

func TestHandleEventDelete(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()
	e := seedExpense(t, repo, "Mercado", core.NewDate(2024, 3, 5))

	if err := w.HandleEvent(ctx, amqp.NewUpsertEvent(e.ID)); err != nil {
		t.Fatalf("handle upsert: %v", err)
	}
	event := amqp.NewDeleteEvent(e.ID, e.Name, e.Date.String(), e.Value.Cents)
	if err := w.HandleEvent(ctx, event); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if got := store.Expenses(); len(got) != 0 {
		t.Fatalf("expected empty mirror after delete, got %v", got)
	}
}

func TestHandleEventUnknownKind(t *testing.T) {
	w, _, _ := newTestWorker(t)
	err := w.HandleEvent(context.Background(), &amqp.ExpenseEvent{Kind: "replace", ID: 1})
	if err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestStartupBackfill(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	seedExpense(t, repo, "Mercado", core.NewDate(2024, 3, 5))
	seedExpense(t, repo, "Farmácia", core.NewDate(2024, 3, 12))
	seedExpense(t, repo, "Fora do mês", core.NewDate(2024, 4, 2))

	if err := w.StartupBackfill(ctx, core.NewDate(2024, 3, 20)); err != nil {
		t.Fatalf("startup backfill: %v", err)
	}

	mirrored := store.Expenses()
	if len(mirrored) != 2 {
		t.Fatalf("expected 2 mirrored expenses, got %d", len(mirrored))
	}
	for _, e := range mirrored {
		if e.Date.Month() != 3 {
			t.Errorf("mirrored expense outside month: %+v", e)
		}
	}
}
