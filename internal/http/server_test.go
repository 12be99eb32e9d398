package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"gastos/internal/core"
	"gastos/internal/services"
	"gastos/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	s := NewServer(":0", repo, services.NewExpenseService(repo, nil), services.NewGoalService(repo), nil)
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
	})
	return s, repo
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type testIDs struct {
	category int64
	card     int64
}

func seedBasics(t *testing.T, s *Server) testIDs {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/categorias/", map[string]any{"name": "Alimentação"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: status %d body %s", rec.Code, rec.Body.String())
	}
	cat := decodeBody[map[string]any](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/cartoes/", map[string]any{"name": "Nubank", "closingDay": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: status %d body %s", rec.Code, rec.Body.String())
	}
	card := decodeBody[map[string]any](t, rec)

	return testIDs{
		category: int64(cat["id"].(float64)),
		card:     int64(card["id"].(float64)),
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}

func TestCategoryLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	// Duplicate active name conflicts.
	rec := doJSON(t, s, http.MethodPost, "/categorias/", map[string]any{"name": "Alimentação"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate category: status %d, want 409", rec.Code)
	}

	// Unreferenced category is hard-deleted.
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/categorias/%d", ids.category), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete category: status %d", rec.Code)
	}
	status := decodeBody[statusResponse](t, rec)
	if status.Status != storage.StatusDeleted {
		t.Errorf("delete status = %q, want %q", status.Status, storage.StatusDeleted)
	}
}

func TestCategorySoftDeleteWhenReferenced(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	rec := doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
		"name":       "Mercado",
		"value":      120.50,
		"categoryId": ids.category,
		"date":       "2024-03-05",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/categorias/%d", ids.category), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete category: status %d", rec.Code)
	}
	status := decodeBody[statusResponse](t, rec)
	if status.Status != storage.StatusSoftDeleted {
		t.Errorf("delete status = %q, want %q", status.Status, storage.StatusSoftDeleted)
	}

	// Hidden from the default picker, still present with include_inactive.
	rec = doJSON(t, s, http.MethodGet, "/categorias/", nil)
	if got := decodeBody[[]categoryView](t, rec); len(got) != 0 {
		t.Errorf("active categories after soft delete: %v", got)
	}
	rec = doJSON(t, s, http.MethodGet, "/categorias/?include_inactive=true", nil)
	if got := decodeBody[[]categoryView](t, rec); len(got) != 1 || got[0].IsActive {
		t.Errorf("inactive categories: %v", got)
	}
}

func TestExpenseValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "missing category",
			body: map[string]any{"name": "Mercado", "value": 10.0, "date": "2024-03-05"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown category",
			body: map[string]any{"name": "Mercado", "value": 10.0, "categoryId": 999, "date": "2024-03-05"},
			want: http.StatusNotFound,
		},
		{
			name: "zero value",
			body: map[string]any{"name": "Mercado", "value": 0, "categoryId": ids.category, "date": "2024-03-05"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "single installment",
			body: map[string]any{
				"name": "Notebook", "value": 1000.0, "categoryId": ids.category,
				"date": "2024-03-05", "isInstallment": true,
				"installmentCount": 1, "installmentValue": 1000.0,
			},
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/gastos/", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestMonthExpensesExpandInstallments(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	// 3 monthly installments of 100.00 starting January 31st.
	rec := doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
		"name":             "Notebook",
		"value":            300.0,
		"categoryId":       ids.category,
		"cardId":           ids.card,
		"date":             "2024-01-31",
		"isInstallment":    true,
		"installmentCount": 3,
		"installmentValue": 100.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create installment expense: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/gastos/?ano=2024&mes=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list month: status %d", rec.Code)
	}
	got := decodeBody[[]expenseView](t, rec)
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence in February, got %d", len(got))
	}
	if got[0].Date.String() != "2024-02-29" {
		t.Errorf("February installment date = %s, want 2024-02-29", got[0].Date)
	}
	if got[0].Value.Cents != 10000 {
		t.Errorf("installment value = %d cents, want 10000", got[0].Value.Cents)
	}
	if got[0].CurrentInstallment != 2 {
		t.Errorf("currentInstallment = %d, want 2", got[0].CurrentInstallment)
	}

	rec = doJSON(t, s, http.MethodGet, "/gastos/parcelados?ano=2024&mes=2", nil)
	active := decodeBody[[]expenseView](t, rec)
	if len(active) != 1 || active[0].CurrentInstallment != 2 {
		t.Errorf("parcelados: %+v", active)
	}
}

func TestStatementPeriodBoundaries(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	create := func(name, date string) {
		t.Helper()
		rec := doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
			"name": name, "value": 50.0, "categoryId": ids.category,
			"cardId": ids.card, "date": date,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d body %s", name, rec.Code, rec.Body.String())
		}
	}
	// Card closes on the 10th: March 5th belongs to the March statement,
	// March 15th to April's.
	create("Dentro", "2024-03-05")
	create("Fora", "2024-03-15")

	rec := doJSON(t, s, http.MethodGet, fmt.Sprintf("/faturas/%d?ano=2024&mes=3", ids.card), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("statement: status %d body %s", rec.Code, rec.Body.String())
	}
	view := decodeBody[statementView](t, rec)
	if view.PeriodStart.String() != "2024-02-11" || view.PeriodEnd.String() != "2024-03-10" {
		t.Errorf("period = %s..%s, want 2024-02-11..2024-03-10", view.PeriodStart, view.PeriodEnd)
	}
	if len(view.Gastos) != 1 || view.Gastos[0].Name != "Dentro" {
		t.Errorf("March statement rows: %+v", view.Gastos)
	}
	if view.Total.Cents != 5000 {
		t.Errorf("March total = %d cents, want 5000", view.Total.Cents)
	}

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/faturas/%d?ano=2024&mes=4", ids.card), nil)
	view = decodeBody[statementView](t, rec)
	if len(view.Gastos) != 1 || view.Gastos[0].Name != "Fora" {
		t.Errorf("April statement rows: %+v", view.Gastos)
	}
}

func TestStatementResponsibleFilter(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	create := func(name, responsible string, value float64) {
		t.Helper()
		rec := doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
			"name": name, "value": value, "categoryId": ids.category,
			"cardId": ids.card, "date": "2024-03-05", "responsible": responsible,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d", name, rec.Code)
		}
	}
	create("Mercado", "Eu", 100.0)
	create("Cinema", "Ana", 30.0)

	rec := doJSON(t, s, http.MethodGet, fmt.Sprintf("/faturas/%d?ano=2024&mes=3&responsavel=Ana", ids.card), nil)
	view := decodeBody[statementView](t, rec)
	if len(view.Gastos) != 1 || view.Gastos[0].Responsible != "Ana" {
		t.Errorf("filtered rows: %+v", view.Gastos)
	}
	if view.Total.Cents != 3000 {
		t.Errorf("filtered total = %d cents, want 3000", view.Total.Cents)
	}
	// Selector still lists everyone plus the sentinel.
	if len(view.Responsaveis) != 3 || view.Responsaveis[0] != core.ResponsibleAll {
		t.Errorf("responsaveis: %v", view.Responsaveis)
	}
}

func TestSummaryAggregates(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	create := func(name string, value float64, withCard bool) {
		t.Helper()
		body := map[string]any{
			"name": name, "value": value, "categoryId": ids.category, "date": "2024-03-05",
		}
		if withCard {
			body["cardId"] = ids.card
		}
		rec := doJSON(t, s, http.MethodPost, "/gastos/", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d", name, rec.Code)
		}
	}
	create("Mercado", 100.0, false)
	create("Cinema", 30.0, true)

	rec := doJSON(t, s, http.MethodGet, "/resumo?ano=2024&mes=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resumo: status %d", rec.Code)
	}
	view := decodeBody[summaryView](t, rec)
	if view.Total.Cents != 13000 {
		t.Errorf("total = %d cents, want 13000", view.Total.Cents)
	}
	if view.DebitTotal.Cents != 10000 || view.CardTotal.Cents != 3000 {
		t.Errorf("split = %d/%d, want 10000/3000", view.DebitTotal.Cents, view.CardTotal.Cents)
	}
	if len(view.ByCategory) != 1 || view.ByCategory[0].Name != "Alimentação" {
		t.Errorf("byCategory: %+v", view.ByCategory)
	}
	if len(view.ByResponsible) != 1 || view.ByResponsible[0].Name != core.DefaultResponsible {
		t.Errorf("byResponsible: %+v", view.ByResponsible)
	}
}

func TestUpdateExpensePartialMerge(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	rec := doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
		"name": "Mercado", "value": 100.0, "categoryId": ids.category,
		"cardId": ids.card, "date": "2024-03-05",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	created := decodeBody[expenseView](t, rec)

	// Rename only: card and value survive the merge.
	rec = doJSON(t, s, http.MethodPut, fmt.Sprintf("/gastos/%d", created.ID), map[string]any{
		"name": "Mercado Mensal",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[expenseView](t, rec)
	if updated.Name != "Mercado Mensal" || updated.Value.Cents != 10000 || updated.Card == nil {
		t.Errorf("merge result: %+v", updated)
	}

	// Explicit null clears the card, turning it into a debit expense.
	rec = doJSON(t, s, http.MethodPut, fmt.Sprintf("/gastos/%d", created.ID), map[string]any{
		"cardId": nil,
	})
	updated = decodeBody[expenseView](t, rec)
	if updated.Card != nil {
		t.Errorf("card not cleared: %+v", updated.Card)
	}
}

func TestDeleteExpense(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	rec := doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
		"name": "Mercado", "value": 100.0, "categoryId": ids.category, "date": "2024-03-05",
	})
	created := decodeBody[expenseView](t, rec)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/gastos/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/gastos/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", rec.Code)
	}
}

func TestCardDeactivateAndReactivate(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	rec := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/cartoes/%d", ids.card), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: status %d", rec.Code)
	}
	card := decodeBody[cardView](t, rec)
	if card.IsActive {
		t.Error("card should be inactive after deactivation")
	}

	rec = doJSON(t, s, http.MethodGet, "/cartoes/", nil)
	if got := decodeBody[[]cardView](t, rec); len(got) != 0 {
		t.Errorf("active cards after deactivation: %v", got)
	}

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/cartoes/%d/reactivate", ids.card), nil)
	card = decodeBody[cardView](t, rec)
	if !card.IsActive {
		t.Error("card should be active after reactivation")
	}
}

func TestGoalContributions(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/metas/", map[string]any{
		"name": "Viagem", "targetValue": 5000.0, "targetDate": "2025-12-31",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal: status %d body %s", rec.Code, rec.Body.String())
	}
	goal := decodeBody[goalView](t, rec)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/metas/%d/contribuicoes", goal.ID), map[string]any{
		"value": 50.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first contribution: status %d body %s", rec.Code, rec.Body.String())
	}
	goal = decodeBody[goalView](t, rec)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/metas/%d/contribuicoes", goal.ID), map[string]any{
		"value": 25.50, "responsible": "Ana",
	})
	goal = decodeBody[goalView](t, rec)
	if goal.CurrentValue.Cents != 7550 {
		t.Errorf("currentValue = %d cents, want 7550", goal.CurrentValue.Cents)
	}

	// Deleting the first contribution leaves exactly 25.50.
	first := goal.Contributions[0].ID
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/contribuicoes/%d", first), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete contribution: status %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/metas/", nil)
	goals := decodeBody[[]goalView](t, rec)
	if len(goals) != 1 || goals[0].CurrentValue.Cents != 2550 {
		t.Errorf("goals after delete: %+v", goals)
	}
}

func TestWriteInvalidatesCachedViews(t *testing.T) {
	s, _ := newTestServer(t)
	ids := seedBasics(t, s)

	rec := doJSON(t, s, http.MethodGet, "/resumo?ano=2024&mes=3", nil)
	if view := decodeBody[summaryView](t, rec); view.Total.Cents != 0 {
		t.Fatalf("empty month total = %d", view.Total.Cents)
	}

	rec = doJSON(t, s, http.MethodPost, "/gastos/", map[string]any{
		"name": "Mercado", "value": 100.0, "categoryId": ids.category, "date": "2024-03-05",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/resumo?ano=2024&mes=3", nil)
	if view := decodeBody[summaryView](t, rec); view.Total.Cents != 10000 {
		t.Errorf("total after write = %d cents, want 10000", view.Total.Cents)
	}
}
