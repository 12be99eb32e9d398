package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gastos/internal/core"
)

type expenseRequest struct {
	Name             string      `json:"name"`
	Note             string      `json:"note"`
	Value            core.Money  `json:"value"`
	Responsible      string      `json:"responsible"`
	CategoryID       int64       `json:"categoryId"`
	CardID           *int64      `json:"cardId"`
	Date             core.Date   `json:"date"`
	IsInstallment    bool        `json:"isInstallment"`
	InstallmentCount int         `json:"installmentCount"`
	InstallmentValue *core.Money `json:"installmentValue"`
}

// expensePatch carries a partial update; nil fields keep current values.
// CardID is raw JSON so "set to debit" (explicit null) and "unchanged"
// (absent key) stay distinguishable.
type expensePatch struct {
	Name             *string         `json:"name"`
	Note             *string         `json:"note"`
	Value            *core.Money     `json:"value"`
	Responsible      *string         `json:"responsible"`
	CategoryID       *int64          `json:"categoryId"`
	CardID           json.RawMessage `json:"cardId"`
	Date             *core.Date      `json:"date"`
	IsInstallment    *bool           `json:"isInstallment"`
	InstallmentCount *int            `json:"installmentCount"`
	InstallmentValue *core.Money     `json:"installmentValue"`
}

// cardRef resolves the patch's cardId against the current value: absent
// keeps current, null clears to debit, a number selects a card.
func (p expensePatch) cardRef(current *int64) (*int64, error) {
	if len(p.CardID) == 0 {
		return current, nil
	}
	if string(p.CardID) == "null" {
		return nil, nil
	}
	var id int64
	if err := json.Unmarshal(p.CardID, &id); err != nil {
		return nil, fmt.Errorf("cardId inválido: %w", err)
	}
	return &id, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := core.Expense{
		Name:          req.Name,
		Note:          req.Note,
		Value:         req.Value,
		Responsible:   req.Responsible,
		Date:          req.Date,
		IsInstallment: req.IsInstallment,
	}
	if e.Responsible == "" {
		e.Responsible = core.DefaultResponsible
	}
	if req.IsInstallment {
		e.InstallmentCount = req.InstallmentCount
		if req.InstallmentValue != nil {
			e.InstallmentValue = *req.InstallmentValue
		}
		// The total is derived, never entered directly in installment mode.
		if e.Value.Cents == 0 && e.InstallmentCount > 0 {
			e.Value = core.Money{Cents: int64(e.InstallmentCount) * e.InstallmentValue.Cents}
		}
	}

	if !s.resolveRefs(w, r, &e, req.CategoryID, req.CardID) {
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, expenseToView(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := s.repo.GetExpense(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var patch expensePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := mergePatch(current, patch)

	categoryID := e.Category.ID
	if patch.CategoryID != nil {
		categoryID = *patch.CategoryID
	}
	var currentCardID *int64
	if e.Card != nil {
		currentCardID = &e.Card.ID
	}
	cardID, err := patch.cardRef(currentCardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.Card = nil
	if !s.resolveRefs(w, r, &e, categoryID, cardID) {
		return
	}

	updated, err := s.expenses.UpdateExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, expenseToView(updated))
}

func mergePatch(current core.Expense, patch expensePatch) core.Expense {
	e := current
	if patch.Name != nil {
		e.Name = *patch.Name
	}
	if patch.Note != nil {
		e.Note = *patch.Note
	}
	if patch.Value != nil {
		e.Value = *patch.Value
	}
	if patch.Responsible != nil {
		e.Responsible = *patch.Responsible
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.IsInstallment != nil {
		e.IsInstallment = *patch.IsInstallment
	}
	if patch.InstallmentCount != nil {
		e.InstallmentCount = *patch.InstallmentCount
	}
	if patch.InstallmentValue != nil {
		e.InstallmentValue = *patch.InstallmentValue
	}
	if !e.IsInstallment {
		e.InstallmentCount = 0
		e.InstallmentValue = core.Money{}
	} else if patch.InstallmentCount != nil || patch.InstallmentValue != nil {
		e.Value = core.Money{Cents: int64(e.InstallmentCount) * e.InstallmentValue.Cents}
	}
	return e
}

// resolveRefs loads the category and optional card onto e. It writes the
// error response itself and reports whether the caller may proceed.
func (s *Server) resolveRefs(w http.ResponseWriter, r *http.Request, e *core.Expense, categoryID int64, cardID *int64) bool {
	if categoryID == 0 {
		writeDomainError(w, core.ErrMissingCategory)
		return false
	}
	category, err := s.repo.GetCategory(r.Context(), categoryID)
	if err != nil {
		writeDomainError(w, err)
		return false
	}
	e.Category = category

	if cardID != nil {
		card, err := s.repo.GetCard(r.Context(), *cardID)
		if err != nil {
			writeDomainError(w, err)
			return false
		}
		e.Card = &card
	}
	return true
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

// handleListMonthExpenses returns the month's occurrences, installment
// purchases expanded to the installment due in the month, newest first.
func (s *Server) handleListMonthExpenses(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	responsible := r.URL.Query().Get("responsavel")

	key := monthKey(year, month) + ":" + responsible
	if views, ok := s.monthCache.Get(key); ok {
		writeJSON(w, http.StatusOK, views)
		return
	}

	expenses, err := s.monthExpenses(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	occurrences := core.OccurrencesInMonth(expenses, year, month)
	occurrences = core.FilterByResponsible(occurrences, responsible)
	views := occurrencesToViews(occurrences)

	s.monthCache.Set(key, views)
	writeJSON(w, http.StatusOK, views)
}

// handleListActiveInstallments returns the installment purchases with an
// installment due in the month, tagged with the due installment's index.
func (s *Server) handleListActiveInstallments(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.monthExpenses(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	active := core.ActiveInstallments(expenses, year, month)
	views := make([]expenseView, 0, len(active))
	for _, a := range active {
		views = append(views, installmentToView(a))
	}
	writeJSON(w, http.StatusOK, views)
}
