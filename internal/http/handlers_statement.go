package http

import (
	"context"
	"net/http"

	"gastos/internal/core"
)

// handleStatement returns one card's bill for the billing period anchored
// on the target month's closing date.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "cartaoId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	responsible := r.URL.Query().Get("responsavel")

	key := statementKey(cardID, year, month, responsible)
	if view, ok := s.statementCache.Get(key); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}

	card, err := s.repo.GetCard(r.Context(), cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	period := core.ResolvePeriod(card, year, month)
	expenses, err := s.periodExpenses(r.Context(), period, cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	statement := core.BuildStatement(card, expenses, year, month)
	view := statementToView(statement)
	// The responsible selector lists everyone on the full statement, while
	// the rows and total reflect the active filter.
	filtered := core.FilterByResponsible(statement.Occurrences, responsible)
	view.Gastos = occurrencesToViews(filtered)
	view.Total = core.SumValues(filtered)

	s.statementCache.Set(key, view)
	writeJSON(w, http.StatusOK, view)
}

// handleUpcomingStatement previews the statement that will close next,
// relative to today. Once today passes the card's closing day the preview
// rolls over to the following month's closing.
func (s *Server) handleUpcomingStatement(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "cartaoId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := s.repo.GetCard(r.Context(), cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	today := core.Today()
	period := core.PreviewUpcomingPeriod(card, today)
	expenses, err := s.periodExpenses(r.Context(), period, cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	statement := core.PreviewUpcomingStatement(card, expenses, today)
	writeJSON(w, http.StatusOK, statementToView(statement))
}

func (s *Server) periodExpenses(ctx context.Context, period core.Period, cardID int64) ([]core.Expense, error) {
	return s.repo.ListForPeriod(ctx, period.Start, period.End, &cardID)
}
