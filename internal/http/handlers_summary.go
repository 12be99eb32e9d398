package http

import (
	"net/http"

	"gastos/internal/core"
)

// handleSummary returns the dashboard aggregates for a calendar month:
// total spend, debit versus card split, and per-category and
// per-responsible groups in first-encounter order.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	responsible := r.URL.Query().Get("responsavel")

	key := monthKey(year, month) + ":" + responsible
	if view, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}

	expenses, err := s.monthExpenses(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	occurrences := core.OccurrencesInMonth(expenses, year, month)
	occurrences = core.FilterByResponsible(occurrences, responsible)
	debit, card := core.SplitBySource(occurrences)

	view := summaryView{
		Year:          year,
		Month:         month,
		Total:         core.SumValues(occurrences),
		DebitTotal:    core.SumValues(debit),
		CardTotal:     core.SumValues(card),
		ByCategory:    groupsToViews(core.AggregateByCategory(occurrences)),
		ByResponsible: groupsToViews(core.AggregateByResponsible(occurrences)),
	}

	s.summaryCache.Set(key, view)
	writeJSON(w, http.StatusOK, view)
}
