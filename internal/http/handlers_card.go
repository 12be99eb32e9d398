package http

import (
	"net/http"

	"gastos/internal/core"
)

type cardRequest struct {
	Name       string `json:"name"`
	ClosingDay int    `json:"closingDay"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.repo.ListCards(r.Context(), boolQuery(r, "include_inactive"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, cardToView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card := core.Card{Name: req.Name, ClosingDay: req.ClosingDay, IsActive: true}
	if err := card.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.repo.CreateCard(r.Context(), card)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cardToView(created))
}

// handleDeactivateCard hides the card from new-expense pickers. Historical
// expenses keep referencing it and its statements stay queryable.
func (s *Server) handleDeactivateCard(w http.ResponseWriter, r *http.Request) {
	s.setCardActive(w, r, false)
}

func (s *Server) handleReactivateCard(w http.ResponseWriter, r *http.Request) {
	s.setCardActive(w, r, true)
}

func (s *Server) setCardActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := s.repo.SetCardActive(r.Context(), id, active)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToView(card))
}
