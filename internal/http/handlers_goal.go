package http

import (
	"net/http"

	"gastos/internal/core"
)

type goalRequest struct {
	Name        string     `json:"name"`
	TargetValue core.Money `json:"targetValue"`
	TargetDate  core.Date  `json:"targetDate"`
}

type contributionRequest struct {
	Value       core.Money `json:"value"`
	Responsible string     `json:"responsible"`
	Date        core.Date  `json:"date"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.ListGoals(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, goalToView(g))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.goals.CreateGoal(r.Context(), core.Goal{
		Name:        req.Name,
		TargetValue: req.TargetValue,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goalToView(created))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.goals.DeleteGoal(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddContribution records a deposit and returns the refreshed goal,
// so the client sees the recomputed current value in one round trip.
func (s *Server) handleAddContribution(w http.ResponseWriter, r *http.Request) {
	goalID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, goal, err := s.goals.AddContribution(r.Context(), core.Contribution{
		GoalID:      goalID,
		Value:       req.Value,
		Responsible: req.Responsible,
		Date:        req.Date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goalToView(goal))
}

func (s *Server) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.goals.DeleteContribution(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
