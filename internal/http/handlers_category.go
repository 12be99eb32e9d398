package http

import (
	"net/http"

	"gastos/internal/storage"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context(), boolQuery(r, "include_inactive"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryToView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.repo.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryToView(created))
}

// handleDeleteCategory soft-deletes a category still referenced by
// expenses and hard-deletes an unreferenced one. The status in the
// response tells the caller which happened.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := s.repo.DeleteCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	message := "categoria removida"
	if status == storage.StatusSoftDeleted {
		message = "categoria em uso por gastos existentes; ocultada de novas seleções"
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status, Message: message})
}
