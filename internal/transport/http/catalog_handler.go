package http

import (
	"net/http"

	"quiz-attempt-service/internal/app"

	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	service *app.CatalogService
}

func NewCatalogHandler(service *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

// Get returns the quiz without correctness flags.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}
