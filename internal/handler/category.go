package handler

import (
	"net/http"

	"github.com/msomdec/notemap/internal/service"
)

// CategoryHandler handles category CRUD.
type CategoryHandler struct {
	categories *service.CategoryService
	notes      *service.NoteService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categories *service.CategoryService, notes *service.NoteService) *CategoryHandler {
	return &CategoryHandler{categories: categories, notes: notes}
}

type categoryRequest struct {
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
	Emoji    string `json:"emoji"`
}

func (h *CategoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CategoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	category, err := h.categories.Create(r.Context(), userID, req.Name, req.ColorHex, req.Emoji)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(*category))
}

func (h *CategoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	category, err := h.categories.Update(r.Context(), userID, r.PathValue("id"), req.Name, req.ColorHex, req.Emoji)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*category))
}

// handleNotes returns the user's notes in one category, newest first,
// from a fresh fetch.
func (h *CategoryHandler) handleNotes(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	if _, err := h.categories.Get(r.Context(), userID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}

	notes, err := h.notes.ListByCategory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteDTOs(notes, categories))
}

func (h *CategoryHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	if err := h.categories.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
