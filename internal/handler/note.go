package handler

import (
	"net/http"

	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/query"
	"github.com/msomdec/notemap/internal/service"
)

// NoteHandler handles note CRUD, search, and filtered listing.
type NoteHandler struct {
	notes      *service.NoteService
	categories *service.CategoryService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes *service.NoteService, categories *service.CategoryService) *NoteHandler {
	return &NoteHandler{notes: notes, categories: categories}
}

type noteRequest struct {
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	CategoryID   string  `json:"categoryId"`
	Priority     string  `json:"priority"`
	ReminderDate *string `json:"reminderDate"`
}

func (r noteRequest) input() service.NoteInput {
	return service.NoteInput{
		Title:        r.Title,
		Content:      r.Content,
		CategoryID:   r.CategoryID,
		Priority:     domain.Priority(r.Priority),
		ReminderDate: r.ReminderDate,
	}
}

// handleList returns the user's notes, newest first. Optional query
// parameters narrow the result: q (substring search over title and
// content), category (category id), priority. All given criteria must
// match.
func (h *NoteHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	filter := query.Filter{
		SearchText: r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("category"),
	}
	if p := r.URL.Query().Get("priority"); p != "" {
		filter.Priority = domain.ParsePriority(p)
	}

	// A pure priority filter can use the indexed query directly.
	var notes []domain.Note
	var err error
	if filter.Priority != "" && filter.SearchText == "" && filter.CategoryID == "" {
		notes, err = h.notes.ListByPriority(r.Context(), userID, filter.Priority)
	} else {
		notes, err = h.notes.ListByUser(r.Context(), userID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	notes = query.Apply(notes, filter)

	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteDTOs(notes, categories))
}

func (h *NoteHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	note, err := h.notes.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteDTOs([]domain.Note{*note}, categories)[0])
}

// handleSearch runs a free-text search against a fresh fetch from the
// backing store.
func (h *NoteHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	notes, err := h.notes.Search(r.Context(), userID, r.URL.Query().Get("q"))
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

func (h *NoteHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	var req noteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	note, err := h.notes.Create(r.Context(), userID, req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteDTOs([]domain.Note{*note}, categories)[0])
}

func (h *NoteHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	var req noteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	note, err := h.notes.Update(r.Context(), userID, r.PathValue("id"), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	categories, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteDTOs([]domain.Note{*note}, categories)[0])
}

func (h *NoteHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	if err := h.notes.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
