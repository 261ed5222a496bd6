package handler

import (
	"net/http"

	"github.com/msomdec/notemap/internal/reconcile"
	"github.com/msomdec/notemap/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	notes *service.NoteService,
	categories *service.CategoryService,
	sessions *reconcile.Manager,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(auth, sessions, cookieSecure)
	noteHandler := NewNoteHandler(notes, categories)
	categoryHandler := NewCategoryHandler(categories, notes)
	liveHandler := NewLiveHandler(sessions)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/auth/register", authHandler.handleRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.handleLogout)
	mux.Handle("GET /api/auth/me", RequireAuth(auth, http.HandlerFunc(authHandler.handleMe)))

	mux.Handle("GET /api/notes", RequireAuth(auth, http.HandlerFunc(noteHandler.handleList)))
	mux.Handle("POST /api/notes", RequireAuth(auth, http.HandlerFunc(noteHandler.handleCreate)))
	mux.Handle("GET /api/notes/search", RequireAuth(auth, http.HandlerFunc(noteHandler.handleSearch)))
	mux.Handle("GET /api/notes/live", RequireAuth(auth, http.HandlerFunc(liveHandler.handleNotesLive)))
	mux.Handle("GET /api/notes/{id}", RequireAuth(auth, http.HandlerFunc(noteHandler.handleGet)))
	mux.Handle("PUT /api/notes/{id}", RequireAuth(auth, http.HandlerFunc(noteHandler.handleUpdate)))
	mux.Handle("DELETE /api/notes/{id}", RequireAuth(auth, http.HandlerFunc(noteHandler.handleDelete)))

	mux.Handle("GET /api/categories", RequireAuth(auth, http.HandlerFunc(categoryHandler.handleList)))
	mux.Handle("POST /api/categories", RequireAuth(auth, http.HandlerFunc(categoryHandler.handleCreate)))
	mux.Handle("GET /api/categories/{id}/notes", RequireAuth(auth, http.HandlerFunc(categoryHandler.handleNotes)))
	mux.Handle("PUT /api/categories/{id}", RequireAuth(auth, http.HandlerFunc(categoryHandler.handleUpdate)))
	mux.Handle("DELETE /api/categories/{id}", RequireAuth(auth, http.HandlerFunc(categoryHandler.handleDelete)))
}
