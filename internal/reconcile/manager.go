package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/store"
)

// Manager owns one live session per signed-in user: the user's entity
// store plus the reconciler keeping it synchronized. Ending a session
// cancels its subscriptions and clears its store synchronously, so a
// later session for a different user can never observe stale entities.
type Manager struct {
	notes      domain.NoteFeed
	categories domain.CategoryFeed

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager subscribing through the given feeds.
func NewManager(notes domain.NoteFeed, categories domain.CategoryFeed) *Manager {
	return &Manager{
		notes:      notes,
		categories: categories,
		sessions:   make(map[string]*Session),
	}
}

// Ensure returns the live session for userID, starting one if needed.
func (m *Manager) Ensure(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		store:  store.New(userID),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.sessions[userID] = s

	noteStream := m.notes.SubscribeNotes(ctx, userID)
	categoryStream := m.categories.SubscribeCategories(ctx, userID)

	go func() {
		err := New(s.store).Run(ctx, noteStream, categoryStream)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("session reconciler terminated", "user", userID, "error", err)
		}
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	}()

	slog.Info("session started", "user", userID)
	return s
}

// StoreFor returns the entity store of userID's live session, or nil
// when no session is active.
func (m *Manager) StoreFor(userID string) *store.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.store
	}
	return nil
}

// End tears down userID's session: subscriptions are canceled, the
// reconciler is waited out so no further mutations can land, and the
// store is cleared before End returns.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	<-s.done
	s.store.Clear()
	slog.Info("session ended", "user", userID)
}

// Shutdown ends every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.End(id)
	}
}

// Session is one user's live view of the backing store.
type Session struct {
	store  *store.Store
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Store returns the session's entity store.
func (s *Session) Store() *store.Store { return s.store }

// Done is closed when the session's reconciler has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err reports why the reconciler stopped. It is context.Canceled after
// a clean End, and the stream failure after a subscription error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
