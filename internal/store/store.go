// Package store holds the locally cached copy of one user's notes and
// categories. It is the single source of truth for view code and is
// mutated only by the reconciler (remote changes) and the services
// (optimistic local application).
package store

import (
	"sync"

	"github.com/msomdec/notemap/internal/domain"
)

// Store is a user-scoped in-memory entity cache. All mutations are
// serialized; snapshots are consistent copies and never observe a
// partially applied change.
type Store struct {
	mu         sync.RWMutex
	userID     string
	notes      map[string]domain.Note
	categories map[string]domain.Category

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}
}

// New creates an empty store scoped to userID.
func New(userID string) *Store {
	return &Store{
		userID:     userID,
		notes:      make(map[string]domain.Note),
		categories: make(map[string]domain.Category),
		watchers:   make(map[chan struct{}]struct{}),
	}
}

// UserID returns the id of the user this store is scoped to.
func (s *Store) UserID() string { return s.userID }

// Subscribe registers a change watcher: a coalescing signal channel
// that receives after any state change. Every watcher is signaled
// independently, so concurrent consumers never steal each other's
// wake-ups. The returned cancel func unregisters the watcher.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.watchMu.Lock()
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()
	return ch, func() {
		s.watchMu.Lock()
		delete(s.watchers, ch)
		s.watchMu.Unlock()
	}
}

// UpsertNote inserts or replaces a note by id.
func (s *Store) UpsertNote(n domain.Note) {
	s.mu.Lock()
	s.notes[n.ID] = n
	s.mu.Unlock()
	s.signal()
}

// RemoveNote deletes a note by id. Removing an absent id is a no-op.
func (s *Store) RemoveNote(id string) {
	s.mu.Lock()
	_, ok := s.notes[id]
	delete(s.notes, id)
	s.mu.Unlock()
	if ok {
		s.signal()
	}
}

// GetNote returns the note with the given id, if present.
func (s *Store) GetNote(id string) (domain.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

// Notes returns a point-in-time copy of all cached notes, in no
// particular order. Consumers re-sort as needed.
func (s *Store) Notes() []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	return out
}

// UpsertCategory inserts or replaces a category by id.
func (s *Store) UpsertCategory(c domain.Category) {
	s.mu.Lock()
	s.categories[c.ID] = c
	s.mu.Unlock()
	s.signal()
}

// RemoveCategory deletes a category by id. Removing an absent id is a
// no-op.
func (s *Store) RemoveCategory(id string) {
	s.mu.Lock()
	_, ok := s.categories[id]
	delete(s.categories, id)
	s.mu.Unlock()
	if ok {
		s.signal()
	}
}

// GetCategory returns the category with the given id, if present.
func (s *Store) GetCategory(id string) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

// Categories returns a point-in-time copy of all cached categories.
func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out
}

// Clear drops all cached entities. Called synchronously on logout and
// user switch so stale cross-user data is never observable.
func (s *Store) Clear() {
	s.mu.Lock()
	s.notes = make(map[string]domain.Note)
	s.categories = make(map[string]domain.Category)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) signal() {
	s.watchMu.Lock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.watchMu.Unlock()
}
