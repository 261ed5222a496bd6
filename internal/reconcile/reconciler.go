// Package reconcile keeps a user's entity store consistent with the
// backing store's change feeds, and owns the per-user session
// lifecycle around it.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/store"
)

// Reconciler applies change events from the note and category streams
// of a single user to that user's entity store. ADDED and MODIFIED are
// both upserts keyed by id, so replayed or duplicated events converge;
// REMOVED for an absent id is a no-op.
type Reconciler struct {
	store *store.Store
}

// New creates a reconciler writing into s.
func New(s *store.Store) *Reconciler {
	return &Reconciler{store: s}
}

// Run consumes both streams until they terminate or ctx is canceled,
// applying events to the store in delivery order per stream. The two
// collections are independent; no relative ordering across them is
// assumed. On a stream failure Run cancels the other stream and
// returns the failure once; the store keeps its last-known state.
func (r *Reconciler) Run(ctx context.Context, notes domain.Stream[domain.Note], categories domain.Stream[domain.Category]) error {
	defer notes.Cancel()
	defer categories.Cancel()

	noteEvents := notes.Events()
	categoryEvents := categories.Events()

	for noteEvents != nil || categoryEvents != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-noteEvents:
			if !ok {
				if err := notes.Err(); err != nil {
					return err
				}
				noteEvents = nil
				continue
			}
			r.applyNote(ev)
		case ev, ok := <-categoryEvents:
			if !ok {
				if err := categories.Err(); err != nil {
					return err
				}
				categoryEvents = nil
				continue
			}
			r.applyCategory(ev)
		}
	}
	return nil
}

func (r *Reconciler) applyNote(ev domain.Change[domain.Note]) {
	if ev.Entity.UserID != "" && ev.Entity.UserID != r.store.UserID() {
		slog.Debug("discarding note event for other user", "kind", ev.Kind.String(), "user", ev.Entity.UserID)
		return
	}
	switch ev.Kind {
	case domain.ChangeRemoved:
		r.store.RemoveNote(ev.Entity.ID)
	default:
		r.store.UpsertNote(ev.Entity)
	}
}

func (r *Reconciler) applyCategory(ev domain.Change[domain.Category]) {
	if ev.Entity.UserID != "" && ev.Entity.UserID != r.store.UserID() {
		slog.Debug("discarding category event for other user", "kind", ev.Kind.String(), "user", ev.Entity.UserID)
		return
	}
	switch ev.Kind {
	case domain.ChangeRemoved:
		r.store.RemoveCategory(ev.Entity.ID)
	default:
		r.store.UpsertCategory(ev.Entity)
	}
}
