package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/query"
	"github.com/msomdec/notemap/internal/reconcile"
)

// NoteInput carries the caller-editable note fields. ID, owner,
// creation time, and attachments are not settable through commands.
type NoteInput struct {
	Title        string
	Content      string
	CategoryID   string
	Priority     domain.Priority
	ReminderDate *string
}

// NoteService validates and executes note commands. Writes are applied
// optimistically to the acting user's session store and rolled back if
// the backing store rejects them; the authoritative change feed later
// overwrites the optimistic entry.
type NoteService struct {
	notes      domain.NoteRepository
	categories domain.CategoryRepository
	sessions   *reconcile.Manager
}

// NewNoteService creates a new NoteService. sessions may be nil when
// no live session cache is maintained.
func NewNoteService(notes domain.NoteRepository, categories domain.CategoryRepository, sessions *reconcile.Manager) *NoteService {
	return &NoteService{notes: notes, categories: categories, sessions: sessions}
}

// Create validates in and persists a new note owned by userID,
// returning the created note with its assigned id.
func (s *NoteService) Create(ctx context.Context, userID string, in NoteInput) (*domain.Note, error) {
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}

	note := &domain.Note{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        in.Title,
		Content:      in.Content,
		CategoryID:   in.CategoryID,
		Priority:     domain.ParsePriority(string(in.Priority)),
		CreatedAt:    time.Now().UTC(),
		ReminderDate: in.ReminderDate,
	}

	st := s.storeFor(userID)
	if st != nil {
		st.UpsertNote(*note)
	}

	if err := s.notes.Create(ctx, note); err != nil {
		if st != nil {
			st.RemoveNote(note.ID)
		}
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

// Update applies in to the note with the given id. Only title,
// content, category, priority, and reminder date are updatable.
func (s *NoteService) Update(ctx context.Context, userID, id string, in NoteInput) (*domain.Note, error) {
	existing, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Title = in.Title
	updated.Content = in.Content
	updated.CategoryID = in.CategoryID
	updated.Priority = domain.ParsePriority(string(in.Priority))
	updated.ReminderDate = in.ReminderDate

	st := s.storeFor(userID)
	if st != nil {
		st.UpsertNote(updated)
	}

	if err := s.notes.Update(ctx, &updated); err != nil {
		if st != nil {
			st.UpsertNote(*existing)
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return &updated, nil
}

// Delete removes the note with the given id. Deleting an unknown id is
// a success (idempotent delete).
func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.UserID != userID {
		return domain.ErrUnauthorized
	}

	st := s.storeFor(userID)
	if st != nil {
		st.RemoveNote(id)
	}

	if err := s.notes.Delete(ctx, id); err != nil {
		if st != nil {
			st.UpsertNote(*existing)
		}
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Get returns the note with the given id if userID owns it.
func (s *NoteService) Get(ctx context.Context, userID, id string) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return note, nil
}

// Search runs a free-text query against a fresh snapshot fetched from
// the backing store rather than the possibly-stale session cache.
func (s *NoteService) Search(ctx context.Context, userID, text string) ([]domain.Note, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return query.Apply(notes, query.Filter{SearchText: text}), nil
}

// ListByUser returns all of userID's notes, newest first.
func (s *NoteService) ListByUser(ctx context.Context, userID string) ([]domain.Note, error) {
	return s.notes.ListByUser(ctx, userID)
}

// ListByCategory returns userID's notes in the given category, newest
// first, from a fresh fetch.
func (s *NoteService) ListByCategory(ctx context.Context, userID, categoryID string) ([]domain.Note, error) {
	return s.notes.ListByCategory(ctx, userID, categoryID)
}

// ListByPriority returns userID's notes with the given priority,
// newest first, from a fresh fetch.
func (s *NoteService) ListByPriority(ctx context.Context, userID string, priority domain.Priority) ([]domain.Note, error) {
	return s.notes.ListByPriority(ctx, userID, priority)
}

func (s *NoteService) validate(ctx context.Context, userID string, in NoteInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: note title is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: note content is required", domain.ErrInvalidInput)
	}
	if in.CategoryID != "" {
		category, err := s.categories.GetByID(ctx, in.CategoryID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: category %s does not exist", domain.ErrInvalidInput, in.CategoryID)
			}
			return fmt.Errorf("check category: %w", err)
		}
		if category.UserID != userID {
			return domain.ErrUnauthorized
		}
	}
	return nil
}

func (s *NoteService) storeFor(userID string) storeWriter {
	if s.sessions == nil {
		return nil
	}
	st := s.sessions.StoreFor(userID)
	if st == nil {
		return nil
	}
	return st
}

// storeWriter is the slice of the session store the command layer
// touches for optimistic application.
type storeWriter interface {
	UpsertNote(domain.Note)
	RemoveNote(string)
	UpsertCategory(domain.Category)
	RemoveCategory(string)
}
