package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/reconcile"
)

// CategoryService validates and executes category commands, enforcing
// the per-account category cap and the no-delete-while-referenced
// integrity rule.
type CategoryService struct {
	categories domain.CategoryRepository
	notes      domain.NoteRepository
	sessions   *reconcile.Manager
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories domain.CategoryRepository, notes domain.NoteRepository, sessions *reconcile.Manager) *CategoryService {
	return &CategoryService{categories: categories, notes: notes, sessions: sessions}
}

// Create persists a new category for userID. Empty color and emoji
// fall back to the defaults; the account cap is checked first.
func (s *CategoryService) Create(ctx context.Context, userID, name, colorHex, emoji string) (*domain.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	count, err := s.categories.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	if count >= domain.MaxCategoriesPerUser {
		return nil, fmt.Errorf("%w: at most %d categories per account", domain.ErrLimitExceeded, domain.MaxCategoriesPerUser)
	}

	if colorHex == "" {
		colorHex = domain.DefaultCategoryColor
	}
	if emoji == "" {
		emoji = domain.DefaultCategoryEmoji
	}

	category := &domain.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		ColorHex:  colorHex,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}

	st := s.storeFor(userID)
	if st != nil {
		st.UpsertCategory(*category)
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if st != nil {
			st.RemoveCategory(category.ID)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Update renames or restyles an existing category.
func (s *CategoryService) Update(ctx context.Context, userID, id, name, colorHex, emoji string) (*domain.Category, error) {
	existing, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	updated := *existing
	updated.Name = name
	if colorHex != "" {
		updated.ColorHex = colorHex
	}
	if emoji != "" {
		updated.Emoji = emoji
	}

	st := s.storeFor(userID)
	if st != nil {
		st.UpsertCategory(updated)
	}

	if err := s.categories.Update(ctx, &updated); err != nil {
		if st != nil {
			st.UpsertCategory(*existing)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &updated, nil
}

// Delete removes a category. It fails with ErrConflict while any note
// still references the category; the check runs against the
// authoritative backing store, not the session cache, and completes
// before the delete is issued. Deleting an unknown id is a success.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.UserID != userID {
		return domain.ErrUnauthorized
	}

	referencing, err := s.notes.CountByCategory(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count referencing notes: %w", err)
	}
	if referencing > 0 {
		return fmt.Errorf("%w: category has %d notes", domain.ErrConflict, referencing)
	}

	st := s.storeFor(userID)
	if st != nil {
		st.RemoveCategory(id)
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if st != nil {
			st.UpsertCategory(*existing)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ListByUser returns userID's categories in creation order.
func (s *CategoryService) ListByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

// Get returns the category with the given id if userID owns it.
func (s *CategoryService) Get(ctx context.Context, userID, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return category, nil
}

func (s *CategoryService) storeFor(userID string) storeWriter {
	if s.sessions == nil {
		return nil
	}
	st := s.sessions.StoreFor(userID)
	if st == nil {
		return nil
	}
	return st
}
