// Package query derives filtered, ordered note views from store
// snapshots. Filtering is pure in-memory predicate evaluation; the
// collections involved are small and fully loaded.
package query

import (
	"sort"
	"strings"

	"github.com/msomdec/notemap/internal/domain"
)

// Filter selects a subset of notes. Zero-valued fields are
// pass-throughs, never implicit match-nothing; all set fields must
// match (conjunctive).
type Filter struct {
	SearchText string
	CategoryID string
	Priority   domain.Priority
}

// Apply returns the notes matching f, ordered newest first by
// CreatedAt with ties broken by id ascending for determinism. The
// input slice is not modified; an empty result is valid, not an error.
func Apply(notes []domain.Note, f Filter) []domain.Note {
	out := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		if Matches(n, f) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Matches reports whether a single note satisfies every set component
// of f.
func Matches(n domain.Note, f Filter) bool {
	if f.SearchText != "" && !containsFold(n.Title, f.SearchText) && !containsFold(n.Content, f.SearchText) {
		return false
	}
	if f.CategoryID != "" && n.CategoryID != f.CategoryID {
		return false
	}
	if f.Priority != "" && n.Priority != f.Priority {
		return false
	}
	return true
}

// containsFold is a case-insensitive, Unicode-aware substring check.
// Pure containment: no tokenization, no ranking.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SortCategories orders a category snapshot oldest first by CreatedAt
// with ties broken by id ascending, matching the listing order of the
// backing store. The input slice is sorted in place and returned.
func SortCategories(categories []domain.Category) []domain.Category {
	sort.Slice(categories, func(i, j int) bool {
		if !categories[i].CreatedAt.Equal(categories[j].CreatedAt) {
			return categories[i].CreatedAt.Before(categories[j].CreatedAt)
		}
		return categories[i].ID < categories[j].ID
	})
	return categories
}

// Uncategorized is the placeholder returned when a note's category id
// does not resolve. A dangling category reference is a valid, if
// visually degraded, state.
var Uncategorized = domain.Category{
	Name:     "Uncategorized",
	ColorHex: domain.FallbackColor,
	Emoji:    domain.DefaultCategoryEmoji,
}

// Index resolves category ids in O(1). Rebuild it whenever the
// category snapshot changes.
type Index struct {
	byID map[string]domain.Category
}

// NewIndex builds an id lookup over a category snapshot.
func NewIndex(categories []domain.Category) *Index {
	byID := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return &Index{byID: byID}
}

// Resolve returns the category for id, or the Uncategorized
// placeholder when id is empty or dangling.
func (ix *Index) Resolve(id string) domain.Category {
	if c, ok := ix.byID[id]; ok {
		return c
	}
	return Uncategorized
}
