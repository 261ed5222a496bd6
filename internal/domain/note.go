package domain

import (
	"context"
	"strings"
	"time"
)

// Priority is the urgency level of a note.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority maps a stored string to a Priority. Unknown or empty
// values coerce to PriorityMedium so that malformed documents read from
// the backing store never fail.
func ParsePriority(value string) Priority {
	switch strings.ToUpper(value) {
	case string(PriorityHigh):
		return PriorityHigh
	case string(PriorityLow):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// DisplayName returns the human-readable label for the priority.
func (p Priority) DisplayName() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}

// ColorHex returns the badge color associated with the priority.
func (p Priority) ColorHex() string {
	switch p {
	case PriorityHigh:
		return "0xFFEF4444"
	case PriorityLow:
		return "0xFF10B981"
	default:
		return "0xFFF59E0B"
	}
}

// Note is a user-owned note document. CategoryID may reference a
// category that no longer exists; views render such notes as
// uncategorized rather than treating them as errors.
type Note struct {
	ID           string
	UserID       string
	Title        string
	Content      string
	CategoryID   string
	Priority     Priority
	CreatedAt    time.Time
	ReminderDate *string
	Attachments  []string
}

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id string) (*Note, error)
	ListByUser(ctx context.Context, userID string) ([]Note, error)
	ListByCategory(ctx context.Context, userID, categoryID string) ([]Note, error)
	ListByPriority(ctx context.Context, userID string, priority Priority) ([]Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id string) error
	CountByCategory(ctx context.Context, userID, categoryID string) (int, error)
}
