package handler

import (
	"fmt"
	"time"

	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/query"
)

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

type categoryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
	Emoji    string `json:"emoji"`
}

func toCategoryDTO(c domain.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, ColorHex: c.ColorHex, Emoji: c.Emoji}
}

type noteDTO struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Category      categoryDTO `json:"category"`
	Priority      string      `json:"priority"`
	PriorityLabel string      `json:"priorityLabel"`
	PriorityColor string      `json:"priorityColor"`
	CreatedAt     string      `json:"createdAt"`
	CreatedAgo    string      `json:"createdAgo"`
	ReminderDate  *string     `json:"reminderDate,omitempty"`
	Attachments   []string    `json:"attachments,omitempty"`
}

// toNoteDTO resolves the note's category against the index; notes whose
// category is missing or deleted render as Uncategorized.
func toNoteDTO(n domain.Note, idx *query.Index, now time.Time) noteDTO {
	return noteDTO{
		ID:            n.ID,
		Title:         n.Title,
		Content:       n.Content,
		Category:      toCategoryDTO(idx.Resolve(n.CategoryID)),
		Priority:      string(n.Priority),
		PriorityLabel: n.Priority.DisplayName(),
		PriorityColor: n.Priority.ColorHex(),
		CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339),
		CreatedAgo:    relativeTime(n.CreatedAt, now),
		ReminderDate:  n.ReminderDate,
		Attachments:   n.Attachments,
	}
}

func toNoteDTOs(notes []domain.Note, categories []domain.Category) []noteDTO {
	idx := query.NewIndex(categories)
	now := time.Now()
	out := make([]noteDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteDTO(n, idx, now))
	}
	return out
}

// relativeTime renders a creation time the way note lists display it:
// "Just now" under a minute, then minutes, hours, days, and finally
// weeks.
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	}
}
