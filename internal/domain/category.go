package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxCategoriesPerUser caps how many categories an account may hold
	// concurrently. Enforced by the category service, not the store.
	MaxCategoriesPerUser = 8

	// DefaultCategoryColor is used for categories created without an
	// explicit color.
	DefaultCategoryColor = "0xFF6366F1"

	// FallbackColor is substituted when a stored color string cannot be
	// parsed. Rendering degrades instead of failing.
	FallbackColor = "0xFF000000"

	// DefaultCategoryEmoji is the glyph for categories created without one.
	DefaultCategoryEmoji = "📝"
)

// Category groups notes under a user-chosen label. Emoji is a display
// glyph and is not validated.
type Category struct {
	ID        string
	UserID    string
	Name      string
	ColorHex  string
	Emoji     string
	CreatedAt time.Time
}

// Color returns the category's color as a 0xAARRGGBB value. Invalid or
// empty color strings yield the parsed FallbackColor.
func (c Category) Color() uint32 {
	if v, ok := ParseColorHex(c.ColorHex); ok {
		return v
	}
	v, _ := ParseColorHex(FallbackColor)
	return v
}

// ParseColorHex parses "#RRGGBB", "#AARRGGBB" and "0xAARRGGBB" color
// strings into a 0xAARRGGBB value. A missing alpha channel is treated
// as fully opaque.
func ParseColorHex(s string) (uint32, bool) {
	var hex string
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		hex = s[2:]
	case strings.HasPrefix(s, "#"):
		hex = s[1:]
	default:
		return 0, false
	}

	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return 0, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// DefaultCategories are seeded for every newly registered user.
var DefaultCategories = []Category{
	{Name: "Personal", ColorHex: "0xFF6366F1", Emoji: "👤"},
	{Name: "Work", ColorHex: "0xFFEF4444", Emoji: "💼"},
	{Name: "Study", ColorHex: "0xFF10B981", Emoji: "📚"},
	{Name: "Ideas", ColorHex: "0xFFF59E0B", Emoji: "💡"},
	{Name: "Shopping", ColorHex: "0xFF8B5CF6", Emoji: "🛒"},
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	ListByUser(ctx context.Context, userID string) ([]Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}
