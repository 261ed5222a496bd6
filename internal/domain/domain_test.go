package domain

import "testing"

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in   string
		want Priority
	}{
		{"HIGH", PriorityHigh},
		{"MEDIUM", PriorityMedium},
		{"LOW", PriorityLow},
		{"", PriorityMedium},
		{"URGENT", PriorityMedium},
		{"high", PriorityHigh},
	}
	for _, tc := range cases {
		if got := ParsePriority(tc.in); got != tc.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseColorHex(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"0xFF6366F1", 0xFF6366F1, true},
		{"#6366F1", 0xFF6366F1, true},
		{"#FF6366F1", 0xFF6366F1, true},
		{"0X80000000", 0x80000000, true},
		{"6366F1", 0, false},
		{"#123", 0, false},
		{"0xGGGGGGGG", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseColorHex(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseColorHex(%q) = (%#x, %v), want (%#x, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCategoryColorFallback(t *testing.T) {
	c := Category{ColorHex: "not-a-color"}
	if got := c.Color(); got != 0xFF000000 {
		t.Errorf("Color() = %#x, want 0xFF000000", got)
	}
	c = Category{}
	if got := c.Color(); got != 0xFF000000 {
		t.Errorf("Color() on empty = %#x, want 0xFF000000", got)
	}
}

func TestPriorityDisplay(t *testing.T) {
	if PriorityHigh.DisplayName() != "High" {
		t.Errorf("DisplayName = %q, want High", PriorityHigh.DisplayName())
	}
	if PriorityMedium.ColorHex() != "0xFFF59E0B" {
		t.Errorf("ColorHex = %q, want 0xFFF59E0B", PriorityMedium.ColorHex())
	}
}
