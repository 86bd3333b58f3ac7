package repository

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Burial Fund", "burial-fund"},
		{"punctuation", "December Event: Year-End!", "december-event-year-end"},
		{"extra whitespace", "  Mokoena   Family  ", "mokoena-family"},
		{"unicode stripped", "Lekgotla café", "lekgotla-caf"},
		{"numbers kept", "2026 Savings", "2026-savings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueSlugAppendsSuffixOnCollision(t *testing.T) {
	taken := map[string]bool{"burial-fund": true, "burial-fund-1": true}
	exists := func(s string) (bool, error) { return taken[s], nil }

	got, err := uniqueSlug("burial-fund", exists)
	if err != nil {
		t.Fatalf("uniqueSlug failed: %v", err)
	}
	if got != "burial-fund-2" {
		t.Errorf("uniqueSlug = %q, want %q", got, "burial-fund-2")
	}
}

func TestUniqueSlugNoCollision(t *testing.T) {
	exists := func(string) (bool, error) { return false, nil }
	got, err := uniqueSlug("savings", exists)
	if err != nil {
		t.Fatalf("uniqueSlug failed: %v", err)
	}
	if got != "savings" {
		t.Errorf("uniqueSlug = %q, want %q", got, "savings")
	}
}
