package fetch

import (
	"testing"
	"unicode/utf8"
)

func TestMatchesKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"simple hit", "OFAC announced new designations today", []string{"ofac"}, true},
		{"case insensitive text", "new SANCTIONS imposed", []string{"sanctions"}, true},
		{"case insensitive keyword", "sanctions imposed", []string{"SANCTIONS"}, true},
		{"substring hit", "counternarcotrafficking operation", []string{"narcotrafico", "narcotrafficking"}, true},
		{"spanish keyword", "fue acusado de lavado de activos", []string{"lavado de activos"}, true},
		{"no hit", "quarterly earnings beat expectations", DefaultKeywords, false},
		{"empty list never matches", "ofac sanctions everywhere", nil, false},
		{"empty keyword skipped", "plain text", []string{"", ""}, false},
		{"empty text", "", []string{"ofac"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesKeywords(tt.text, tt.keywords); got != tt.want {
				t.Errorf("MatchesKeywords(%q, %v) = %v, want %v", tt.text, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestItemIDStable(t *testing.T) {
	a := ItemID("feed-1", "https://example.com/a", "some headline")
	b := ItemID("feed-1", "https://example.com/a", "some headline")
	if a != b {
		t.Errorf("same parts should hash identically: %s vs %s", a, b)
	}
}

func TestItemIDDistinct(t *testing.T) {
	base := ItemID("feed-1", "https://example.com/a", "headline")
	variants := []string{
		ItemID("feed-2", "https://example.com/a", "headline"),
		ItemID("feed-1", "https://example.com/b", "headline"),
		ItemID("feed-1", "https://example.com/a", "other headline"),
		// The separator keeps adjacent parts from bleeding together.
		ItemID("feed-1https://example.com/a", "", "headline"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base ID", i)
		}
	}
}

func TestClipText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under the cap", "short", 10, "short"},
		{"exactly the cap", "12345", 5, "12345"},
		{"ascii clip", "123456789", 5, "12345"},
		// "ó" is two bytes; a cap landing inside it backs off.
		{"multibyte boundary", "narcó", 5, "narc"},
		{"multibyte kept whole", "narcó", 6, "narcó"},
		{"zero cap", "café", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipText(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("clipText(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("clipText(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a  b\t\nc", "a b c"},
		{"  leading and trailing  ", "leading and trailing"},
		{"", ""},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := collapseWhitespace(tt.in); got != tt.want {
			t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
