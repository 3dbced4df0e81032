// Package normalize canonicalizes raw person-name strings before
// matching. Normalization is deterministic, pure, and idempotent:
// Name(Name(x)) == Name(x) for all inputs.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// honorifics are leading title tokens dropped from names. Matching
// happens after lowercasing and punctuation removal, so "Mr." and "MR"
// both hit "mr".
//
//nolint:gochecknoglobals // Static lookup table
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "mx": true,
	"dr": true, "prof": true, "sir": true, "dame": true, "lord": true,
	"rev": true, "hon": true, "gen": true, "gral": true, "col": true,
	"capt": true, "cmdr": true, "lt": true, "sgt": true,
	"sr": true, "sra": true, "srta": true, "don": true, "dona": true,
}

// stripMarks removes combining marks after NFD decomposition, so
// "Petró" normalizes to "petro".
//
//nolint:gochecknoglobals // Reused transformer chain
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name canonicalizes a raw name string: lowercases, strips diacritics,
// removes punctuation and honorifics, collapses whitespace, and reorders
// a single "Last, First" comma pattern to "First Last".
func Name(raw string) string {
	s := sanitize(raw)
	if s == "" {
		return ""
	}

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	// "gonzalez, maria" -> "maria gonzalez". Only a single comma is
	// treated as inverted order; multiple commas are list noise and are
	// handled by the punctuation filter below.
	if first, last, ok := splitInverted(s); ok {
		s = first + " " + last
	}

	// Keep letters and spaces only.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '\'' || r == '.':
			// Separators become token boundaries.
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	for len(fields) > 1 && honorifics[fields[0]] {
		fields = fields[1:]
	}

	return strings.Join(fields, " ")
}

// Tokens splits a normalized name into match tokens. Single-letter
// fragments (initials, stray particles) are dropped as noise.
func Tokens(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// splitInverted detects a "last, first" pattern and returns the
// reordered halves.
func splitInverted(s string) (first, last string, ok bool) {
	i := strings.IndexByte(s, ',')
	if i <= 0 || strings.IndexByte(s[i+1:], ',') >= 0 {
		return "", "", false
	}
	last = strings.TrimSpace(s[:i])
	first = strings.TrimSpace(s[i+1:])
	if first == "" || last == "" {
		return "", "", false
	}
	return first, last, true
}

// sanitize trims the input and drops null bytes, which some feed
// parsers leave embedded in strings.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
