// Package extract finds person-name candidates in raw text.
//
// The extraction model is an opaque capability behind the Extractor
// interface: the pipeline only depends on the span contract. The
// bundled heuristic extractor stands in for an NER model and errs
// toward recall; downstream matching and classification filter the
// noise.
package extract

import (
	"strings"
	"unicode"

	"github.com/macarvajall/OFAC/internal/domain"
)

// Extractor returns the PERSON-tagged spans found in text. Pure
// function of the text; no failure mode beyond an empty result.
type Extractor interface {
	ExtractPersons(text string) []domain.Span
}

// connectors are lowercase particles allowed inside a name sequence
// ("Maria de la Cruz", "Omar bin Rashid").
//
//nolint:gochecknoglobals // Static lookup table
var connectors = map[string]bool{
	"de": true, "del": true, "la": true, "los": true, "das": true,
	"da": true, "di": true, "van": true, "von": true, "der": true,
	"bin": true, "ibn": true, "al": true, "el": true,
}

// minNameLength rejects fragments too short to be a person name.
const minNameLength = 3

// Heuristic extracts runs of two or more capitalized words as person
// candidates. All-caps tokens (acronyms, tickers) never start or extend
// a run.
type Heuristic struct{}

// NewHeuristic creates the default extractor.
func NewHeuristic() Heuristic { return Heuristic{} }

// ExtractPersons scans the text for capitalized-word sequences,
// deduplicating case-insensitively while preserving first-occurrence
// order. Runs never cross a sentence boundary, and a sentence-opening
// capitalized word ("Later John Smith left") is shed from the run when
// a complete name follows it.
func (Heuristic) ExtractPersons(text string) []domain.Span {
	words := splitWords(text)

	var spans []domain.Span
	seen := make(map[string]bool)

	i := 0
	for i < len(words) {
		if !isNameToken(words[i].text) {
			i++
			continue
		}

		// Extend the run through capitalized words and connectors; a
		// connector chain only counts if a capitalized word follows it.
		j := i + 1
		last := i
		for j < len(words) && !words[j].sentenceStart {
			if isNameToken(words[j].text) {
				last = j
				j++
				continue
			}
			k := j
			for k < len(words) && connectors[words[k].text] && !words[k].sentenceStart {
				k++
			}
			if k > j && k < len(words) && isNameToken(words[k].text) && !words[k].sentenceStart {
				last = k
				j = k + 1
				continue
			}
			break
		}

		// A sentence opener followed by a complete name is more likely
		// an ordinary word than a given name; drop it from the run.
		start := i
		if words[i].sentenceStart && last-i >= 2 && isNameToken(words[i+1].text) {
			start = i + 1
		}

		if last > start {
			parts := make([]string, 0, last-start+1)
			for k := start; k <= last; k++ {
				parts = append(parts, words[k].text)
			}
			name := strings.Join(parts, " ")
			key := strings.ToLower(name)
			if len(name) >= minNameLength && !seen[key] {
				seen[key] = true
				spans = append(spans, domain.Span{Text: name, Offset: words[start].offset})
			}
		}
		i = last + 1
	}

	return spans
}

type word struct {
	text   string
	offset int

	// sentenceStart marks the first word of the text or of a new
	// sentence (after '.', '!' or '?').
	sentenceStart bool
}

// splitWords tokenizes on anything that is not a letter, apostrophe, or
// in-word hyphen, keeping byte offsets and sentence boundaries.
func splitWords(text string) []word {
	var words []word
	start := -1
	boundary := true
	for i, r := range text {
		if unicode.IsLetter(r) || r == '\'' || r == '-' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, word{text: text[start:i], offset: start, sentenceStart: boundary})
			start = -1
			boundary = false
		}
		if r == '.' || r == '!' || r == '?' {
			boundary = true
		}
	}
	if start >= 0 {
		words = append(words, word{text: text[start:], offset: start, sentenceStart: boundary})
	}
	return words
}

// isNameToken reports whether a word looks like one capitalized name
// part: leading uppercase letter followed by at least one lowercase
// letter somewhere ("Smith", "McGregor", "O'Brien" — but not "OFAC").
func isNameToken(w string) bool {
	runes := []rune(w)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	hasLower := false
	for _, r := range runes[1:] {
		if unicode.IsLower(r) {
			hasLower = true
		} else if !unicode.IsLetter(r) && r != '\'' && r != '-' {
			return false
		}
	}
	return hasLower
}
