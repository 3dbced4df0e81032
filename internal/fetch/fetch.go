// Package fetch pulls raw documents from configured news sources.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/domain"
)

// Fetcher retrieves the current raw documents for one source. Failures
// are transient: the cycle aborts and the source retries on its next
// scheduled tick.
type Fetcher interface {
	Fetch(ctx context.Context, src config.Source) ([]domain.RawDocument, error)
}

// DefaultKeywords is the monitor-wide relevance gate applied when a
// source configures no keyword list. It mirrors the sanction/AML
// vocabulary the original monitor tracked across English and Spanish
// coverage.
//
//nolint:gochecknoglobals // Static default keyword list
var DefaultKeywords = []string{
	"ofac", "sdn", "sdn list", "specially designated",
	"designated", "designation", "blocked", "asset freeze",
	"sanction", "sanctions", "lista clinton", "lista negra",
	"blacklist", "watchlist", "targeted sanctions",
	"money laundering", "laundering", "terrorism financing", "terrorist financing",
	"drug trafficking", "narcotrafficking", "corruption", "bribery",
	"lavado", "lavado de activos", "financiacion del terrorismo", "corrupcion",
	"soborno", "narcotrafico",
	"charged", "indicted", "accused", "convicted", "investigated",
	"acusado", "imputado", "condenado", "investigado", "sancionado",
}

// MatchesKeywords reports whether the text contains any of the keywords,
// case-insensitively. An empty keyword list never matches: relevance is
// a hard allowlist, not a default-open gate.
func MatchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ItemID derives a stable identifier for a source item so the same
// content hashes identically across polls.
func ItemID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// collapseWhitespace flattens runs of whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clipText caps s at max bytes, backing off to a rune boundary so the
// clip never produces invalid UTF-8.
func clipText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
