// Package match computes similarity between a normalized extracted name
// and a sanction entity's known names.
package match

import (
	"sort"
	"strings"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/normalize"
)

// Blend weights for the composite similarity. Edit distance dominates,
// token-set ordering noise is forgiven, and raw token overlap anchors
// multi-word names.
const (
	weightEdit     = 0.55
	weightTokenSet = 0.30
	weightJaccard  = 0.15
)

// Scorer computes similarity scores in [0,1]. The zero value is ready
// to use; scoring is a pure function of its inputs.
type Scorer struct{}

// Score compares a normalized name against every known name of the
// entity and returns the maximum, plus the per-name distribution for
// audit. Any single alias match is evidence of identity, so the entity
// score is the max, not the average: an entity with many dissimilar
// aliases is not penalized.
//
// Exact normalized equality yields 1.0. Empty or degenerate inputs
// yield 0.0, never an error.
func (Scorer) Score(normalizedName string, entity *domain.SanctionEntity) (float64, map[string]float64) {
	if normalizedName == "" || entity == nil {
		return 0, nil
	}

	best := 0.0
	dist := make(map[string]float64, len(entity.Aliases)+1)
	for _, name := range entity.Names() {
		norm := normalize.Name(name)
		s := Similarity(normalizedName, norm)
		dist[name] = s
		if s > best {
			best = s
		}
	}
	return best, dist
}

// Similarity computes the composite similarity of two normalized names
// in [0,1]. Equal strings score 1.0; an empty side scores 0.0.
func Similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	aTokens := normalize.Tokens(a)
	bTokens := normalize.Tokens(b)

	s := weightEdit*editRatio(a, b) +
		weightTokenSet*tokenSetRatio(aTokens, bTokens) +
		weightJaccard*tokenJaccard(aTokens, bTokens)

	// The blend of three [0,1] terms stays in range, but clamp against
	// float drift so callers can rely on the contract.
	if s < 0 {
		return 0
	}
	if s >= 1 {
		// Only exact equality may report 1.0.
		return 0.999
	}
	return s
}

// editRatio is a Levenshtein-based similarity: 1 - distance/maxLen.
func editRatio(a, b string) float64 {
	d := levenshtein([]rune(a), []rune(b))
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 0
	}
	return 1.0 - float64(d)/float64(maxLen)
}

// tokenSetRatio compares the two names with their unique tokens sorted,
// which forgives word-order differences ("smith john" vs "john smith").
func tokenSetRatio(aTokens, bTokens []string) float64 {
	return editRatio(sortedJoin(aTokens), sortedJoin(bTokens))
}

func sortedJoin(tokens []string) string {
	uniq := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}
	sort.Strings(uniq)
	return strings.Join(uniq, " ")
}

func tokenJaccard(aTokens, bTokens []string) float64 {
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	aSet := make(map[string]bool, len(aTokens))
	for _, t := range aTokens {
		aSet[t] = true
	}
	inter := 0
	bSet := make(map[string]bool, len(bTokens))
	for _, t := range bTokens {
		if !bSet[t] {
			bSet[t] = true
			if aSet[t] {
				inter++
			}
		}
	}
	union := len(aSet) + len(bSet) - inter
	return float64(inter) / float64(union)
}

// levenshtein computes the edit distance between two rune slices using
// a two-row rolling matrix.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}
