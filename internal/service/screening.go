// Package service implements the analyst-facing operations on top of
// the pipeline's stores and indexes.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/macarvajall/OFAC/internal/errors"
	"github.com/macarvajall/OFAC/internal/match"
	"github.com/macarvajall/OFAC/internal/normalize"
	"github.com/macarvajall/OFAC/internal/sanctions"
)

// minDirectSearchScore floors what an ad-hoc SDN search returns.
// Analyst queries want plausible hits only, not the long tail.
const minDirectSearchScore = 0.80

// SDNHit is one direct-search result against the sanctions snapshot.
type SDNHit struct {
	UID     string  `json:"uid"`
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Program string  `json:"program,omitempty"`
	Remarks string  `json:"remarks,omitempty"`
	Score   float64 `json:"score"`
}

// ScreeningService answers ad-hoc name lookups against the current
// sanctions snapshot.
type ScreeningService struct {
	snapshots *sanctions.Snapshots
	scorer    match.Scorer
	logger    *slog.Logger
}

// NewScreeningService creates the screening service.
func NewScreeningService(snapshots *sanctions.Snapshots, logger *slog.Logger) *ScreeningService {
	return &ScreeningService{snapshots: snapshots, logger: logger}
}

// SearchSDN scores a free-form name against the current snapshot and
// returns the strongest hits, at most one per distinct person. Near
// duplicate list entries (same leading name tokens) collapse to the
// best-scoring one.
func (s *ScreeningService) SearchSDN(_ context.Context, rawName string, limit int) ([]SDNHit, error) {
	ix := s.snapshots.Current()
	if ix == nil {
		return nil, errors.Internal("sanctions list not loaded yet", nil)
	}

	norm := normalize.Name(rawName)
	if norm == "" {
		return nil, errors.Validation("query normalizes to nothing")
	}
	if limit <= 0 {
		limit = 10
	}

	hits := make([]SDNHit, 0, limit)
	for _, cand := range ix.Candidates(norm) {
		score, _ := s.scorer.Score(norm, cand.Entity)
		if score < minDirectSearchScore {
			continue
		}
		hits = append(hits, SDNHit{
			UID:     cand.Entity.UID,
			Name:    cand.Entity.PrimaryName,
			Kind:    string(cand.Entity.Kind),
			Program: cand.Entity.Program,
			Remarks: cand.Entity.Remarks,
			Score:   score,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].UID < hits[j].UID
	})

	deduped := dedupeByCore(hits)
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}

// SnapshotLoaded reports whether a sanctions snapshot is available.
func (s *ScreeningService) SnapshotLoaded() bool {
	return s.snapshots.Current() != nil
}

// dedupeByCore keeps the first (best-scoring) hit per core name key.
// The core key is the first two normalized tokens, which collapses
// list entries that differ only in suffixes or middle names.
func dedupeByCore(hits []SDNHit) []SDNHit {
	out := make([]SDNHit, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		key := coreKey(h.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

func coreKey(name string) string {
	tokens := normalize.Tokens(normalize.Name(name))
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return strings.Join(tokens, " ")
}
