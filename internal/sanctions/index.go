// Package sanctions holds the in-memory view of a sanctions list
// snapshot and its fuzzy-lookup structures.
//
// An Index is immutable after Build. One Index exists per snapshot
// generation; in-flight matching holds its own reference for the
// duration of a cycle, so swapping in a new generation never disrupts
// readers of the old one.
package sanctions

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
	"github.com/macarvajall/OFAC/internal/normalize"
)

// maxCandidatePool bounds how many index items one lookup may touch.
const maxCandidatePool = 5000

// minBlockingToken is the shortest token admitted to the inverted
// index. Shorter tokens produce postings too dense to be useful.
const minBlockingToken = 3

//nolint:gochecknoglobals // Monotonic snapshot generation counter
var generation atomic.Uint64

// item is one indexed name (primary or alias) of an entity.
type item struct {
	entity   int // index into Index.entities
	norm     string
	tokens   []string
	tokenSet map[string]bool
}

// Index is a read-only fuzzy-candidate lookup over one snapshot of
// sanction entities.
type Index struct {
	gen      uint64
	builtAt  time.Time
	entities []domain.SanctionEntity

	items []item
	exact map[string][]int // normalized name -> item ids

	// postings block candidates by shared tokens; buckets block by
	// first letter + length bucket, which tolerates misspellings that
	// share no whole token with any alias. Drastically misspelled names
	// can still fall outside both and are missed: that is the accepted
	// trade-off for sub-linear lookup.
	postings map[string][]int
	buckets  map[string][]int
}

// Candidate pairs an entity with its blocking pre-score. PreScore is a
// cheap token-overlap estimate used only for ordering; real similarity
// comes from the scorer.
type Candidate struct {
	Entity   *domain.SanctionEntity
	PreScore float64
}

// Build constructs an Index from a snapshot of entities. It fails with
// a MalformedSnapshot error if any entity's primary name is empty or
// normalizes to nothing. Build is a pure function of the snapshot.
func Build(entities []domain.SanctionEntity) (*Index, error) {
	ix := &Index{
		gen:      generation.Add(1),
		builtAt:  time.Now().UTC(),
		entities: entities,
		exact:    make(map[string][]int),
		postings: make(map[string][]int),
		buckets:  make(map[string][]int),
	}

	for ei := range entities {
		e := &entities[ei]
		if normalize.Name(e.PrimaryName) == "" {
			return nil, errors.MalformedSnapshot(
				fmt.Sprintf("entity %q has an empty primary name", e.UID))
		}
		for _, name := range e.Names() {
			ix.addName(ei, name)
		}
	}

	return ix, nil
}

func (ix *Index) addName(entity int, raw string) {
	norm := normalize.Name(raw)
	if norm == "" {
		return
	}
	tokens := normalize.Tokens(norm)
	if len(tokens) == 0 {
		return
	}

	id := len(ix.items)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	ix.items = append(ix.items, item{entity: entity, norm: norm, tokens: tokens, tokenSet: set})

	ix.exact[norm] = append(ix.exact[norm], id)
	for t := range set {
		if len(t) >= minBlockingToken {
			ix.postings[t] = append(ix.postings[t], id)
		}
	}
	ix.buckets[bucketKey(norm)] = append(ix.buckets[bucketKey(norm)], id)
}

// Candidates returns the entities whose any alias shares a blocking key
// with the query, ordered by descending pre-score (ties broken by UID).
// Each entity appears once, carrying its best pre-score. An exact
// normalized match always pre-scores 1.0.
func (ix *Index) Candidates(normalizedName string) []Candidate {
	qTokens := normalize.Tokens(normalizedName)
	if len(qTokens) == 0 {
		return nil
	}
	qSet := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		qSet[t] = true
	}

	pool := ix.blockedPool(normalizedName, qSet)
	if len(pool) == 0 {
		return nil
	}

	// Best pre-score per entity across its names.
	best := make(map[int]float64)
	for id := range pool {
		it := &ix.items[id]
		score := jaccard(qSet, it.tokenSet)
		if it.norm == normalizedName {
			score = 1.0
		}
		if score > best[it.entity] {
			best[it.entity] = score
		} else if _, ok := best[it.entity]; !ok {
			best[it.entity] = score
		}
	}

	out := make([]Candidate, 0, len(best))
	for ei, score := range best {
		out = append(out, Candidate{Entity: &ix.entities[ei], PreScore: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PreScore != out[j].PreScore {
			return out[i].PreScore > out[j].PreScore
		}
		return out[i].Entity.UID < out[j].Entity.UID
	})
	return out
}

// blockedPool gathers item ids sharing a token posting or length bucket
// with the query.
func (ix *Index) blockedPool(normalizedName string, qSet map[string]bool) map[int]bool {
	pool := make(map[int]bool)

	// Token postings, rarest first so tight queries stay tight.
	var posts [][]int
	for t := range qSet {
		if len(t) < minBlockingToken {
			continue
		}
		if ids := ix.postings[t]; len(ids) > 0 {
			posts = append(posts, ids)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return len(posts[i]) < len(posts[j]) })
	for _, ids := range posts {
		for _, id := range ids {
			pool[id] = true
		}
		if len(pool) > maxCandidatePool {
			break
		}
	}

	// Length buckets around the query's own bucket.
	if len(pool) <= maxCandidatePool {
		for _, key := range bucketKeysAround(normalizedName) {
			for _, id := range ix.buckets[key] {
				pool[id] = true
			}
		}
	}

	return pool
}

// Len returns the number of entities in the snapshot.
func (ix *Index) Len() int { return len(ix.entities) }

// Generation returns the snapshot generation number.
func (ix *Index) Generation() uint64 { return ix.gen }

// BuiltAt returns when the index was constructed.
func (ix *Index) BuiltAt() time.Time { return ix.builtAt }

// Entities exposes the snapshot's records, for read-only use.
func (ix *Index) Entities() []domain.SanctionEntity { return ix.entities }

// bucketKey groups names by first letter and coarse length so that
// small edits land in the same or an adjacent bucket.
func bucketKey(norm string) string {
	return fmt.Sprintf("%c/%d", norm[0], len(norm)/4)
}

func bucketKeysAround(norm string) []string {
	if norm == "" {
		return nil
	}
	b := len(norm) / 4
	keys := []string{fmt.Sprintf("%c/%d", norm[0], b), fmt.Sprintf("%c/%d", norm[0], b+1)}
	if b > 0 {
		keys = append(keys, fmt.Sprintf("%c/%d", norm[0], b-1))
	}
	return keys
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
